package embeddings

import (
	"context"

	"github.com/Anmol-TheDev/AI-pendant/internal/logging"
	"github.com/Anmol-TheDev/AI-pendant/pkg/types"
)

// ResilientService wraps an EmbeddingService and degrades to the
// deterministic hash fallback on any provider failure, so callers never see
// an embedding error. A nil inner service runs on the fallback alone.
type ResilientService struct {
	inner  EmbeddingService
	logger logging.Logger
}

// NewResilientService creates the degrading wrapper.
func NewResilientService(inner EmbeddingService) *ResilientService {
	return &ResilientService{
		inner:  inner,
		logger: logging.WithComponent("embeddings"),
	}
}

// GenerateEmbedding never fails; a provider error yields the fallback vector.
func (r *ResilientService) GenerateEmbedding(ctx context.Context, text string) ([]float64, error) {
	if r.inner == nil {
		return FallbackEmbedding(text), nil
	}
	vector, err := r.inner.GenerateEmbedding(ctx, text)
	if err != nil {
		r.logger.WarnContext(ctx, "Embedding provider degraded, using fallback",
			"model", r.inner.GetModel(),
			"error", err,
		)
		return FallbackEmbedding(text), nil
	}
	return vector, nil
}

func (r *ResilientService) GenerateBatchEmbeddings(ctx context.Context, texts []string) ([][]float64, error) {
	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		vector, err := r.GenerateEmbedding(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = vector
	}
	return vectors, nil
}

func (r *ResilientService) GetDimension() int { return types.EmbeddingDimension }

func (r *ResilientService) GetModel() string {
	if r.inner == nil {
		return "fallback-hash"
	}
	return r.inner.GetModel()
}

func (r *ResilientService) HealthCheck(ctx context.Context) error {
	if r.inner == nil {
		return nil
	}
	return r.inner.HealthCheck(ctx)
}
