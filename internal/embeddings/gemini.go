package embeddings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/Anmol-TheDev/AI-pendant/internal/config"
	"github.com/Anmol-TheDev/AI-pendant/pkg/types"
)

// GeminiEmbeddingService implements EmbeddingService using the Gemini
// text-embedding-004 model (768 dimensions).
type GeminiEmbeddingService struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGeminiEmbeddingService creates a Gemini-backed embedding service.
func NewGeminiEmbeddingService(ctx context.Context, cfg *config.GeminiConfig) (*GeminiEmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &GeminiEmbeddingService{
		client:  client,
		model:   cfg.EmbeddingModel,
		timeout: timeout,
	}, nil
}

// Close releases the underlying client.
func (s *GeminiEmbeddingService) Close() error {
	return s.client.Close()
}

// GenerateEmbedding generates an embedding for a single text.
func (s *GeminiEmbeddingService) GenerateEmbedding(ctx context.Context, text string) ([]float64, error) {
	if text == "" {
		return nil, errors.New("text cannot be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	em := s.client.EmbeddingModel(s.model)
	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("gemini embedding request failed: %w", err)
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, errors.New("no embedding data received from gemini")
	}
	if len(res.Embedding.Values) != types.EmbeddingDimension {
		return nil, fmt.Errorf("unexpected embedding dimension %d", len(res.Embedding.Values))
	}

	vector := make([]float64, len(res.Embedding.Values))
	for i, v := range res.Embedding.Values {
		vector[i] = float64(v)
	}
	return vector, nil
}

// GenerateBatchEmbeddings embeds texts one request at a time.
func (s *GeminiEmbeddingService) GenerateBatchEmbeddings(ctx context.Context, texts []string) ([][]float64, error) {
	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		vector, err := s.GenerateEmbedding(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("batch embedding failed at index %d: %w", i, err)
		}
		vectors[i] = vector
	}
	return vectors, nil
}

func (s *GeminiEmbeddingService) GetDimension() int { return types.EmbeddingDimension }

func (s *GeminiEmbeddingService) GetModel() string { return s.model }

// HealthCheck embeds a short probe string.
func (s *GeminiEmbeddingService) HealthCheck(ctx context.Context) error {
	_, err := s.GenerateEmbedding(ctx, "health check")
	return err
}
