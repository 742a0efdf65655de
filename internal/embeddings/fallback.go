package embeddings

import (
	"context"
	"math"
	"strings"

	"github.com/Anmol-TheDev/AI-pendant/pkg/types"
)

// FallbackEmbedding produces a deterministic, non-semantic pseudo-embedding
// from the text's character codes. The result always has the fixed index
// dimension and unit L2 norm (except for text with no letters, which yields
// the zero vector), so the vector index schema never varies between the real
// provider and the fallback.
func FallbackEmbedding(text string) []float64 {
	vector := make([]float64, types.EmbeddingDimension)
	words := strings.Fields(strings.ToLower(text))

	for i, word := range words {
		runes := []rune(word)
		for j, r := range runes {
			idx := (int(r) * (i + 1) * (j + 1)) % types.EmbeddingDimension
			vector[idx] += 1 / float64(len(words)*len(runes))
		}
	}

	var sum float64
	for _, v := range vector {
		sum += v * v
	}
	magnitude := math.Sqrt(sum)
	if magnitude == 0 {
		magnitude = 1
	}
	for i := range vector {
		vector[i] /= magnitude
	}
	return vector
}

// FallbackEmbedder implements EmbeddingService entirely locally.
type FallbackEmbedder struct{}

// NewFallbackEmbedder creates the hash-based local embedder.
func NewFallbackEmbedder() *FallbackEmbedder {
	return &FallbackEmbedder{}
}

func (f *FallbackEmbedder) GenerateEmbedding(_ context.Context, text string) ([]float64, error) {
	return FallbackEmbedding(text), nil
}

func (f *FallbackEmbedder) GenerateBatchEmbeddings(_ context.Context, texts []string) ([][]float64, error) {
	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		vectors[i] = FallbackEmbedding(text)
	}
	return vectors, nil
}

func (f *FallbackEmbedder) GetDimension() int { return types.EmbeddingDimension }

func (f *FallbackEmbedder) GetModel() string { return "fallback-hash" }

func (f *FallbackEmbedder) HealthCheck(_ context.Context) error { return nil }
