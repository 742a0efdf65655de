// Package embeddings provides the text-embedding adapter used by the
// ingestion pipeline and the retrieval engine, including a deterministic
// hash-based fallback so the pipeline never blocks on a provider outage.
package embeddings

import "context"

// EmbeddingService defines the interface for generating embeddings.
type EmbeddingService interface {
	// GenerateEmbedding generates an embedding for a single text.
	GenerateEmbedding(ctx context.Context, text string) ([]float64, error)

	// GenerateBatchEmbeddings generates embeddings for multiple texts.
	GenerateBatchEmbeddings(ctx context.Context, texts []string) ([][]float64, error)

	// GetDimension returns the dimension of produced vectors.
	GetDimension() int

	// GetModel returns the model name.
	GetModel() string

	// HealthCheck verifies the provider is reachable.
	HealthCheck(ctx context.Context) error
}
