package embeddings

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Anmol-TheDev/AI-pendant/internal/config"
	"github.com/Anmol-TheDev/AI-pendant/internal/logging"
)

// CachedService wraps an EmbeddingService with a Redis cache keyed by a hash
// of (model, text). Cache failures are logged and ignored; the inner service
// always remains the source of truth.
type CachedService struct {
	inner  EmbeddingService
	client *redis.Client
	ttl    time.Duration
	logger logging.Logger
}

// NewCachedService connects to Redis and wraps inner. Connection failure is
// an error so deployments that enable the cache notice misconfiguration.
func NewCachedService(ctx context.Context, inner EmbeddingService, cfg *config.RedisConfig) (*CachedService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	ttl := time.Duration(cfg.TTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &CachedService{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: logging.WithComponent("embedding-cache"),
	}, nil
}

// Close releases the Redis connection.
func (c *CachedService) Close() error {
	return c.client.Close()
}

func (c *CachedService) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(c.inner.GetModel() + "\x00" + text))
	return "embedding:" + hex.EncodeToString(sum[:])
}

// GenerateEmbedding checks the cache before calling the inner service.
func (c *CachedService) GenerateEmbedding(ctx context.Context, text string) ([]float64, error) {
	key := c.cacheKey(text)

	if data, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var vector []float64
		if err := json.Unmarshal(data, &vector); err == nil && len(vector) == c.inner.GetDimension() {
			return vector, nil
		}
	} else if err != redis.Nil {
		c.logger.DebugContext(ctx, "Embedding cache read failed", "error", err)
	}

	vector, err := c.inner.GenerateEmbedding(ctx, text)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(vector); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.DebugContext(ctx, "Embedding cache write failed", "error", err)
		}
	}
	return vector, nil
}

func (c *CachedService) GenerateBatchEmbeddings(ctx context.Context, texts []string) ([][]float64, error) {
	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		vector, err := c.GenerateEmbedding(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("batch embedding failed at index %d: %w", i, err)
		}
		vectors[i] = vector
	}
	return vectors, nil
}

func (c *CachedService) GetDimension() int { return c.inner.GetDimension() }

func (c *CachedService) GetModel() string { return c.inner.GetModel() }

func (c *CachedService) HealthCheck(ctx context.Context) error { return c.inner.HealthCheck(ctx) }
