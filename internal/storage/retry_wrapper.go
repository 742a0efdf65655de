package storage

import (
	"context"
	"strings"
	"time"

	apperrors "github.com/Anmol-TheDev/AI-pendant/internal/errors"
	"github.com/Anmol-TheDev/AI-pendant/internal/retry"
	"github.com/Anmol-TheDev/AI-pendant/pkg/types"
)

// RetryableVectorStore wraps a VectorStore with retry logic for transient
// index failures. Validation and not-found errors are never retried.
type RetryableVectorStore struct {
	store   VectorStore
	retrier *retry.Retrier
}

// NewRetryableVectorStore creates a retryable vector store. A nil config
// uses the storage defaults.
func NewRetryableVectorStore(store VectorStore, config *retry.Config) VectorStore {
	if config == nil {
		config = defaultRetryConfig()
	}
	return &RetryableVectorStore{
		store:   store,
		retrier: retry.New(config),
	}
}

func defaultRetryConfig() *retry.Config {
	return &retry.Config{
		MaxAttempts:     3,
		InitialDelay:    200 * time.Millisecond,
		MaxDelay:        5 * time.Second,
		Multiplier:      2.0,
		RandomizeFactor: 0.1,
		RetryIf:         isRetryableStorageError,
	}
}

// isRetryableStorageError reports whether a storage error looks transient.
func isRetryableStorageError(err error) bool {
	if err == nil {
		return false
	}
	if apperrors.IsValidation(err) || apperrors.IsNotFound(err) {
		return false
	}

	errStr := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection refused",
		"connection reset",
		"timeout",
		"temporary failure",
		"too many requests",
		"service unavailable",
		"unavailable",
		"internal server error",
		"bad gateway",
		"gateway timeout",
	}
	for _, pattern := range transientPatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	type temporary interface {
		Temporary() bool
	}
	if te, ok := err.(temporary); ok {
		return te.Temporary()
	}
	return false
}

// Initialize initializes the underlying store with retries.
func (rs *RetryableVectorStore) Initialize(ctx context.Context) error {
	return rs.retrier.Do(ctx, func(ctx context.Context) error {
		return rs.store.Initialize(ctx)
	}).Err
}

// Upsert stores an entry with retries.
func (rs *RetryableVectorStore) Upsert(ctx context.Context, entry *types.VectorEntry) error {
	return rs.retrier.Do(ctx, func(ctx context.Context) error {
		return rs.store.Upsert(ctx, entry)
	}).Err
}

// Search queries with retries.
func (rs *RetryableVectorStore) Search(ctx context.Context, vector []float64, filter VectorFilter, limit int) ([]types.SearchResult, error) {
	var results []types.SearchResult
	res := rs.retrier.Do(ctx, func(ctx context.Context) error {
		var err error
		results, err = rs.store.Search(ctx, vector, filter, limit)
		return err
	})
	return results, res.Err
}

// GetByID retrieves an entry with retries.
func (rs *RetryableVectorStore) GetByID(ctx context.Context, id string) (*types.VectorEntry, error) {
	var entry *types.VectorEntry
	res := rs.retrier.Do(ctx, func(ctx context.Context) error {
		var err error
		entry, err = rs.store.GetByID(ctx, id)
		return err
	})
	return entry, res.Err
}

// DeleteByID deletes an entry with retries.
func (rs *RetryableVectorStore) DeleteByID(ctx context.Context, id string) error {
	return rs.retrier.Do(ctx, func(ctx context.Context) error {
		return rs.store.DeleteByID(ctx, id)
	}).Err
}

// Count counts entries with retries.
func (rs *RetryableVectorStore) Count(ctx context.Context) (int64, error) {
	var count int64
	res := rs.retrier.Do(ctx, func(ctx context.Context) error {
		var err error
		count, err = rs.store.Count(ctx)
		return err
	})
	return count, res.Err
}

// HealthCheck checks the underlying store without retries.
func (rs *RetryableVectorStore) HealthCheck(ctx context.Context) error {
	return rs.store.HealthCheck(ctx)
}

// Close closes the underlying store.
func (rs *RetryableVectorStore) Close() error {
	return rs.store.Close()
}
