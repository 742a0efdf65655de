package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Anmol-TheDev/AI-pendant/internal/errors"
	"github.com/Anmol-TheDev/AI-pendant/internal/retry"
	"github.com/Anmol-TheDev/AI-pendant/pkg/types"
)

// flakyVectorStore fails the first failures calls to Upsert.
type flakyVectorStore struct {
	VectorStore
	failures int
	calls    int
}

func (f *flakyVectorStore) Upsert(ctx context.Context, entry *types.VectorEntry) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("connection refused")
	}
	return f.VectorStore.Upsert(ctx, entry)
}

func fastRetryConfig() *retry.Config {
	return &retry.Config{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
		Multiplier:   2.0,
		RetryIf:      isRetryableStorageError,
	}
}

func testEntry(id string) *types.VectorEntry {
	return &types.VectorEntry{
		ID:     id,
		Vector: make([]float64, types.EmbeddingDimension),
		Text:   "entry " + id,
	}
}

func TestRetryableVectorStoreRecovers(t *testing.T) {
	flaky := &flakyVectorStore{VectorStore: NewMemoryVectorStore(), failures: 2}
	store := NewRetryableVectorStore(flaky, fastRetryConfig())

	err := store.Upsert(context.Background(), testEntry("v1"))
	require.NoError(t, err)
	assert.Equal(t, 3, flaky.calls)

	entry, err := store.GetByID(context.Background(), "v1")
	require.NoError(t, err)
	assert.Equal(t, "entry v1", entry.Text)
}

func TestRetryableVectorStoreGivesUp(t *testing.T) {
	flaky := &flakyVectorStore{VectorStore: NewMemoryVectorStore(), failures: 10}
	store := NewRetryableVectorStore(flaky, fastRetryConfig())

	err := store.Upsert(context.Background(), testEntry("v1"))
	require.Error(t, err)
	assert.Equal(t, 3, flaky.calls)
}

func TestRetryableVectorStoreSkipsNotFound(t *testing.T) {
	inner := NewMemoryVectorStore()
	store := NewRetryableVectorStore(inner, fastRetryConfig())

	_, err := store.GetByID(context.Background(), "missing")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestIsRetryableStorageError(t *testing.T) {
	assert.False(t, isRetryableStorageError(nil))
	assert.False(t, isRetryableStorageError(apperrors.NewValidation("vector", "empty")))
	assert.False(t, isRetryableStorageError(apperrors.NewNotFound("entry")))
	assert.False(t, isRetryableStorageError(errors.New("constraint violated")))
	assert.True(t, isRetryableStorageError(errors.New("dial tcp: connection refused")))
	assert.True(t, isRetryableStorageError(errors.New("rpc error: code = Unavailable")))
	assert.True(t, isRetryableStorageError(errors.New("request timeout exceeded")))
}
