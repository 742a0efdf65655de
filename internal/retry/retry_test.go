package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(maxAttempts int) *Config {
	return &Config{
		MaxAttempts:  maxAttempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestDoSucceedsAfterFailures(t *testing.T) {
	attempts := 0
	result := New(fastConfig(5)).Do(context.Background(), func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, result.Err)
	assert.Equal(t, 3, result.Attempts)
}

func TestDoExhaustsAttempts(t *testing.T) {
	boom := errors.New("still broken")
	result := New(fastConfig(3)).Do(context.Background(), func(context.Context) error {
		return boom
	})
	assert.ErrorIs(t, result.Err, boom)
	assert.Equal(t, 3, result.Attempts)
}

func TestDoStopsOnPermanentError(t *testing.T) {
	attempts := 0
	result := New(fastConfig(5)).Do(context.Background(), func(context.Context) error {
		attempts++
		return Permanent(errors.New("bad request"))
	})
	require.Error(t, result.Err)
	assert.Equal(t, 1, attempts)
}

func TestDoStopsOnContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result := New(fastConfig(5)).Do(ctx, func(context.Context) error {
		t.Fatal("operation should not run after cancellation")
		return nil
	})
	require.Error(t, result.Err)
	assert.ErrorIs(t, result.Err, context.Canceled)
}

func TestRetryIfPredicate(t *testing.T) {
	cfg := fastConfig(5)
	cfg.RetryIf = func(err error) bool { return err.Error() == "retry me" }

	attempts := 0
	result := New(cfg).Do(context.Background(), func(context.Context) error {
		attempts++
		return errors.New("do not retry")
	})
	require.Error(t, result.Err)
	assert.Equal(t, 1, attempts)
}

func TestDefaultRetryIf(t *testing.T) {
	assert.False(t, DefaultRetryIf(nil))
	assert.False(t, DefaultRetryIf(Permanent(errors.New("x"))))
	assert.False(t, DefaultRetryIf(context.Canceled))
	assert.False(t, DefaultRetryIf(context.DeadlineExceeded))
	assert.True(t, DefaultRetryIf(errors.New("connection refused")))
}

func TestNewNormalizesConfig(t *testing.T) {
	r := New(&Config{MaxAttempts: -1, Multiplier: 0.5, RandomizeFactor: 2})
	assert.Equal(t, 1, r.config.MaxAttempts)
	assert.Equal(t, 1.0, r.config.Multiplier)
	assert.Equal(t, 1.0, r.config.RandomizeFactor)
	assert.NotNil(t, r.config.RetryIf)
}
