package dberrors

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryDelayMonotonicAndCapped(t *testing.T) {
	p := RetryPolicy{
		MaxAttempts:    5,
		InitialBackoff: 10 * time.Millisecond,
		MaxBackoff:     100 * time.Millisecond,
		Multiplier:     2.0,
		Jitter:         false,
	}
	assert.Equal(t, 10*time.Millisecond, p.delay(1))
	assert.Equal(t, 20*time.Millisecond, p.delay(2))
	assert.Equal(t, 40*time.Millisecond, p.delay(3))
	assert.Equal(t, 100*time.Millisecond, p.delay(10)) // capped
}

func TestDoRetriesOnlyTransient(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond, Multiplier: 2, Jitter: false}

	attempts := 0
	err := Do(context.Background(), p, func() error {
		attempts++
		return ValidationFailed("not transient")
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts, "non-transient errors must not be retried")

	attempts = 0
	err = Do(context.Background(), p, func() error {
		attempts++
		if attempts < 3 {
			return Connection("flaky")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}
