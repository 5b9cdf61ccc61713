package dberrors

import (
	"context"
	"math"
	"math/rand"
	"time"

	retry "github.com/avast/retry-go/v4"
)

// RetryPolicy configures the exponential-backoff-with-jitter retry that Do
// applies to a caller-supplied operation.
type RetryPolicy struct {
	MaxAttempts     uint
	InitialBackoff  time.Duration
	MaxBackoff      time.Duration
	Multiplier      float64
	Jitter          bool
}

// DefaultRetryPolicy mirrors the teacher's habit of shipping a sensible
// Default*Config() constructor per component (server/config.go).
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     10 * time.Second,
		Multiplier:     2.0,
		Jitter:         true,
	}
}

// delay implements delay(n) = min(max, initial * multiplier^(n-1)), optionally
// scaled by a uniform factor in [0.75, 1.25].
func (p RetryPolicy) delay(attempt uint) time.Duration {
	n := float64(attempt)
	raw := float64(p.InitialBackoff) * math.Pow(p.Multiplier, n-1)
	if raw > float64(p.MaxBackoff) {
		raw = float64(p.MaxBackoff)
	}
	if p.Jitter {
		raw *= 0.75 + rand.Float64()*0.5
	}
	return time.Duration(raw)
}

// Do runs fn, retrying per policy only while the last error is transient
// (dberrors.IsTransient). The final surfaced error is the last failure.
func Do(ctx context.Context, policy RetryPolicy, fn func() error) error {
	return retry.Do(
		fn,
		retry.Context(ctx),
		retry.Attempts(policy.MaxAttempts),
		retry.MaxDelay(policy.MaxBackoff),
		retry.RetryIf(func(err error) bool { return IsTransient(err) }),
		retry.DelayType(func(n uint, _ error, _ *retry.Config) time.Duration {
			return policy.delay(n + 1)
		}),
		retry.LastErrorOnly(true),
	)
}
