// Package retry wraps cenkalti/backoff with the policy shape used across the
// verification core: exponential backoff with a bounded attempt count, scoped
// per call site. Domain errors are never retried; they surface immediately.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	dErrors "vouch/pkg/domain-errors"
)

// Policy bounds retries for one call site.
type Policy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxAttempts     uint64 // total attempts including the first
}

// FastRead suits quick store reads: short backoff, few attempts.
func FastRead() Policy {
	return Policy{InitialInterval: 100 * time.Millisecond, MaxInterval: 2 * time.Second, MaxAttempts: 3}
}

// Standard matches the default activity policy: 1s initial, 30s cap, 5 attempts.
func Standard() Policy {
	return Policy{InitialInterval: time.Second, MaxInterval: 30 * time.Second, MaxAttempts: 5}
}

// Extraction suits long OCR-style work: slower start, 3 attempts.
func Extraction() Policy {
	return Policy{InitialInterval: 5 * time.Second, MaxInterval: time.Minute, MaxAttempts: 3}
}

// None disables retries (one-shot processes).
func None() Policy {
	return Policy{MaxAttempts: 1}
}

// Do runs op under the policy. Transient errors are retried with exponential
// backoff until the attempt budget runs out; typed domain errors and context
// cancellation stop immediately. onRetry, when non-nil, is called before each
// retry sleep (used to count retries in metrics).
func Do(ctx context.Context, p Policy, op func() error, onRetry func(err error, next time.Duration)) error {
	wrapped := func() error {
		err := op()
		if err == nil {
			return nil
		}
		var de *dErrors.Error
		if errors.As(err, &de) {
			return backoff.Permanent(err)
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return backoff.Permanent(err)
		}
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.MaxInterval = p.MaxInterval
	b.MaxElapsedTime = 0 // bounded by attempts, not wall time

	attempts := p.MaxAttempts
	if attempts == 0 {
		attempts = 1
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(b, attempts-1), ctx)

	if onRetry == nil {
		return backoff.Retry(wrapped, policy)
	}
	return backoff.RetryNotify(wrapped, policy, onRetry)
}
