package database

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	apperrors "github.com/allisson/passvault/internal/errors"
)

// RetryPolicy bounds retries of idempotent reads.
type RetryPolicy struct {
	MaxAttempts     uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy makes up to three attempts with short exponential backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: 50 * time.Millisecond,
		MaxInterval:     500 * time.Millisecond,
	}
}

// RetryRead runs fn until it succeeds, fails with an error other than
// ErrUnavailable, the attempts are exhausted or ctx is done.
// Only use it for reads; writes must not be retried.
func RetryRead[T any](ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) (T, error)) (T, error) {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = policy.InitialInterval
	exp.MaxInterval = policy.MaxInterval
	exp.MaxElapsedTime = 0

	var b backoff.BackOff = exp
	if policy.MaxAttempts > 0 {
		b = backoff.WithMaxRetries(b, policy.MaxAttempts-1)
	}
	b = backoff.WithContext(b, ctx)

	var result T
	op := func() error {
		v, err := fn(ctx)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrUnavailable) && ctx.Err() == nil {
				return err
			}
			return backoff.Permanent(err)
		}
		result = v
		return nil
	}

	if err := backoff.Retry(op, b); err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
