package orchestrator

import (
	"context"
	"time"

	"github.com/abderrazaqq12/adspark-ai-sub011/internal/domain"
)

// RetryPolicy bounds how often a failed engine or network call is repeated.
// Delays grow linearly with the attempt number; exceeding the budget turns
// the last error terminal. There is no unbounded retry anywhere in the
// pipeline.
type RetryPolicy struct {
	MaxAttempts int
	BackoffBase time.Duration
}

// DefaultRetryPolicy matches the pipeline's fixed budget of three attempts.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BackoffBase: 500 * time.Millisecond}
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.BackoffBase <= 0 {
		p.BackoffBase = 500 * time.Millisecond
	}
	return p
}

// run invokes fn until it succeeds, the attempt budget is spent, or ctx
// expires. It returns the attempt count alongside the final error: a spent
// budget yields the last error marked non-retryable, an expired context
// yields a timeout error.
func (p RetryPolicy) run(ctx context.Context, fn func(attempt int) error) (int, *domain.Error) {
	p = p.normalized()
	var last *domain.Error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		err := fn(attempt)
		if err == nil {
			return attempt, nil
		}
		last = domain.AsError(err)
		if !last.Retryable {
			return attempt, last
		}
		if attempt == p.MaxAttempts {
			return attempt, last.Exhausted()
		}
		select {
		case <-ctx.Done():
			return attempt, domain.TimeoutError("retry interrupted: %v", ctx.Err())
		case <-time.After(p.BackoffBase * time.Duration(attempt)):
		}
	}
	return p.MaxAttempts, last.Exhausted()
}
