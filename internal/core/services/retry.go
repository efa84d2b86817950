package services

import (
	"context"
	"errors"
	"time"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

// Retrier runs external service calls with a per-attempt timeout and
// bounded exponential backoff between attempts.
type Retrier struct {
	policy  domain.RetrySettings
	timeout time.Duration
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewRetrier creates a retrier. A zero timeout leaves attempts unbounded.
func NewRetrier(policy domain.RetrySettings, timeout time.Duration) *Retrier {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &Retrier{policy: policy, timeout: timeout, sleep: sleepContext}
}

// Do calls fn until it succeeds, fails with a non-retryable error, or the
// attempts run out. The last error is returned unchanged.
func (r *Retrier) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	backoff := r.policy.InitialBackoff

	var err error
	for attempt := 1; ; attempt++ {
		err = r.attempt(ctx, fn)
		if err == nil || attempt >= r.policy.MaxAttempts || !Retryable(err) {
			return err
		}
		if ctx.Err() != nil {
			return err
		}

		logger.Warn("%s failed (attempt %d/%d), retrying in %s: %v", op, attempt, r.policy.MaxAttempts, backoff, err)
		if serr := r.sleep(ctx, backoff); serr != nil {
			return err
		}
		backoff = min(backoff*2, r.policy.MaxBackoff)
	}
}

func (r *Retrier) attempt(ctx context.Context, fn func(ctx context.Context) error) error {
	if r.timeout <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return fn(ctx)
}

// Retryable reports whether err is a transient service failure.
// Embedding errors carry their own verdict. LLM adapters wrap only transport
// failures and 429/5xx statuses in ErrLLMUnavailable.
func Retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var violation *domain.ContractViolation
	if errors.As(err, &violation) {
		return false
	}
	var embedErr *domain.EmbeddingServiceError
	if errors.As(err, &embedErr) {
		return embedErr.Retryable()
	}
	return errors.Is(err, domain.ErrLLMUnavailable)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
