package service

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"
)

// RetryPolicy retries an operation with exponential backoff. The wait before
// attempt n (1-based) is backoff^(n-1) seconds, matching the upstream AI
// client settings (3 attempts, factor 2 => waits of 1s and 2s).
type RetryPolicy struct {
	MaxAttempts int
	Backoff     float64
	// Retryable decides whether an error is worth another attempt. A nil
	// predicate retries everything.
	Retryable func(error) bool
	// Sleep is swappable for tests; defaults to a context-aware wait.
	Sleep func(ctx context.Context, d time.Duration) error

	Logger *zap.Logger
}

// NewRetryPolicy builds a policy with sane floors on its parameters.
func NewRetryPolicy(maxAttempts int, backoff float64, logger *zap.Logger) *RetryPolicy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if backoff < 1 {
		backoff = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetryPolicy{
		MaxAttempts: maxAttempts,
		Backoff:     backoff,
		Logger:      logger,
	}
}

// Do runs fn until it succeeds, the error is not retryable, the attempts are
// exhausted, or the context ends. The last error is returned.
func (p *RetryPolicy) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(lastErr) {
			return lastErr
		}
		if attempt == p.MaxAttempts {
			break
		}

		wait := time.Duration(math.Pow(p.Backoff, float64(attempt-1)) * float64(time.Second))
		p.Logger.Warn("retrying after error",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", p.MaxAttempts),
			zap.Duration("wait", wait),
			zap.Error(lastErr),
		)
		if err := p.sleep(ctx, wait); err != nil {
			return err
		}
	}

	p.Logger.Error("all retry attempts exhausted",
		zap.String("op", op),
		zap.Int("attempts", p.MaxAttempts),
		zap.Error(lastErr),
	)
	return lastErr
}

func (p *RetryPolicy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
