package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/ironvault/walletledger/internal/apperrors"
	"github.com/ironvault/walletledger/internal/mlog"
	"github.com/ironvault/walletledger/internal/store"
)

// Execute wraps one Movement Orchestrator call with spec.md §4.5's
// bounded-attempt retry: SerializationFailure, DeadlockDetected, and
// LockNotAvailable are retried with exponential backoff and jitter;
// everything else — including InsufficientFunds and the idempotency
// unique-key race the Orchestrator already resolves internally —
// surfaces to the caller on the first occurrence.
func Execute[T any](ctx context.Context, cfg Config, fn func(ctx context.Context) (T, error)) (T, error) {
	var (
		result  T
		lastErr error
	)

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		result, lastErr = fn(ctx)
		if lastErr == nil {
			return result, nil
		}

		if !retryable(lastErr) {
			return result, lastErr
		}

		logger := mlog.FromContext(ctx)
		logger.Warnf("retry: attempt %d/%d failed with a transient error: %v", attempt, cfg.MaxAttempts, lastErr)

		if attempt == cfg.MaxAttempts {
			break
		}

		if err := sleepBackoff(ctx, cfg, attempt); err != nil {
			return result, err
		}
	}

	// spec.md §4.5: "after max_attempts exhausted, surface the last
	// error" — unwrapped, not re-classified.
	return result, lastErr
}

func retryable(err error) bool {
	var transient apperrors.TransientError
	if errors.As(err, &transient) {
		return transient.Retryable()
	}

	return store.Classify(err).Retryable()
}

func sleepBackoff(ctx context.Context, cfg Config, attempt int) error {
	delay := backoffDelay(cfg, attempt)

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// backoffDelay computes base·2^(attempt-1) + U(0, jitter_ms), capped at
// MaxBackoffMs when configured (spec.md §4.5).
func backoffDelay(cfg Config, attempt int) time.Duration {
	backoff := cfg.BaseBackoffMs << (attempt - 1)
	if cfg.MaxBackoffMs > 0 && backoff > cfg.MaxBackoffMs {
		backoff = cfg.MaxBackoffMs
	}

	jitter := 0
	if cfg.JitterMs > 0 {
		jitter = rand.Intn(cfg.JitterMs)
	}

	return time.Duration(backoff+jitter) * time.Millisecond
}
