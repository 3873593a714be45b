package resolver

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/modelgrid/modelgrid/internal/ctxlog"
	"github.com/modelgrid/modelgrid/internal/store"
)

const (
	// backoffBase and backoffGrowth produce the smoothed exponential
	// schedule 0.2s, 0.3s, 0.45s, 0.675s, 1.0125s, ...
	backoffBase   = 200 * time.Millisecond
	backoffGrowth = 1.5

	// maxCreateAttempts bounds the creation retry loop.
	maxCreateAttempts = 10
)

// backoffDelay returns the delay after the given zero-based attempt.
func backoffDelay(attempt int) time.Duration {
	return time.Duration(float64(backoffBase) * math.Pow(backoffGrowth, float64(attempt)))
}

// sleeper blocks for the given duration or until the context is cancelled.
// The resolver's sleeper is swappable so tests can run the schedule without
// real delays.
type sleeper func(ctx context.Context, d time.Duration) error

// sleepWithContext is the production sleeper.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// createOrFetch attempts create once and, if it loses a uniqueness race,
// reconciles by fetching what the winner created. This is a single-retry
// reconciliation, distinct from the backoff loop: it is used where the
// entity is keyed by a caller-known name, so the fetch is guaranteed to see
// the winner's entity. The returned bool is true when this call created.
func createOrFetch[T any](ctx context.Context, create, fetch func(context.Context) (T, error)) (T, bool, error) {
	out, err := create(ctx)
	if err == nil {
		return out, true, nil
	}
	if !errors.Is(err, store.ErrAlreadyExists) {
		var zero T
		return zero, false, err
	}
	out, err = fetch(ctx)
	return out, false, err
}

// retryOnConflict retries create with smoothed exponential backoff for as
// long as it keeps reporting uniqueness conflicts, up to maxAttempts. Any
// other error aborts immediately and is returned as-is; conflicts are the
// only retried condition. It returns the number of attempts made; when the
// budget is exhausted the final conflict error is returned for the caller
// to classify.
func retryOnConflict[T any](ctx context.Context, maxAttempts int, sleep sleeper, create func(context.Context) (T, error)) (T, int, error) {
	var zero T
	var lastErr error
	logger := ctxlog.FromContext(ctx)

	for attempt := 0; attempt < maxAttempts; attempt++ {
		out, err := create(ctx)
		if err == nil {
			return out, attempt + 1, nil
		}
		if !errors.Is(err, store.ErrAlreadyExists) {
			return zero, attempt + 1, err
		}
		lastErr = err
		if attempt == maxAttempts-1 {
			break
		}
		delay := backoffDelay(attempt)
		logger.Debug("Creation conflicted with a concurrent creator; backing off.",
			"attempt", attempt+1, "delay", delay)
		if serr := sleep(ctx, delay); serr != nil {
			return zero, attempt + 1, serr
		}
	}
	return zero, maxAttempts, lastErr
}
