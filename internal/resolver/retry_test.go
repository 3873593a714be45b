package resolver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/modelgrid/modelgrid/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoffDelay_SmoothedExponentialSchedule(t *testing.T) {
	t.Parallel()

	want := []float64{0.2, 0.3, 0.45, 0.675, 1.0125}
	for attempt, seconds := range want {
		got := backoffDelay(attempt)
		assert.InDelta(t, seconds, got.Seconds(), 1e-9, "attempt %d", attempt)
	}
}

// recordingSleeper collects the delays it was asked to sleep, without
// actually sleeping.
type recordingSleeper struct {
	delays []time.Duration
}

func (s *recordingSleeper) sleep(ctx context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return nil
}

func TestRetryOnConflict_FirstAttemptSucceedsWithoutSleeping(t *testing.T) {
	t.Parallel()

	sl := &recordingSleeper{}
	got, attempts, err := retryOnConflict(context.Background(), maxCreateAttempts, sl.sleep,
		func(ctx context.Context) (int, error) { return 42, nil })

	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 1, attempts)
	assert.Empty(t, sl.delays)
}

func TestRetryOnConflict_RetriesConflictsWithBackoff(t *testing.T) {
	t.Parallel()

	// Arrange: two conflicts, then success.
	sl := &recordingSleeper{}
	calls := 0

	// Act
	got, attempts, err := retryOnConflict(context.Background(), maxCreateAttempts, sl.sleep,
		func(ctx context.Context) (string, error) {
			calls++
			if calls < 3 {
				return "", store.ErrAlreadyExists
			}
			return "ok", nil
		})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, attempts)
	require.Len(t, sl.delays, 2)
	assert.Equal(t, 200*time.Millisecond, sl.delays[0])
	assert.Equal(t, 300*time.Millisecond, sl.delays[1])
}

func TestRetryOnConflict_ExhaustsTheAttemptBudget(t *testing.T) {
	t.Parallel()

	sl := &recordingSleeper{}
	calls := 0

	_, attempts, err := retryOnConflict(context.Background(), maxCreateAttempts, sl.sleep,
		func(ctx context.Context) (int, error) {
			calls++
			return 0, store.ErrAlreadyExists
		})

	assert.ErrorIs(t, err, store.ErrAlreadyExists)
	assert.Equal(t, maxCreateAttempts, attempts)
	assert.Equal(t, maxCreateAttempts, calls)
	assert.Len(t, sl.delays, maxCreateAttempts-1, "no sleep after the final attempt")
}

func TestRetryOnConflict_NonConflictErrorsAbortImmediately(t *testing.T) {
	t.Parallel()

	boom := errors.New("store unreachable")
	sl := &recordingSleeper{}
	calls := 0

	_, attempts, err := retryOnConflict(context.Background(), maxCreateAttempts, sl.sleep,
		func(ctx context.Context) (int, error) {
			calls++
			return 0, boom
		})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 1, calls)
	assert.Empty(t, sl.delays)
}

func TestRetryOnConflict_SleeperErrorAborts(t *testing.T) {
	t.Parallel()

	cancelled := context.Canceled
	_, attempts, err := retryOnConflict(context.Background(), maxCreateAttempts,
		func(ctx context.Context, d time.Duration) error { return cancelled },
		func(ctx context.Context) (int, error) { return 0, store.ErrAlreadyExists })

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestCreateOrFetch(t *testing.T) {
	t.Parallel()

	// Creation wins outright.
	got, created, err := createOrFetch(context.Background(),
		func(ctx context.Context) (int, error) { return 1, nil },
		func(ctx context.Context) (int, error) { t.Fatal("fetch must not run"); return 0, nil })
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 1, got)

	// Losing the race reconciles by fetching the winner's entity.
	got, created, err = createOrFetch(context.Background(),
		func(ctx context.Context) (int, error) { return 0, store.ErrAlreadyExists },
		func(ctx context.Context) (int, error) { return 2, nil })
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 2, got)

	// Any other creation failure surfaces as-is.
	boom := errors.New("store unreachable")
	_, _, err = createOrFetch(context.Background(),
		func(ctx context.Context) (int, error) { return 0, boom },
		func(ctx context.Context) (int, error) { t.Fatal("fetch must not run"); return 0, nil })
	assert.ErrorIs(t, err, boom)
}

func TestSleepWithContext_HonorsCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sleepWithContext(ctx, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
}
