package poll_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/khoahotran/reel-forge/pkg/poll"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUntil_DoneOnFirstAttempt(t *testing.T) {
	calls := 0
	err := poll.Until(context.Background(), poll.Policy{Interval: time.Hour, MaxAttempts: 3}, func(ctx context.Context, attempt int) (bool, error) {
		calls++
		return true, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestUntil_DoneAfterSeveralAttempts(t *testing.T) {
	var seen []int
	err := poll.Until(context.Background(), poll.Policy{Interval: time.Millisecond, MaxAttempts: 10}, func(ctx context.Context, attempt int) (bool, error) {
		seen = append(seen, attempt)
		return attempt == 3, nil
	})

	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, seen)
}

func TestUntil_MaxAttemptsExceeded(t *testing.T) {
	calls := 0
	err := poll.Until(context.Background(), poll.Policy{Interval: time.Millisecond, MaxAttempts: 4}, func(ctx context.Context, attempt int) (bool, error) {
		calls++
		return false, nil
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, poll.ErrTimeout))
	assert.Equal(t, 4, calls)
}

func TestUntil_TimeoutExceeded(t *testing.T) {
	err := poll.Until(context.Background(), poll.Policy{Interval: 5 * time.Millisecond, Timeout: 30 * time.Millisecond}, func(ctx context.Context, attempt int) (bool, error) {
		return false, nil
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, poll.ErrTimeout)
}

func TestUntil_ConditionErrorAborts(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := poll.Until(context.Background(), poll.Policy{Interval: time.Millisecond, MaxAttempts: 10}, func(ctx context.Context, attempt int) (bool, error) {
		calls++
		if attempt == 2 {
			return false, boom
		}
		return false, nil
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}

func TestUntil_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	err := poll.Until(ctx, poll.Policy{Interval: time.Hour, MaxAttempts: 10}, func(ctx context.Context, attempt int) (bool, error) {
		cancel()
		return false, nil
	})

	assert.ErrorIs(t, err, context.Canceled)
}
