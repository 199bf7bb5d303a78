package util

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetry_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, 2*time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return errors.New("flaky")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_ExhaustedReturnsLastError(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	err := Retry(context.Background(), 2, time.Millisecond, time.Millisecond, func() error {
		calls++
		return boom
	})
	require.Error(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, boom, errors.Cause(err))
	assert.Contains(t, err.Error(), "after 2 attempt(s)")
}

func TestRetry_PermanentStopsEarly(t *testing.T) {
	calls := 0
	boom := errors.New("not found")
	err := Retry(context.Background(), 5, time.Millisecond, time.Millisecond, func() error {
		calls++
		return Permanent(boom)
	})
	assert.Equal(t, 1, calls)
	assert.Equal(t, boom, err)
}

func TestRetry_ZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	_ = Retry(context.Background(), 0, time.Millisecond, time.Millisecond, func() error {
		calls++
		return errors.New("x")
	})
	assert.Equal(t, 1, calls)
}

func TestRetry_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Retry(ctx, 3, time.Hour, time.Hour, func() error {
		calls++
		cancel()
		return errors.New("fail")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPermanent_Nil(t *testing.T) {
	assert.NoError(t, Permanent(nil))
}
