package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notekeeper/pkg/logger"
	"notekeeper/pkg/retry"
)

var errTemporary = errors.New("temporary")

func testContext() context.Context {
	return logger.NewContext(context.Background(), logger.NewNop())
}

func fastPolicy(attempts int) retry.Policy {
	return retry.Policy{
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
		Factor:         2,
	}
}

func TestDo_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := retry.Do(testContext(), "test", fastPolicy(3), func(context.Context) error {
		calls++
		if calls < 3 {
			return errTemporary
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ReturnsLastErrorWhenExhausted(t *testing.T) {
	calls := 0
	err := retry.Do(testContext(), "test", fastPolicy(2), func(context.Context) error {
		calls++
		return errTemporary
	})

	require.ErrorIs(t, err, errTemporary)
	assert.Equal(t, 2, calls)
}

func TestDo_ZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	err := retry.Do(testContext(), "test", retry.Policy{}, func(context.Context) error {
		calls++
		return errTemporary
	})

	require.ErrorIs(t, err, errTemporary)
	assert.Equal(t, 1, calls)
}

func TestDo_NonRetryableStopsImmediately(t *testing.T) {
	errFatal := errors.New("fatal")
	p := fastPolicy(5)
	p.Retryable = func(err error) bool { return !errors.Is(err, errFatal) }

	calls := 0
	err := retry.Do(testContext(), "test", p, func(context.Context) error {
		calls++
		return errFatal
	})

	require.ErrorIs(t, err, errFatal)
	assert.Equal(t, 1, calls)
}

func TestDo_ContextCanceledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(testContext())
	p := fastPolicy(5)
	p.InitialBackoff = time.Hour
	p.MaxBackoff = time.Hour

	err := retry.Do(ctx, "test", p, func(context.Context) error {
		cancel()
		return errTemporary
	})

	require.ErrorIs(t, err, retry.ErrContextCanceled)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDefaultPolicy(t *testing.T) {
	p := retry.DefaultPolicy()
	assert.Equal(t, 3, p.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, p.InitialBackoff)
	assert.Equal(t, time.Second, p.MaxBackoff)
}
