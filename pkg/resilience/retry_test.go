package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fastRetry(retries int) RetryConfig {
	return RetryConfig{
		MaxRetries:     retries,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     10 * time.Millisecond,
		Multiplier:     2.0,
	}
}

func TestRetry_Success(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), DefaultRetryConfig(), func(context.Context) error {
		calls++
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, calls) // Should succeed on first try
}

func TestRetry_FailThenSucceed(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastRetry(3), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("redis not ready")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_AllFail(t *testing.T) {
	calls := 0
	persistent := errors.New("connection refused")
	err := Retry(context.Background(), fastRetry(2), func(context.Context) error {
		calls++
		return persistent
	})

	assert.ErrorIs(t, err, persistent)
	assert.Equal(t, 3, calls) // Initial + 2 retries
}

func TestRetry_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Retry(ctx, RetryConfig{MaxRetries: 10, InitialBackoff: time.Hour, MaxBackoff: time.Hour, Multiplier: 1}, func(context.Context) error {
		calls++
		cancel()
		return errors.New("down")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestCircuitBreaker_NormalOperation(t *testing.T) {
	cb := NewCircuitBreaker(3, 2, 100*time.Millisecond)

	err := cb.Execute(func() error {
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(3, 2, 100*time.Millisecond)

	testErr := errors.New("fail")
	for i := 0; i < 3; i++ {
		cb.Execute(func() error { return testErr })
	}

	assert.Equal(t, StateOpen, cb.State())

	// Next call should be rejected without running fn
	ran := false
	err := cb.Execute(func() error { ran = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, ran)
}

func TestCircuitBreaker_HalfOpenAfterTimeout(t *testing.T) {
	cb := NewCircuitBreaker(2, 2, time.Minute)
	now := time.Now()
	cb.now = func() time.Time { return now }

	// Trip the breaker
	cb.Execute(func() error { return errors.New("fail") })
	cb.Execute(func() error { return errors.New("fail") })
	assert.Equal(t, StateOpen, cb.State())

	now = now.Add(2 * time.Minute)

	// Next call should put it in half-open and succeed
	err := cb.Execute(func() error { return nil })
	assert.NoError(t, err)
	assert.Equal(t, StateHalfOpen, cb.State())

	// One more success should close it
	cb.Execute(func() error { return nil })
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker(1, 2, time.Minute)
	now := time.Now()
	cb.now = func() time.Time { return now }

	cb.Execute(func() error { return errors.New("fail") })
	now = now.Add(2 * time.Minute)
	cb.Execute(func() error { return errors.New("still failing") })

	assert.Equal(t, StateOpen, cb.State())
	assert.Equal(t, "open", cb.State().String())
}

func TestBackoffDuration(t *testing.T) {
	initial := 100 * time.Millisecond
	max := 5 * time.Second

	assert.Equal(t, 100*time.Millisecond, BackoffDuration(0, initial, max, 2.0))
	assert.Equal(t, 200*time.Millisecond, BackoffDuration(1, initial, max, 2.0))
	assert.Equal(t, 400*time.Millisecond, BackoffDuration(2, initial, max, 2.0))
	assert.Equal(t, 5*time.Second, BackoffDuration(10, initial, max, 2.0)) // Capped
}
