package translation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryPolicyDelay(t *testing.T) {
	p := RetryPolicy{BaseDelay: 4 * time.Second, MaxDelay: 16 * time.Second}

	assert.Equal(t, 4*time.Second, p.Delay(1))
	assert.Equal(t, 8*time.Second, p.Delay(2))
	assert.Equal(t, 16*time.Second, p.Delay(3))
	assert.Equal(t, 16*time.Second, p.Delay(10))

	p.Jitter = 0.2
	for i := 0; i < 50; i++ {
		d := p.Delay(1)
		assert.GreaterOrEqual(t, d, 3200*time.Millisecond)
		assert.LessOrEqual(t, d, 4800*time.Millisecond)
	}
}

func TestRetryPolicyDoRetriesUntilSuccess(t *testing.T) {
	var waits []time.Duration
	p := RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    time.Minute,
		sleep: func(_ context.Context, d time.Duration) error {
			waits = append(waits, d)
			return nil
		},
	}

	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("flaky")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, waits)
}

func TestRetryPolicyDoGivesUp(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 2, sleep: noSleep}
	boom := errors.New("boom")

	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}

func TestRetryPolicyDoStopsOnPermanentErrors(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 5, sleep: noSleep}

	for _, err := range []error{
		Permanent(errors.New("bad request")),
		&ProviderError{Provider: "x", Status: 400, Retryable: false},
	} {
		calls := 0
		got := p.Do(context.Background(), func(context.Context) error {
			calls++
			return err
		})
		assert.Error(t, got)
		assert.Equal(t, 1, calls)
	}
}

func TestRetryPolicyDoHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Hour}

	calls := 0
	err := p.Do(ctx, func(context.Context) error {
		calls++
		cancel()
		return errors.New("flaky")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(errors.New("network")))
	assert.True(t, IsRetryable(classifyStatus("x", 429, nil)))
	assert.True(t, IsRetryable(classifyStatus("x", 503, nil)))
	assert.False(t, IsRetryable(classifyStatus("x", 403, nil)))
	assert.False(t, IsRetryable(context.Canceled))
	assert.False(t, IsRetryable(nil))
}
