package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetry_Success(t *testing.T) {
	policy := &RetryPolicy{MaxRetries: 3, BaseDelay: 10 * time.Millisecond, MaxDelay: 100 * time.Millisecond, Multiplier: 2.0}

	called := 0
	err := WithRetry(context.Background(), policy, func() error {
		called++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, called)
}

func TestWithRetry_SuccessAfterRetries(t *testing.T) {
	policy := &RetryPolicy{MaxRetries: 3, BaseDelay: 10 * time.Millisecond, MaxDelay: 100 * time.Millisecond, Multiplier: 2.0}

	called := 0
	failUntil := 2
	err := WithRetry(context.Background(), policy, func() error {
		called++
		if called < failUntil {
			return errors.New("transient error")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, failUntil, called)
}

func TestWithRetry_AllRetriesFailed(t *testing.T) {
	policy := &RetryPolicy{MaxRetries: 3, BaseDelay: 10 * time.Millisecond, MaxDelay: 100 * time.Millisecond, Multiplier: 2.0}

	called := 0
	expectedError := errors.New("permanent error")
	err := WithRetry(context.Background(), policy, func() error {
		called++
		return expectedError
	})

	require.Error(t, err)
	assert.Equal(t, policy.MaxRetries+1, called)
	assert.True(t, errors.Is(err, expectedError))
}

func TestWithRetry_ContextCancellation(t *testing.T) {
	policy := &RetryPolicy{MaxRetries: 10, BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second, Multiplier: 2.0}
	ctx, cancel := context.WithCancel(context.Background())

	called := 0
	done := make(chan error, 1)

	go func() {
		done <- WithRetry(ctx, policy, func() error {
			called++
			if called == 2 {
				cancel()
			}
			return errors.New("error")
		})
	}()

	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled))
		assert.GreaterOrEqual(t, called, 2)
	case <-time.After(5 * time.Second):
		t.Fatal("test timed out")
	}
}

func TestWithRetry_NonRetryableError(t *testing.T) {
	policy := &RetryPolicy{MaxRetries: 3, BaseDelay: 10 * time.Millisecond, ErrorChecker: &NeverRetryChecker{}}

	called := 0
	err := WithRetry(context.Background(), policy, func() error {
		called++
		return errors.New("non-retryable error")
	})

	require.Error(t, err)
	assert.Equal(t, 1, called)
}

func TestWithRetryFunc_SuccessAfterRetries(t *testing.T) {
	policy := &RetryPolicy{MaxRetries: 3, BaseDelay: 10 * time.Millisecond, MaxDelay: 100 * time.Millisecond, Multiplier: 2.0}

	called := 0
	failUntil := 3
	result, err := WithRetryFunc(context.Background(), policy, func() (int, error) {
		called++
		if called < failUntil {
			return 0, errors.New("transient error")
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.Equal(t, failUntil, called)
}

func TestCalculateNextDelay_ExponentialBackoff(t *testing.T) {
	policy := &RetryPolicy{MaxRetries: 5, BaseDelay: 100 * time.Millisecond, MaxDelay: 5 * time.Second, Multiplier: 2.0, Jitter: false}

	cases := []struct {
		currentDelay time.Duration
		expected     time.Duration
	}{
		{100 * time.Millisecond, 200 * time.Millisecond},
		{200 * time.Millisecond, 400 * time.Millisecond},
		{3 * time.Second, 5 * time.Second},
	}
	for _, tt := range cases {
		assert.Equal(t, tt.expected, calculateNextDelay(tt.currentDelay, policy))
	}
}

func TestCalculateNextDelay_WithJitter(t *testing.T) {
	policy := &RetryPolicy{MaxRetries: 5, BaseDelay: 100 * time.Millisecond, MaxDelay: 5 * time.Second, Multiplier: 2.0, Jitter: true}

	currentDelay := 100 * time.Millisecond
	expectedBase := 200 * time.Millisecond
	maxJitter := time.Duration(float64(expectedBase) * 0.1)

	for i := 0; i < 10; i++ {
		actual := calculateNextDelay(currentDelay, policy)
		assert.GreaterOrEqual(t, actual, expectedBase)
		assert.LessOrEqual(t, actual, expectedBase+maxJitter)
	}
}

func TestDefaultRetryPolicy(t *testing.T) {
	policy := DefaultRetryPolicy()

	assert.Equal(t, 3, policy.MaxRetries)
	assert.Equal(t, 100*time.Millisecond, policy.BaseDelay)
	assert.Equal(t, 5*time.Second, policy.MaxDelay)
	assert.Equal(t, 2.0, policy.Multiplier)
	assert.True(t, policy.Jitter)
}

func TestWithRetry_NilPolicy(t *testing.T) {
	called := 0
	err := WithRetry(context.Background(), nil, func() error {
		called++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, called)
}

func TestWaitWithContext_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	completed := waitWithContext(ctx, time.Second)
	elapsed := time.Since(start)

	assert.False(t, completed)
	assert.Less(t, elapsed, 100*time.Millisecond)
}

func TestShouldRetry_NilError(t *testing.T) {
	assert.False(t, shouldRetry(nil, nil))
}

func TestShouldRetry_WithChecker(t *testing.T) {
	checker := &AlwaysRetryChecker{}
	assert.True(t, shouldRetry(errors.New("any error"), checker))
}
