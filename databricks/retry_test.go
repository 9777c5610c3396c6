package databricks

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry() *Retry {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return &Retry{Attempts: 3, Backoff: time.Millisecond, Logger: logger}
}

func TestRetryDoSucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := fastRetry().Do(context.Background(), "create catalog", func() error {
		calls++
		if calls < 3 {
			return &APIError{Status: 503, Message: "busy"}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryDoStopsOnPermanentFailure(t *testing.T) {
	calls := 0
	err := fastRetry().Do(context.Background(), "create catalog", func() error {
		calls++
		return &APIError{Status: 403, Message: "denied"}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryDoExhaustsAttempts(t *testing.T) {
	calls := 0
	err := fastRetry().Do(context.Background(), "put secret", func() error {
		calls++
		return &APIError{Status: 500, Message: "boom"}
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "giving up after 3 attempts")
}

func TestRetryDoHonorsContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := fastRetry()
	r.Backoff = time.Second
	err := r.Do(ctx, "create schema", func() error {
		return &APIError{Status: 500}
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWaitForCompletion(t *testing.T) {
	polls := 0
	done := fastRetry().WaitForCompletion(context.Background(), "statement", time.Millisecond, time.Second, func() (bool, error) {
		polls++
		return polls >= 3, nil
	})
	assert.True(t, done)
	assert.Equal(t, 3, polls)
}

func TestWaitForCompletionTimesOut(t *testing.T) {
	done := fastRetry().WaitForCompletion(context.Background(), "statement", time.Millisecond, 10*time.Millisecond, func() (bool, error) {
		return false, nil
	})
	assert.False(t, done)
}

func TestWaitForCompletionKeepsPollingThroughErrors(t *testing.T) {
	polls := 0
	done := fastRetry().WaitForCompletion(context.Background(), "run", time.Millisecond, time.Second, func() (bool, error) {
		polls++
		if polls < 2 {
			return false, &APIError{Status: 500}
		}
		return true, nil
	})
	assert.True(t, done)
}
