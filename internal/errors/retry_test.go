package errors

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   2,
		InitialDelay: 5 * time.Millisecond,
		MaxDelay:     20 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestRetry_SucceedsAfterTransientError(t *testing.T) {
	// Given: a function that fails twice then succeeds
	attempts := 0
	fn := func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient error")
		}
		return nil
	}

	// When: retrying
	err := Retry(context.Background(), fastRetryConfig(), fn)

	// Then: succeeds after 3 attempts
	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetry_FailsAfterMaxRetries(t *testing.T) {
	// Given: a function that always fails
	attempts := 0
	fn := func() error {
		attempts++
		return errors.New("persistent error")
	}

	// When: retrying with limited retries
	err := Retry(context.Background(), fastRetryConfig(), fn)

	// Then: fails with wrapped error
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 retries")
	assert.Equal(t, 3, attempts)
}

func TestRetry_StopsOnNonRetryableError(t *testing.T) {
	// Given: the default policy and a query error
	attempts := 0
	queryErr := QueryError("bad expression", nil)
	cfg := DefaultRetryConfig()

	// When: retrying
	err := Retry(context.Background(), cfg, func() error {
		attempts++
		return queryErr
	})

	// Then: the error is returned untouched after one attempt
	assert.Same(t, queryErr, err)
	assert.Equal(t, 1, attempts)
}

func TestRetry_RetriesBusyStore(t *testing.T) {
	// Given: a store that is busy once
	attempts := 0
	cfg := DefaultRetryConfig()
	cfg.InitialDelay = time.Millisecond

	// When: retrying
	err := Retry(context.Background(), cfg, func() error {
		attempts++
		if attempts == 1 {
			return New(ErrCodeStoreBusy, "database is locked", nil)
		}
		return nil
	})

	// Then: the second attempt wins
	assert.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestRetry_RespectsContextCancellation(t *testing.T) {
	// Given: an already cancelled context
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// When: retrying
	err := Retry(ctx, fastRetryConfig(), func() error { return nil })

	// Then: returns the context error without calling fn
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetryWithResult_ReturnsValue(t *testing.T) {
	attempts := 0
	result, err := RetryWithResult(context.Background(), fastRetryConfig(), func() (int, error) {
		attempts++
		if attempts < 2 {
			return 0, errors.New("error")
		}
		return 42, nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 42, result)
}

func TestRetryWithResult_ReturnsZeroOnFailure(t *testing.T) {
	result, err := RetryWithResult(context.Background(), fastRetryConfig(), func() (string, error) {
		return "partial", errors.New("error")
	})

	assert.Error(t, err)
	assert.Equal(t, "", result)
}

func TestDefaultRetryConfig_RetriesOnlyRetryableErrors(t *testing.T) {
	cfg := DefaultRetryConfig()

	assert.Equal(t, 5, cfg.MaxRetries)
	assert.True(t, cfg.ShouldRetry(New(ErrCodeStoreBusy, "busy", nil)))
	assert.False(t, cfg.ShouldRetry(StoreError("disk", nil)))
}
