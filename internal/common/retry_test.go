package common

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/disputekit/disputekit/internal/service"
)

func fastRetryOpts() service.RetryOptions {
	return service.RetryOptions{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     10 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestWithRetrySucceedsFirstTry(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		return nil
	}, fastRetryOpts())

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetryRecoversAfterFailure(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return &RetryableError{Err: fmt.Errorf("transient"), Retryable: true}
		}
		return nil
	}, fastRetryOpts())

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetryExhaustsAttempts(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		return &RetryableError{Err: fmt.Errorf("still down"), Retryable: true}
	}, fastRetryOpts())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMaxRetries)
	assert.Equal(t, 3, calls)
}

func TestWithRetryStopsOnNonRetryable(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		return &RetryableError{Err: fmt.Errorf("bad request"), Retryable: false}
	}, fastRetryOpts())

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetryHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithRetry(ctx, func() error {
		return &RetryableError{Err: fmt.Errorf("transient"), Retryable: true}
	}, fastRetryOpts())

	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(ErrInvalidInput))
	assert.False(t, IsRetryable(ErrArtifactNotLoaded))
	assert.False(t, IsRetryable(ErrDimensionMismatch))
	assert.False(t, IsRetryable(fmt.Errorf("wrapped: %w", ErrDimensionMismatch)))

	assert.True(t, IsRetryable(ErrRateLimit))
	assert.True(t, IsRetryable(context.DeadlineExceeded))
	assert.True(t, IsRetryable(&RetryableError{Err: errors.New("x"), Retryable: true}))
	assert.False(t, IsRetryable(&RetryableError{Err: errors.New("x"), Retryable: false}))
	assert.False(t, IsRetryable(errors.New("plain")))
}

func TestRetryableErrorUnwrap(t *testing.T) {
	inner := errors.New("root cause")
	wrapped := &RetryableError{Err: inner, Retryable: true}

	assert.Equal(t, "root cause", wrapped.Error())
	assert.ErrorIs(t, wrapped, inner)
}
