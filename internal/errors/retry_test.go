package errors

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aria/internal/logging"
)

func fastRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  2,
		BaseDelay:    time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		JitterFactor: 0,
	}
}

func TestRetryTransientEventuallySucceeds(t *testing.T) {
	attempts := 0
	result, err := RetryWithResult(context.Background(), fastRetryConfig(), logging.Nop(), func(ctx context.Context) (string, error) {
		attempts++
		if attempts < 3 {
			return "", Transient(stderrors.New("upstream hiccup"), 503)
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, attempts)
}

func TestRetryPermanentDoesNotRetry(t *testing.T) {
	attempts := 0
	_, err := RetryWithResult(context.Background(), fastRetryConfig(), logging.Nop(), func(ctx context.Context) (string, error) {
		attempts++
		return "", Permanent(stderrors.New("bad credentials"), 401)
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRetryExhaustsAttempts(t *testing.T) {
	attempts := 0
	_, err := RetryWithResult(context.Background(), fastRetryConfig(), logging.Nop(), func(ctx context.Context) (int, error) {
		attempts++
		return 0, Transient(stderrors.New("still down"), 500)
	})
	require.Error(t, err)
	assert.Equal(t, 3, attempts) // initial attempt + MaxAttempts retries
	assert.Contains(t, err.Error(), "max retries exceeded")
}

func TestRetryHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Retry(ctx, fastRetryConfig(), logging.Nop(), func(ctx context.Context) error {
		t.Fatal("fn should not run after cancellation")
		return nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsTransientClassification(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.True(t, IsTransient(Transient(stderrors.New("x"), 0)))
	assert.False(t, IsTransient(Permanent(stderrors.New("x"), 0)))
	assert.True(t, IsTransient(FromHTTPStatus(429, stderrors.New("limited"))))
	assert.True(t, IsTransient(FromHTTPStatus(503, stderrors.New("down"))))
	assert.False(t, IsTransient(FromHTTPStatus(400, stderrors.New("bad"))))
	assert.False(t, IsTransient(FromHTTPStatus(401, stderrors.New("denied"))))
	assert.False(t, IsTransient(context.DeadlineExceeded))
}

func TestStatusCodeExtraction(t *testing.T) {
	assert.Equal(t, 503, StatusCode(FromHTTPStatus(503, stderrors.New("down"))))
	assert.Equal(t, 403, StatusCode(FromHTTPStatus(403, stderrors.New("no"))))
	assert.Equal(t, 0, StatusCode(stderrors.New("plain")))
}

func TestDegradedErrorCarriesFallback(t *testing.T) {
	err := &DegradedError{Err: stderrors.New("translate failed"), Fallback: "hello"}
	assert.True(t, IsDegraded(err))

	var degraded *DegradedError
	require.True(t, stderrors.As(err, &degraded))
	assert.Equal(t, "hello", degraded.Fallback)
}
