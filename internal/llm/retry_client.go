package llm

import (
	"context"

	ariaerrors "aria/internal/errors"
	"aria/internal/logging"
)

// retryClient wraps a Client with bounded exponential-backoff retries for
// transient upstream failures. Permanent failures (401/403/400) pass through
// on the first attempt.
type retryClient struct {
	inner  Client
	config ariaerrors.RetryConfig
	logger logging.Logger
}

// NewRetryClient decorates inner with retry behavior. maxRetries <= 0 returns
// inner unchanged.
func NewRetryClient(inner Client, maxRetries int, logger logging.Logger) Client {
	if maxRetries <= 0 {
		return inner
	}
	config := ariaerrors.DefaultRetryConfig()
	config.MaxAttempts = maxRetries
	return &retryClient{
		inner:  inner,
		config: config,
		logger: logging.OrNop(logger),
	}
}

func (c *retryClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	return ariaerrors.RetryWithResult(ctx, c.config, c.logger, func(ctx context.Context) (*CompletionResponse, error) {
		return c.inner.Complete(ctx, req)
	})
}
