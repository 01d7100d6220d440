package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	ariaerrors "aria/internal/errors"
	"aria/internal/logging"
)

// WhisperClient talks to an OpenAI-compatible audio transcription endpoint.
type WhisperClient struct {
	baseURL    string
	apiKey     string
	model      string
	maxBytes   int64
	httpClient *http.Client
	retry      ariaerrors.RetryConfig
	logger     logging.Logger
}

// WhisperOption tweaks client construction.
type WhisperOption func(*WhisperClient)

// WithRetryConfig overrides the default retry policy.
func WithRetryConfig(config ariaerrors.RetryConfig) WhisperOption {
	return func(c *WhisperClient) {
		c.retry = config
	}
}

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(client *http.Client) WhisperOption {
	return func(c *WhisperClient) {
		c.httpClient = client
	}
}

// NewWhisperClient builds a transcription client. maxBytes bounds the decoded
// audio payload; oversized clips are rejected before any upstream call.
func NewWhisperClient(baseURL, apiKey, model string, maxBytes int64, timeout time.Duration, logger logging.Logger, opts ...WhisperOption) *WhisperClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if model == "" {
		model = "whisper-1"
	}
	client := &WhisperClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		maxBytes:   maxBytes,
		httpClient: &http.Client{Timeout: timeout},
		retry:      ariaerrors.DefaultRetryConfig(),
		logger:     logging.OrNop(logger),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Transcribe uploads the clip and returns the transcript. Transient upstream
// failures are retried with backoff; credential and validation failures are
// not.
func (c *WhisperClient) Transcribe(ctx context.Context, req Request) (Result, error) {
	if len(req.Audio) == 0 {
		return Result{}, NewError(CodeUnknown, fmt.Errorf("empty audio payload"))
	}
	if c.maxBytes > 0 && int64(len(req.Audio)) > c.maxBytes {
		return Result{}, NewError(CodePayloadTooLarge,
			fmt.Errorf("audio payload %d bytes exceeds limit %d", len(req.Audio), c.maxBytes))
	}

	result, err := ariaerrors.RetryWithResult(ctx, c.retry, c.logger, func(ctx context.Context) (Result, error) {
		return c.transcribeOnce(ctx, req)
	})
	if err != nil {
		return Result{}, wrapUpstream(err)
	}
	return result, nil
}

func (c *WhisperClient) transcribeOnce(ctx context.Context, req Request) (Result, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	filename := "audio." + req.Format
	if req.Format == "" {
		filename = "audio.m4a"
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return Result{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(req.Audio); err != nil {
		return Result{}, fmt.Errorf("write audio: %w", err)
	}
	_ = writer.WriteField("model", c.model)
	if req.Language != "" && req.Language != "auto" {
		_ = writer.WriteField("language", req.Language)
	}
	_ = writer.WriteField("response_format", "json")
	if err := writer.Close(); err != nil {
		return Result{}, err
	}

	endpoint := c.baseURL + "/audio/transcriptions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return Result{}, err
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	c.logger.Debug("POST %s bytes=%d lang=%s", endpoint, len(req.Audio), req.Language)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return Result{}, ariaerrors.Transient(fmt.Errorf("transcription request: %w", err), 0)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("transcription upstream status %d", resp.StatusCode)
		return Result{}, ariaerrors.FromHTTPStatus(resp.StatusCode,
			fmt.Errorf("transcription upstream returned %d", resp.StatusCode))
	}

	var decoded struct {
		Text     string `json:"text"`
		Language string `json:"language"`
	}
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return Result{}, fmt.Errorf("decode transcription response: %w", err)
	}

	return Result{
		Text:     strings.TrimSpace(decoded.Text),
		Language: decoded.Language,
	}, nil
}
