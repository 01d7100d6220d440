package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ariaerrors "aria/internal/errors"
	"aria/internal/logging"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestCompleteReturnsContent(t *testing.T) {
	var gotAuth string
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")

		var req struct {
			Model    string    `json:"model"`
			Messages []Message `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		require.Len(t, req.Messages, 2)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "hello back"}, "finish_reason": "stop"},
			},
			"usage": map[string]any{"prompt_tokens": 12, "completion_tokens": 3},
		})
	})

	client := NewOpenAIClient(Config{BaseURL: server.URL, APIKey: "sk-test", Model: "test-model"}, 5*time.Second, logging.Nop())
	resp, err := client.Complete(context.Background(), CompletionRequest{
		Messages: []Message{
			{Role: "system", Content: "be brief"},
			{Role: "user", Content: "hi"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello back", resp.Content)
	assert.Equal(t, 12, resp.PromptTokens)
	assert.Equal(t, "Bearer sk-test", gotAuth)
}

func TestCompleteMapsUpstreamStatus(t *testing.T) {
	cases := []struct {
		status    int
		transient bool
	}{
		{http.StatusTooManyRequests, true},
		{http.StatusServiceUnavailable, true},
		{http.StatusUnauthorized, false},
		{http.StatusBadRequest, false},
	}
	for _, tc := range cases {
		server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		})
		client := NewOpenAIClient(Config{BaseURL: server.URL}, time.Second, logging.Nop())
		_, err := client.Complete(context.Background(), CompletionRequest{})
		require.Error(t, err, "status %d", tc.status)
		assert.Equal(t, tc.transient, ariaerrors.IsTransient(err), "status %d", tc.status)
		assert.Equal(t, tc.status, ariaerrors.StatusCode(err))
	}
}

func TestCompleteEmptyChoicesIsTransient(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	})
	client := NewOpenAIClient(Config{BaseURL: server.URL}, time.Second, logging.Nop())
	_, err := client.Complete(context.Background(), CompletionRequest{})
	require.Error(t, err)
	assert.True(t, ariaerrors.IsTransient(err))
}

func TestRetryClientRetriesTransient(t *testing.T) {
	attempts := 0
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "ok"}, "finish_reason": "stop"},
			},
		})
	})

	inner := NewOpenAIClient(Config{BaseURL: server.URL}, time.Second, logging.Nop())
	client := NewRetryClient(inner, 2, logging.Nop())

	resp, err := client.Complete(context.Background(), CompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, 2, attempts)
}

func TestMockClientScriptsReplies(t *testing.T) {
	mock := NewMockClient("first", "second")

	resp, err := mock.Complete(context.Background(), CompletionRequest{Messages: []Message{{Role: "user", Content: "a"}}})
	require.NoError(t, err)
	assert.Equal(t, "first", resp.Content)

	resp, _ = mock.Complete(context.Background(), CompletionRequest{})
	assert.Equal(t, "second", resp.Content)

	// Script exhausted: last reply repeats.
	resp, _ = mock.Complete(context.Background(), CompletionRequest{})
	assert.Equal(t, "second", resp.Content)

	assert.Len(t, mock.Calls(), 3)
}
