package speech

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ariaerrors "aria/internal/errors"
	"aria/internal/llm"
	"aria/internal/logging"
)

func fastRetry() ariaerrors.RetryConfig {
	return ariaerrors.RetryConfig{MaxAttempts: 1, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}
}

func TestWhisperClientTranscribes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		assert.Equal(t, "en", r.FormValue("language"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer func() { _ = file.Close() }()
		assert.Equal(t, "audio.wav", header.Filename)

		_ = json.NewEncoder(w).Encode(map[string]string{"text": " buy milk tomorrow at noon ", "language": "en"})
	}))
	defer server.Close()

	client := NewWhisperClient(server.URL, "sk-test", "whisper-1", 1<<20, time.Second, logging.Nop())
	result, err := client.Transcribe(context.Background(), Request{
		Audio:    []byte("fake-wav-bytes"),
		Format:   "wav",
		Language: "en",
	})
	require.NoError(t, err)
	assert.Equal(t, "buy milk tomorrow at noon", result.Text)
	assert.Equal(t, "en", result.Language)
}

func TestWhisperClientRejectsOversizedPayload(t *testing.T) {
	client := NewWhisperClient("http://unused", "", "", 8, time.Second, logging.Nop())
	_, err := client.Transcribe(context.Background(), Request{Audio: make([]byte, 64)})
	require.Error(t, err)
	assert.Equal(t, CodePayloadTooLarge, CodeOf(err))
}

func TestWhisperClientMapsUpstreamCodes(t *testing.T) {
	cases := []struct {
		status int
		code   Code
	}{
		{http.StatusUnauthorized, CodeInvalidCredentials},
		{http.StatusForbidden, CodeInvalidCredentials},
		{http.StatusTooManyRequests, CodeRateLimited},
		{http.StatusServiceUnavailable, CodeServiceUnavailable},
		{http.StatusTeapot, CodeUnknown},
	}
	for _, tc := range cases {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))
		client := NewWhisperClient(server.URL, "", "", 1<<20, time.Second, logging.Nop(),
			WithRetryConfig(fastRetry()))
		_, err := client.Transcribe(context.Background(), Request{Audio: []byte("x")})
		server.Close()
		require.Error(t, err, "status %d", tc.status)
		assert.Equal(t, tc.code, CodeOf(err), "status %d", tc.status)
	}
}

func TestWhisperClientRetriesTransientOnly(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"text": "ok"})
	}))
	defer server.Close()

	client := NewWhisperClient(server.URL, "", "", 1<<20, time.Second, logging.Nop(),
		WithRetryConfig(ariaerrors.RetryConfig{MaxAttempts: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}))
	result, err := client.Transcribe(context.Background(), Request{Audio: []byte("x")})
	require.NoError(t, err)
	assert.Equal(t, "ok", result.Text)
	assert.Equal(t, 2, attempts)

	// 401 must not be retried.
	attempts = 0
	denied := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer denied.Close()
	client = NewWhisperClient(denied.URL, "", "", 1<<20, time.Second, logging.Nop(),
		WithRetryConfig(ariaerrors.RetryConfig{MaxAttempts: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}))
	_, err = client.Transcribe(context.Background(), Request{Audio: []byte("x")})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestServiceTranslates(t *testing.T) {
	transcriber := &MockTranscriber{Text: "买牛奶", Lang: "zh"}
	translator := llm.NewMockClient("buy milk")
	service := NewService(transcriber, translator, logging.Nop())

	result, err := service.Transcribe(context.Background(), Request{
		Audio:          []byte("x"),
		TargetLanguage: "en",
	})
	require.NoError(t, err)
	assert.Equal(t, "buy milk", result.Text)
	assert.Equal(t, "买牛奶", result.Original)
	assert.True(t, result.Translated)
	assert.Equal(t, "en", result.Language)
}

func TestServiceTranslationFailureDegradesGracefully(t *testing.T) {
	transcriber := &MockTranscriber{Text: "buy milk", Lang: "en"}
	translator := llm.NewMockClient()
	translator.Err = errors.New("translator down")
	service := NewService(transcriber, translator, logging.Nop())

	result, err := service.Transcribe(context.Background(), Request{
		Audio:          []byte("x"),
		TargetLanguage: "zh",
	})
	require.NoError(t, err)
	assert.Equal(t, "buy milk", result.Text)
	assert.False(t, result.Translated)
	assert.Empty(t, result.Original)
}

func TestServicePropagatesTranscriptionFailure(t *testing.T) {
	transcriber := &MockTranscriber{Err: NewError(CodeServiceUnavailable, errors.New("down"))}
	service := NewService(transcriber, nil, logging.Nop())

	_, err := service.Transcribe(context.Background(), Request{Audio: []byte("x")})
	require.Error(t, err)
	assert.Equal(t, CodeServiceUnavailable, CodeOf(err))
}
