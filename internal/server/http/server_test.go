package httpserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aria/internal/config"
	ariaerrors "aria/internal/errors"
	"aria/internal/intent"
	"aria/internal/pipeline"
	"aria/internal/speech"
	"aria/internal/store"
)

type stubClassifier struct {
	result intent.Result
	err    error
	last   intent.ParseContext
}

func (s *stubClassifier) Parse(_ context.Context, text string, parseCtx intent.ParseContext) (intent.Result, error) {
	s.last = parseCtx
	if s.err != nil {
		return intent.Result{}, s.err
	}
	if s.result.SourceText() == "" && s.result.Empty() {
		return intent.None(text), nil
	}
	return s.result, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:         "127.0.0.1",
			Port:         8080,
			EnableCORS:   true,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
		},
		Auth: config.AuthConfig{
			Tokens:     []string{"alice-token", "bob-token"},
			GuestToken: "guest",
		},
		Speech: config.SpeechConfig{Timeout: 5 * time.Second, MaxAudioBytes: 1 << 20},
		LLM:    config.LLMConfig{Timeout: 5 * time.Second},
	}
}

type serverFixture struct {
	server      *Server
	memory      *store.Memory
	classifier  *stubClassifier
	transcriber *speech.MockTranscriber
}

func newFixture(t *testing.T) *serverFixture {
	t.Helper()
	memory := store.NewMemory()
	classifier := &stubClassifier{}
	transcriber := &speech.MockTranscriber{Text: "buy milk tomorrow", Lang: "en"}
	stores := memory.Stores()
	cfg := testConfig()
	deps := Dependencies{
		Speech:     transcriber,
		Classifier: classifier,
		Stores:     stores,
		Sessions:   pipeline.NewManager(transcriber, classifier, pipeline.NewCommitter(stores), nil),
		Clock: func() time.Time {
			return time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
		},
	}
	return &serverFixture{
		server:      New(cfg, deps),
		memory:      memory,
		classifier:  classifier,
		transcriber: transcriber,
	}
}

func (f *serverFixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestAuthRejectsMissingAndUnknownTokens(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/todos", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", decodeBody(t, rec)["code"])

	rec = f.do(t, http.MethodGet, "/api/todos", "nobody", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthAcceptsGuestToken(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/todos", "guest", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthNeedsNoAuth(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
}

func TestTranscribe(t *testing.T) {
	f := newFixture(t)
	audio := base64.StdEncoding.EncodeToString([]byte("pcm-bytes"))

	rec := f.do(t, http.MethodPost, "/api/voice/transcribe", "alice-token", map[string]any{
		"audio": audio, "format": "wav", "targetLanguage": "en",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "buy milk tomorrow", body["text"])
	assert.Equal(t, []byte("pcm-bytes"), f.transcriber.LastRequest.Audio)
	assert.Equal(t, "en", f.transcriber.LastRequest.TargetLanguage)
}

func TestTranscribeRejectsBadBase64(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/voice/transcribe", "alice-token", map[string]any{
		"audio": "not base64!!!",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTranscribeSurfacesTypedCodes(t *testing.T) {
	f := newFixture(t)
	f.transcriber.Err = speech.NewError(speech.CodeRateLimited, errors.New("429 from provider"))

	audio := base64.StdEncoding.EncodeToString([]byte("pcm"))
	rec := f.do(t, http.MethodPost, "/api/voice/transcribe", "alice-token", map[string]any{"audio": audio})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "RATE_LIMITED", body["code"])
	assert.NotEmpty(t, body["error"])
}

func TestParseSingleIntent(t *testing.T) {
	f := newFixture(t)
	f.classifier.result = intent.Single(intent.ParsedIntent{
		Kind:       intent.KindCreateTodo,
		Confidence: 0.93,
		SourceText: "buy milk tomorrow",
		Todo:       &intent.TodoFields{Title: "buy milk", DueDate: "2025-06-11"},
	})

	rec := f.do(t, http.MethodPost, "/api/voice/parse", "alice-token", map[string]any{"text": "buy milk tomorrow"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "create_todo", body["type"])
	assert.Equal(t, "buy milk tomorrow", body["originalText"])
	data := body["data"].(map[string]any)
	assert.Equal(t, "buy milk", data["title"])
	assert.Equal(t, "2025-06-11", data["dueDate"])

	// The injected clock is the default reference date.
	assert.Equal(t, time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC), f.classifier.last.ReferenceDate)
}

func TestParseBatch(t *testing.T) {
	f := newFixture(t)
	f.classifier.result = intent.Batch("buy milk and call mom", []intent.ParsedIntent{
		{Kind: intent.KindCreateTodo, SourceText: "buy milk", Todo: &intent.TodoFields{Title: "buy milk"}},
		{Kind: intent.KindCreateTodo, SourceText: "call mom", Todo: &intent.TodoFields{Title: "call mom"}},
	})

	rec := f.do(t, http.MethodPost, "/api/voice/parse", "alice-token", map[string]any{"text": "buy milk and call mom"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	actions := body["actions"].([]any)
	require.Len(t, actions, 2)
	first := actions[0].(map[string]any)
	assert.Equal(t, "buy milk", first["originalText"])
	assert.NotEmpty(t, body["message"])
}

func TestParseNothingActionable(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/voice/parse", "alice-token", map[string]any{"text": "thank you"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "unknown", body["type"])
	assert.Equal(t, "thank you", body["originalText"])
}

func TestParseRejectsBadReferenceDate(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/voice/parse", "alice-token", map[string]any{
		"text": "buy milk", "referenceDate": "June 11",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestParseUpstreamFailure(t *testing.T) {
	f := newFixture(t)
	f.classifier.err = errors.New("model exploded")
	rec := f.do(t, http.MethodPost, "/api/voice/parse", "alice-token", map[string]any{"text": "buy milk"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestParseTransientUpstreamFailureIs500(t *testing.T) {
	f := newFixture(t)
	f.classifier.err = ariaerrors.Transient(errors.New("rate limited"), 429)
	rec := f.do(t, http.MethodPost, "/api/voice/parse", "alice-token", map[string]any{"text": "buy milk"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "error")
}

func TestTodoCRUDAndUserScoping(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/todos", "alice-token", map[string]any{
		"title": "buy milk", "priority": "high", "dueDate": "2025-06-11",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody(t, rec)
	id := created["id"].(string)
	require.NotEmpty(t, id)

	// Owner reads it back.
	rec = f.do(t, http.MethodGet, "/api/todos/"+id, "alice-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "buy milk", decodeBody(t, rec)["title"])

	// Another user cannot see it.
	rec = f.do(t, http.MethodGet, "/api/todos/"+id, "bob-token", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = f.do(t, http.MethodGet, "/api/todos", "bob-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody(t, rec)["todos"])

	// Update and delete.
	rec = f.do(t, http.MethodPut, "/api/todos/"+id, "alice-token", map[string]any{
		"title": "buy oat milk", "completed": true,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = f.do(t, http.MethodGet, "/api/todos/"+id, "alice-token", nil)
	body := decodeBody(t, rec)
	assert.Equal(t, "buy oat milk", body["title"])
	assert.Equal(t, true, body["completed"])

	rec = f.do(t, http.MethodDelete, "/api/todos/"+id, "alice-token", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = f.do(t, http.MethodGet, "/api/todos/"+id, "alice-token", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTodoCreateRequiresTitle(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/todos", "alice-token", map[string]any{"priority": "low"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExpenseCreateRejectsNegativeAmount(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/expenses", "alice-token", map[string]any{
		"amount": "-15", "currency": "USD",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExpenseRoundTripKeepsAmountExact(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/expenses", "alice-token", map[string]any{
		"amount": "15.10", "currency": "USD", "category": "food",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeBody(t, rec)["id"].(string)

	rec = f.do(t, http.MethodGet, "/api/expenses/"+id, "alice-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "15.1", decodeBody(t, rec)["amount"])
}

func TestEventCreateRequiresTitleAndDate(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/events", "alice-token", map[string]any{"title": "standup"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/events", "alice-token", map[string]any{
		"title": "standup", "date": "2025-06-11", "startTime": "09:30",
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
}
