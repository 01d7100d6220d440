package llm

import (
	"context"
	"sync"
)

// MockClient implements Client for tests. Replies are returned in order; the
// last reply repeats once the script is exhausted. Err, when set, is returned
// for every call instead.
type MockClient struct {
	mu      sync.Mutex
	Replies []string
	Err     error

	calls []CompletionRequest
}

// NewMockClient returns a mock that answers every call with the given replies.
func NewMockClient(replies ...string) *MockClient {
	return &MockClient{Replies: replies}
}

func (m *MockClient) Complete(_ context.Context, req CompletionRequest) (*CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, req)
	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.Replies) == 0 {
		return &CompletionResponse{Content: "", FinishReason: "stop"}, nil
	}
	idx := len(m.calls) - 1
	if idx >= len(m.Replies) {
		idx = len(m.Replies) - 1
	}
	return &CompletionResponse{Content: m.Replies[idx], FinishReason: "stop"}, nil
}

// Calls returns a copy of every request seen so far.
func (m *MockClient) Calls() []CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]CompletionRequest, len(m.calls))
	copy(out, m.calls)
	return out
}
