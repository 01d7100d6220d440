package speech

import "context"

// MockTranscriber implements Transcriber for tests with a fixed transcript or
// error.
type MockTranscriber struct {
	Text string
	Lang string
	Err  error

	LastRequest Request
	Calls       int
}

func (m *MockTranscriber) Transcribe(_ context.Context, req Request) (Result, error) {
	m.Calls++
	m.LastRequest = req
	if m.Err != nil {
		return Result{}, m.Err
	}
	return Result{Text: m.Text, Language: m.Lang}, nil
}
