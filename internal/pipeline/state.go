package pipeline

import (
	"errors"
	"fmt"
	"time"

	"aria/internal/intent"
)

// State is the position of one voice interaction in its lifecycle.
type State string

const (
	StateIdle         State = "idle"
	StateListening    State = "listening"
	StateTranscribing State = "transcribing"
	StateParsing      State = "parsing"
	StateAwaiting     State = "awaiting_confirmation"
	StateCommitting   State = "committing"
	StateDone         State = "done"
)

// ErrBusy rejects a new utterance while an earlier one is still in flight or
// awaiting confirmation. One utterance at a time per session.
var ErrBusy = errors.New("session busy with a previous utterance")

// ErrNothingPending rejects confirm/cancel when no parsed intent is waiting.
var ErrNothingPending = errors.New("no intent awaiting confirmation")

// ErrNotListening rejects audio/text input when listening was never started.
var ErrNotListening = errors.New("session is not listening")

// InvalidTransitionError reports a state machine violation.
type InvalidTransitionError struct {
	From State
	To   State
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition %s -> %s", e.From, e.To)
}

// Event is one observed transition, streamed to subscribed clients.
type Event struct {
	SessionID string                `json:"sessionId"`
	State     State                 `json:"state"`
	Error     string                `json:"error,omitempty"`
	Intents   []intent.ParsedIntent `json:"intents,omitempty"`
	At        time.Time             `json:"at"`
}
