package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"aria/internal/intent"
	"aria/internal/logging"
	"aria/internal/speech"
)

// Config bounds the pipeline's upstream calls.
type Config struct {
	TranscribeTimeout time.Duration
	ParseTimeout      time.Duration
}

// DefaultConfig bounds upstream calls: transcription may take
// up to 30s, parsing up to 15s.
func DefaultConfig() Config {
	return Config{
		TranscribeTimeout: 30 * time.Second,
		ParseTimeout:      15 * time.Second,
	}
}

// Session drives one user's voice interaction through the state machine:
//
//	idle -> listening -> (transcribing) -> parsing -> awaiting_confirmation
//	     -> committing -> done -> idle, or back to idle on cancel/error.
//
// A session admits one utterance at a time: StartListening fails with ErrBusy
// while an earlier utterance is still in flight or awaiting confirmation.
// Every ParsedIntent is owned by its session until committed or discarded and
// is never persisted itself.
type Session struct {
	id          string
	userID      string
	language    string
	transcriber speech.Transcriber
	classifier  intent.Classifier
	committer   *Committer
	config      Config
	logger      logging.Logger
	clock       func() time.Time

	mu             sync.Mutex
	state          State
	pending        []intent.ParsedIntent
	nextCommit     int
	committed      []CommitRecord
	transcript     string
	cancelInFlight context.CancelFunc

	subscribers map[int]chan Event
	nextSubID   int
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithClock injects the time source used for reference dates. Tests pin it.
func WithClock(clock func() time.Time) SessionOption {
	return func(s *Session) { s.clock = clock }
}

// WithConfig overrides the upstream timeouts.
func WithConfig(config Config) SessionOption {
	return func(s *Session) { s.config = config }
}

// NewSession builds a session for one user. transcriber may be nil when only
// the text path is used (web clients transcribe in the browser).
func NewSession(id, userID, language string, transcriber speech.Transcriber, classifier intent.Classifier, committer *Committer, logger logging.Logger, opts ...SessionOption) *Session {
	s := &Session{
		id:          id,
		userID:      userID,
		language:    language,
		transcriber: transcriber,
		classifier:  classifier,
		committer:   committer,
		config:      DefaultConfig(),
		logger:      logging.OrNop(logger),
		clock:       time.Now,
		state:       StateIdle,
		subscribers: map[int]chan Event{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Pending returns the intents awaiting confirmation, in mention order. After
// a partially failed commit only the uncommitted tail remains.
func (s *Session) Pending() []intent.ParsedIntent {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nextCommit >= len(s.pending) {
		return nil
	}
	out := make([]intent.ParsedIntent, len(s.pending)-s.nextCommit)
	copy(out, s.pending[s.nextCommit:])
	return out
}

// Transcript returns the last transcript seen, kept so a failed parse never
// forces the user to repeat themselves.
func (s *Session) Transcript() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript
}

// StartListening arms the session for a new utterance.
func (s *Session) StartListening() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateIdle, StateDone:
		s.setStateLocked(StateListening, "", nil)
		return nil
	default:
		return ErrBusy
	}
}

// ProcessText takes the utterance text (web clients transcribe locally) and
// runs the parse stage. On an actionable result the session moves to
// awaiting_confirmation; otherwise it returns to idle with the transcript
// preserved.
func (s *Session) ProcessText(ctx context.Context, text string) (intent.Result, error) {
	if err := s.beginStage(StateListening, StateParsing, text); err != nil {
		return intent.Result{}, err
	}
	return s.parse(ctx, text)
}

// ProcessAudio takes a recorded clip (mobile clients), transcribes it, then
// parses the transcript.
func (s *Session) ProcessAudio(ctx context.Context, req speech.Request) (intent.Result, error) {
	if s.transcriber == nil {
		s.failToIdle("no transcriber configured")
		return intent.Result{}, fmt.Errorf("session has no transcriber")
	}
	if err := s.beginStage(StateListening, StateTranscribing, ""); err != nil {
		return intent.Result{}, err
	}

	callCtx, cancel := context.WithTimeout(ctx, s.config.TranscribeTimeout)
	s.setCancel(cancel)
	transcribed, err := s.transcriber.Transcribe(callCtx, req)
	s.clearCancel()
	cancel()
	if err != nil {
		s.failToIdle(fmt.Sprintf("transcription failed: %v", err))
		return intent.Result{}, err
	}

	s.mu.Lock()
	if s.state != StateTranscribing {
		// Cancelled while transcribing.
		s.mu.Unlock()
		return intent.Result{}, context.Canceled
	}
	s.transcript = transcribed.Text
	s.setStateLocked(StateParsing, "", nil)
	s.mu.Unlock()

	return s.parse(ctx, transcribed.Text)
}

// parse runs the classifier and settles the session into awaiting or idle.
func (s *Session) parse(ctx context.Context, text string) (intent.Result, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.config.ParseTimeout)
	s.setCancel(cancel)
	result, err := s.classifier.Parse(callCtx, text, intent.ParseContext{
		ReferenceDate: s.clock(),
		Language:      s.language,
	})
	s.clearCancel()
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateParsing {
		// Cancelled while parsing; result is discarded.
		return intent.Result{}, context.Canceled
	}
	if err != nil {
		s.setStateLocked(StateIdle, fmt.Sprintf("parse failed: %v", err), nil)
		return intent.Result{}, err
	}
	if result.Empty() {
		s.setStateLocked(StateIdle, "no actionable intent found", nil)
		return result, nil
	}

	s.pending = result.All()
	s.nextCommit = 0
	s.committed = nil
	s.setStateLocked(StateAwaiting, "", s.pending)
	return result, nil
}

// Confirm commits every pending intent in order. On success the machine runs
// through committing and done back to idle; exactly one commit happens per
// confirmation, so a double-confirm finds the session already out of
// awaiting_confirmation and fails without a second write. A persistence
// failure keeps the session in awaiting_confirmation with the already
// committed prefix recorded, so a retry only commits what is left.
func (s *Session) Confirm(ctx context.Context) ([]CommitRecord, error) {
	s.mu.Lock()
	if s.state != StateAwaiting {
		state := s.state
		s.mu.Unlock()
		if state == StateCommitting {
			return nil, &InvalidTransitionError{From: state, To: StateCommitting}
		}
		return nil, ErrNothingPending
	}
	s.setStateLocked(StateCommitting, "", nil)
	pending := s.pending
	start := s.nextCommit
	s.mu.Unlock()

	for i := start; i < len(pending); i++ {
		record, err := s.committer.Commit(ctx, s.userID, pending[i])
		if err != nil {
			s.mu.Lock()
			s.nextCommit = i
			s.setStateLocked(StateAwaiting, fmt.Sprintf("commit failed: %v", err), s.pending[i:])
			s.mu.Unlock()
			return nil, err
		}
		s.mu.Lock()
		s.committed = append(s.committed, record)
		s.nextCommit = i + 1
		s.mu.Unlock()
	}

	s.mu.Lock()
	records := s.committed
	s.pending = nil
	s.committed = nil
	s.nextCommit = 0
	s.setStateLocked(StateDone, "", nil)
	s.setStateLocked(StateIdle, "", nil)
	s.mu.Unlock()
	return records, nil
}

// Cancel discards whatever the session is doing. A pending confirmation is
// dropped without persistence; an in-flight transcription or parse is aborted
// via its context.
func (s *Session) Cancel() {
	s.mu.Lock()
	cancel := s.cancelInFlight
	s.cancelInFlight = nil
	switch s.state {
	case StateIdle, StateDone, StateCommitting:
		// Writes already in flight are not interruptible.
		s.mu.Unlock()
		return
	default:
		s.pending = nil
		s.nextCommit = 0
		s.setStateLocked(StateIdle, "cancelled", nil)
	}
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Subscribe returns a channel of state transitions and an unsubscribe
// function. Slow subscribers drop events rather than blocking the machine.
func (s *Session) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSubID
	s.nextSubID++
	ch := make(chan Event, 16)
	s.subscribers[id] = ch
	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if existing, ok := s.subscribers[id]; ok {
			delete(s.subscribers, id)
			close(existing)
		}
	}
}

func (s *Session) beginStage(from, to State, transcript string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != from {
		if s.state == StateIdle || s.state == StateDone {
			return ErrNotListening
		}
		return ErrBusy
	}
	if transcript != "" {
		s.transcript = transcript
	}
	s.setStateLocked(to, "", nil)
	return nil
}

func (s *Session) failToIdle(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateIdle {
		return
	}
	s.setStateLocked(StateIdle, message, nil)
}

func (s *Session) setCancel(cancel context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelInFlight = cancel
}

func (s *Session) clearCancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelInFlight = nil
}

// setStateLocked transitions and fans the event out. Callers hold s.mu.
func (s *Session) setStateLocked(to State, errMsg string, intents []intent.ParsedIntent) {
	s.state = to
	event := Event{
		SessionID: s.id,
		State:     to,
		Error:     errMsg,
		Intents:   intents,
		At:        s.clock(),
	}
	if errMsg != "" {
		s.logger.Warn("session %s -> %s: %s", s.id, to, errMsg)
	} else {
		s.logger.Debug("session %s -> %s", s.id, to)
	}
	for _, ch := range s.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}
