package pipeline

import (
	"sync"

	"aria/internal/intent"
	"aria/internal/logging"
	"aria/internal/speech"
)

// Manager owns the live sessions, one per session id. Lookups and creation
// are serialized so concurrent requests for the same id share one Session.
type Manager struct {
	transcriber speech.Transcriber
	classifier  intent.Classifier
	committer   *Committer
	logger      logging.Logger
	opts        []SessionOption

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager builds a session registry around the shared pipeline stages.
func NewManager(transcriber speech.Transcriber, classifier intent.Classifier, committer *Committer, logger logging.Logger, opts ...SessionOption) *Manager {
	return &Manager{
		transcriber: transcriber,
		classifier:  classifier,
		committer:   committer,
		logger:      logging.OrNop(logger),
		opts:        opts,
		sessions:    map[string]*Session{},
	}
}

// GetOrCreate returns the session for id, creating it on first use.
func (m *Manager) GetOrCreate(id, userID, language string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return s
	}
	s := NewSession(id, userID, language, m.transcriber, m.classifier, m.committer, m.logger, m.opts...)
	m.sessions[id] = s
	m.logger.Debug("session %s created for user %s", id, userID)
	return s
}

// Get returns the session for id if it exists.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Remove drops a session from the registry, cancelling any pending work.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		s.Cancel()
	}
}
