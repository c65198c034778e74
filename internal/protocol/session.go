package protocol

import (
	"log/slog"
	"sync"

	"github.com/efreitasn/fixtrader/internal/domain"
)

// Session is the handle through which outbound messages reach the
// counterparty. Implementations own delivery; Send returns an error
// only when the message could not be handed to the session.
type Session interface {
	Send(msg Message) error
}

// Submitter is the outbound surface the trading core depends on.
// SessionManager is the production implementation.
type Submitter interface {
	Submit(msg Message) error
}

// SessionManager tracks the currently usable session through the
// session-lifecycle callbacks of the surrounding session engine and
// addresses all outbound messages to it. It is safe for concurrent
// use: lifecycle callbacks arrive on the engine's threads while
// Submit is called from the generation loops.
type SessionManager struct {
	mu      sync.RWMutex
	session Session
	id      string
	logger  *slog.Logger
}

// NewSessionManager creates a SessionManager with no active session.
func NewSessionManager(logger *slog.Logger) *SessionManager {
	return &SessionManager{logger: logger}
}

// SessionCreated is invoked when a session is configured, before
// logon. No session becomes usable yet.
func (sm *SessionManager) SessionCreated(id string) {
	sm.logger.Debug("session created", slog.String("session_id", id))
}

// Logon captures the session as the active outbound target.
func (sm *SessionManager) Logon(id string, session Session) {
	sm.mu.Lock()
	sm.session = session
	sm.id = id
	sm.mu.Unlock()
	sm.logger.Info("logged on", slog.String("session_id", id))
}

// Logout clears the active session. Outbound submissions fail with
// domain.ErrSessionUnavailable until the next logon.
func (sm *SessionManager) Logout(id string) {
	sm.mu.Lock()
	if sm.id == id {
		sm.session = nil
		sm.id = ""
	}
	sm.mu.Unlock()
	sm.logger.Info("logged out", slog.String("session_id", id))
}

// Active reports whether a session is currently usable.
func (sm *SessionManager) Active() bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.session != nil
}

// Submit sends msg to the active session. It returns
// domain.ErrSessionUnavailable when no session is logged on; callers
// in the generation loops log and continue, since a later attempt may
// succeed after logon.
func (sm *SessionManager) Submit(msg Message) error {
	sm.mu.RLock()
	session := sm.session
	sm.mu.RUnlock()

	if session == nil {
		return domain.ErrSessionUnavailable
	}
	return session.Send(msg)
}
