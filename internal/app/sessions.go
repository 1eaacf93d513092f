package app

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"wordpoll/internal/auth"
	"wordpoll/internal/domain"
)

const (
	// DefaultSessionTTL is how long an idle session is kept
	DefaultSessionTTL = 12 * time.Hour

	// sessionCleanupInterval is how often idle sessions are swept
	sessionCleanupInterval = 10 * time.Minute
)

// Sessions tracks all participant and admin sessions
type Sessions struct {
	sessions map[string]*domain.Session
	mu       sync.RWMutex
	ttl      time.Duration
	logger   *slog.Logger
	done     chan struct{}
	once     sync.Once
}

// NewSessions creates a session registry and starts its cleanup loop
func NewSessions(ttl time.Duration, logger *slog.Logger) *Sessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	s := &Sessions{
		sessions: make(map[string]*domain.Session),
		ttl:      ttl,
		logger:   logger,
		done:     make(chan struct{}),
	}

	go s.cleanupLoop()

	return s
}

// Create registers a new session with a fresh ID
func (s *Sessions) Create() *domain.Session {
	session := domain.NewSession(uuid.New().String())

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	s.logger.Debug("session created", "sessionID", session.ID)

	return session
}

// Get returns a session by ID and marks it active
func (s *Sessions) Get(id string) (*domain.Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	session.Touch()
	return session, nil
}

// Delete removes a session
func (s *Sessions) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Count returns the number of live sessions
func (s *Sessions) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// AdminCount returns the number of sessions with admin access
func (s *Sessions) AdminCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, session := range s.sessions {
		if session.IsAdmin() {
			total++
		}
	}
	return total
}

// Close stops the cleanup loop and drops all sessions
func (s *Sessions) Close() {
	s.once.Do(func() { close(s.done) })

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[string]*domain.Session)
}

// cleanupLoop periodically removes idle sessions
func (s *Sessions) cleanupLoop() {
	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.cleanupIdle(time.Now())
		}
	}
}

// cleanupIdle removes sessions not seen since now minus the TTL
func (s *Sessions) cleanupIdle(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, session := range s.sessions {
		if now.Sub(session.LastSeen()) > s.ttl {
			delete(s.sessions, id)
			removed++
			s.logger.Info("idle session cleaned up", "sessionID", id)
		}
	}
	return removed
}

// FromToken resolves a signed session token to a live session of this poll
func (s *Sessions) FromToken(tokens *auth.TokenIssuer, pollID, token string) (*domain.Session, error) {
	if token == "" {
		return nil, domain.ErrInvalidToken
	}

	claims, err := tokens.Parse(token)
	if err != nil || claims.PollID != pollID {
		return nil, domain.ErrInvalidToken
	}

	return s.Get(claims.SessionID)
}
