package domain

import (
	"sync"
	"time"
)

// Session is one participant's connection to the poll. A session becomes an
// admin session only through a successful credential check in the app layer.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu            sync.RWMutex
	authenticated bool
	viewAll       bool
	lastSeen      time.Time
}

// NewSession creates an unauthenticated session
func NewSession(id string) *Session {
	now := time.Now()
	return &Session{
		ID:        id,
		CreatedAt: now,
		lastSeen:  now,
	}
}

// IsAdmin returns true if the session passed the admin credential check
func (s *Session) IsAdmin() bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

// ViewAll returns the admin's view-all preference
func (s *Session) ViewAll() bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated && s.viewAll
}

// SetViewAll toggles the view-all preference (admin only)
func (s *Session) SetViewAll(enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.authenticated {
		return ErrUnauthorized
	}
	s.viewAll = enabled
	return nil
}

// Authenticate marks the session as admin
func (s *Session) Authenticate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authenticated = true
}

// Logout clears admin status and admin-only preferences
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authenticated = false
	s.viewAll = false
}

// Touch records activity on the session
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = time.Now()
}

// LastSeen returns when the session was last active
func (s *Session) LastSeen() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSeen
}

// SessionInfo is a safe view of session data
type SessionInfo struct {
	ID      string `json:"id"`
	IsAdmin bool   `json:"isAdmin"`
	ViewAll bool   `json:"viewAll"`
}

// ToInfo returns the public view of the session
func (s *Session) ToInfo() SessionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SessionInfo{
		ID:      s.ID,
		IsAdmin: s.authenticated,
		ViewAll: s.authenticated && s.viewAll,
	}
}
