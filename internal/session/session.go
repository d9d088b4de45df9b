// Package session holds the per-connection authentication state the wire
// protocol stage tracks for each client: whether LOGIN has succeeded yet,
// and if so, which user the connection is acting as.
package session

import "sync"

// Session tracks one connection's authentication state. A zero Session is
// unauthenticated.
type Session struct {
	mu            sync.RWMutex
	authenticated bool
	userID        int64
	username      string
}

// New returns an unauthenticated Session.
func New() *Session {
	return &Session{}
}

// Authenticate marks the session authenticated as (userID, username),
// overwriting any prior authentication. LOGIN may be sent again on an
// already-authenticated connection to switch accounts.
func (s *Session) Authenticate(userID int64, username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authenticated = true
	s.userID = userID
	s.username = username
}

// Authenticated reports whether LOGIN has succeeded on this connection.
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

// User returns the authenticated user's ID and username. It returns false
// if the session has not authenticated yet.
func (s *Session) User() (userID int64, username string, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID, s.username, s.authenticated
}
