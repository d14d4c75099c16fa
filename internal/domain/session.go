package domain

import (
	"sync"
	"time"
)

// Session carries the state that survives across loop iterations for the
// life of the process: the identity verification result and the working
// scale factor. It replaces what would otherwise be free-floating globals.
//
// The sampling loop and the publish worker both touch the session, so all
// accessors are mutex-guarded. Nothing in a Session is ever persisted;
// every boot starts unverified with the configured scale factor.
type Session struct {
	mu          sync.RWMutex
	verified    bool
	verifiedAt  time.Time
	scaleFactor float64
}

// NewSession creates an unverified session with the given scale factor.
func NewSession(scaleFactor float64) *Session {
	return &Session{scaleFactor: scaleFactor}
}

// Verified reports whether the dock identity has been confirmed and the
// result is still cached.
func (s *Session) Verified() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.verified
}

// MarkVerified caches a successful identity check.
func (s *Session) MarkVerified(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verified = true
	s.verifiedAt = at
}

// Invalidate clears the cached verification result. The next publish
// attempt will re-run the identity check.
func (s *Session) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verified = false
	s.verifiedAt = time.Time{}
}

// VerifiedAt returns when the identity check last succeeded, or the zero
// time if the session is unverified.
func (s *Session) VerifiedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.verifiedAt
}

// ScaleFactor returns the working calibration factor.
func (s *Session) ScaleFactor() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scaleFactor
}

// SetScaleFactor commits a new calibration factor.
func (s *Session) SetScaleFactor(f float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scaleFactor = f
}
