// Package lockout throttles staff login attempts. Failures are counted
// per (email, ip) in a sliding window; crossing the threshold hard-locks
// the pair for the lock duration.
package lockout

import (
	"context"
	"sync"
	"time"

	dErrors "posintake/pkg/domain-errors"
)

const (
	DefaultAttempts     = 5
	DefaultWindow       = 15 * time.Minute
	DefaultLockDuration = 15 * time.Minute
)

type record struct {
	failures    int
	firstAt     time.Time
	lockedUntil time.Time
}

// Service tracks login failures in memory. State is per instance; a
// multi-instance deployment locks out per node, which still bounds the
// aggregate attempt rate.
type Service struct {
	mu           sync.Mutex
	records      map[string]*record
	attempts     int
	window       time.Duration
	lockDuration time.Duration
	now          func() time.Time
}

func New() *Service {
	return &Service{
		records:      make(map[string]*record),
		attempts:     DefaultAttempts,
		window:       DefaultWindow,
		lockDuration: DefaultLockDuration,
		now:          time.Now,
	}
}

func key(email, ip string) string { return email + "|" + ip }

func errLocked() error {
	return dErrors.New(dErrors.CodeForbidden, "too many failed attempts, try again later")
}

// Check reports whether a login attempt for the pair is currently allowed.
func (s *Service) Check(_ context.Context, email, ip string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key(email, ip)]
	if !ok {
		return nil
	}
	now := s.now()
	if now.Before(rec.lockedUntil) {
		return errLocked()
	}
	if now.Sub(rec.firstAt) > s.window {
		delete(s.records, key(email, ip))
		return nil
	}
	if rec.failures >= s.attempts {
		return errLocked()
	}
	return nil
}

// RecordFailure counts one failed attempt and applies the hard lock when
// the threshold is reached.
func (s *Service) RecordFailure(_ context.Context, email, ip string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	k := key(email, ip)
	rec, ok := s.records[k]
	if !ok || now.Sub(rec.firstAt) > s.window {
		rec = &record{firstAt: now}
		s.records[k] = rec
	}
	rec.failures++
	if rec.failures >= s.attempts {
		rec.lockedUntil = now.Add(s.lockDuration)
	}
}

// Clear forgets the pair after a successful login.
func (s *Service) Clear(_ context.Context, email, ip string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key(email, ip))
}
