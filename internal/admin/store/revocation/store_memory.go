package revocation

import (
	"context"
	"sync"
	"time"
)

// MemoryTRL is an in-memory revocation list for tests and single-instance
// deployments. Expired entries are pruned lazily on read.
type MemoryTRL struct {
	mu      sync.RWMutex
	revoked map[string]time.Time
	now     func() time.Time
}

func NewMemoryTRL() *MemoryTRL {
	return &MemoryTRL{
		revoked: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (t *MemoryTRL) RevokeToken(_ context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.revoked[jti] = t.now().Add(ttl)
	return nil
}

func (t *MemoryTRL) IsRevoked(_ context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	expiry, ok := t.revoked[jti]
	if !ok {
		return false, nil
	}
	if t.now().After(expiry) {
		delete(t.revoked, jti)
		return false, nil
	}
	return true, nil
}
