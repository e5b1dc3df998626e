package notify

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// LogStore records delivery attempts for audit and staff review.
type LogStore interface {
	Append(ctx context.Context, entry LogEntry) error
	// ListByApplication returns entries for one application, newest first.
	ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]LogEntry, error)
}

// MemoryLogStore keeps entries in memory. Test and single-process use only.
type MemoryLogStore struct {
	mu      sync.RWMutex
	entries []LogEntry
}

func NewMemoryLogStore() *MemoryLogStore {
	return &MemoryLogStore{}
}

func (s *MemoryLogStore) Append(_ context.Context, entry LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *MemoryLogStore) ListByApplication(_ context.Context, applicationID uuid.UUID) ([]LogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []LogEntry
	for _, e := range s.entries {
		if e.ApplicationID == applicationID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
