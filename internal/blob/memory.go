package blob

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"posintake/pkg/platform/sentinel"
)

// Memory keeps payloads in a map. Test and single-process use only.
type Memory struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{blobs: make(map[string][]byte)}
}

func (m *Memory) Store(_ context.Context, data []byte, _, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	locator := uuid.NewString()
	buf := make([]byte, len(data))
	copy(buf, data)
	m.blobs[locator] = buf
	return locator, nil
}

func (m *Memory) Fetch(_ context.Context, locator string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.blobs[locator]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Len reports the number of stored blobs.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.blobs)
}
