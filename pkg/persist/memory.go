package persist

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryBackend keeps the snapshot in memory. Values round-trip through
// JSON so callers observe the same decoding as with [FileBackend].
type MemoryBackend struct {
	mu    sync.Mutex
	snap  []byte
	queue []Op
	saves int

	// FailSave, when set, is returned by every Save.
	FailSave error
}

// NewMemoryBackend creates an empty memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

// Load returns the last saved snapshot.
func (m *MemoryBackend) Load(ctx context.Context) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snap == nil {
		return nil, nil
	}
	var s Snapshot
	if err := json.Unmarshal(m.snap, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Save stores a copy of s.
func (m *MemoryBackend) Save(ctx context.Context, s *Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSave != nil {
		return m.FailSave
	}
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	m.snap = data
	m.saves++
	return nil
}

// Saves returns how many snapshots have been written.
func (m *MemoryBackend) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// LoadQueue returns a copy of the sync queue.
func (m *MemoryBackend) LoadQueue(ctx context.Context) ([]Op, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Op(nil), m.queue...), nil
}

// SaveQueue replaces the sync queue.
func (m *MemoryBackend) SaveQueue(ctx context.Context, ops []Op) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append([]Op(nil), ops...)
	return nil
}

var _ Store = (*MemoryBackend)(nil)
