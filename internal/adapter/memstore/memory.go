package memstore

import (
	"maps"
	"slices"
	"sync"

	"ragqa/internal/domain"
	"ragqa/internal/port"
)

// MemoryStore keeps the last saved snapshot in process memory. It backs
// ephemeral indexes (index.path ":memory:") and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	snap  port.IndexSnapshot
	saved bool
	saves int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Save(snap port.IndexSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = cloneSnapshot(snap)
	s.saved = true
	s.saves++
	return nil
}

func (s *MemoryStore) Load() (port.IndexSnapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.saved {
		return port.IndexSnapshot{}, false, nil
	}
	return cloneSnapshot(s.snap), true, nil
}

// Saves returns how many snapshots have been written.
func (s *MemoryStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

func cloneSnapshot(snap port.IndexSnapshot) port.IndexSnapshot {
	out := snap
	out.Segments = make([]domain.Segment, len(snap.Segments))
	for i, seg := range snap.Segments {
		seg.Metadata = maps.Clone(seg.Metadata)
		seg.Embedding = slices.Clone(seg.Embedding)
		out.Segments[i] = seg
	}
	return out
}
