package memory

import (
	"context"
	"sync"

	"math-worksheet-backend/internal/domain"
)

// SnapshotStore keeps snapshots in process memory. State does not survive a restart.
type SnapshotStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
	saves int
}

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{blobs: make(map[string][]byte)}
}

func (s *SnapshotStore) Save(_ context.Context, name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[name] = append([]byte(nil), data...)
	s.saves++
	return nil
}

func (s *SnapshotStore) Load(_ context.Context, name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[name]
	if !ok {
		return nil, domain.ErrSnapshotNotFound
	}
	return append([]byte(nil), data...), nil
}

// Saves reports how many writes reached the store.
func (s *SnapshotStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}
