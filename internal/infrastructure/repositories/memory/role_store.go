package memory

import (
	"context"
	"sync"

	"chatpulse/internal/core/domain"
	"chatpulse/internal/core/ports"
)

type roleKey struct {
	identity domain.Identity
	streamer domain.StreamerID
}

// MemoryRoleStore is the in-process role record cache used for tests
// and single-node development.
type MemoryRoleStore struct {
	mu      sync.RWMutex
	records map[roleKey]domain.RoleRecord
}

func NewMemoryRoleStore() ports.RoleStore {
	return &MemoryRoleStore{
		records: make(map[roleKey]domain.RoleRecord),
	}
}

func (s *MemoryRoleStore) Get(ctx context.Context, identity domain.Identity, streamer domain.StreamerID) (*domain.RoleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, exists := s.records[roleKey{identity: identity, streamer: streamer}]
	if !exists {
		return nil, domain.ErrRoleNotFound
	}
	out := record
	return &out, nil
}

func (s *MemoryRoleStore) Put(ctx context.Context, record *domain.RoleRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[roleKey{identity: record.Identity, streamer: record.Streamer}] = *record
	return nil
}
