package memory

import (
	"context"
	"sync"

	"chatpulse/internal/core/domain"
	"chatpulse/internal/core/ports"
)

// MemoryConnectionRegistry is an in-process registry used for tests
// and single-node development. It mirrors the Redis semantics: ordered
// membership, idempotent register, reverse-indexed deregister, and
// retained empty entries.
type MemoryConnectionRegistry struct {
	mu      sync.RWMutex
	conns   map[domain.StreamerID][]domain.ConnectionHandle
	owners  map[domain.ConnectionHandle]domain.StreamerID
}

func NewMemoryConnectionRegistry() ports.ConnectionRegistry {
	return &MemoryConnectionRegistry{
		conns:  make(map[domain.StreamerID][]domain.ConnectionHandle),
		owners: make(map[domain.ConnectionHandle]domain.StreamerID),
	}
}

func (r *MemoryConnectionRegistry) Register(ctx context.Context, streamer domain.StreamerID, handle domain.ConnectionHandle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.owners[handle]; exists {
		return nil
	}

	r.conns[streamer] = append(r.conns[streamer], handle)
	r.owners[handle] = streamer
	return nil
}

func (r *MemoryConnectionRegistry) Deregister(ctx context.Context, handle domain.ConnectionHandle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	owner, exists := r.owners[handle]
	if !exists {
		return nil
	}

	members := r.conns[owner]
	for i, h := range members {
		if h == handle {
			r.conns[owner] = append(members[:i], members[i+1:]...)
			break
		}
	}
	delete(r.owners, handle)
	return nil
}

func (r *MemoryConnectionRegistry) Members(ctx context.Context, streamer domain.StreamerID) ([]domain.ConnectionHandle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.conns[streamer]
	out := make([]domain.ConnectionHandle, len(members))
	copy(out, members)
	return out, nil
}
