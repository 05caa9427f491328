package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"chatpulse/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionRegistry_RegisterIsIdempotent(t *testing.T) {
	ctx := context.Background()
	registry := NewMemoryConnectionRegistry()

	require.NoError(t, registry.Register(ctx, "alice", "conn-1"))
	require.NoError(t, registry.Register(ctx, "alice", "conn-1"))

	members, err := registry.Members(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []domain.ConnectionHandle{"conn-1"}, members)
}

func TestConnectionRegistry_MembersPreservesRegistrationOrder(t *testing.T) {
	ctx := context.Background()
	registry := NewMemoryConnectionRegistry()

	require.NoError(t, registry.Register(ctx, "alice", "conn-1"))
	require.NoError(t, registry.Register(ctx, "alice", "conn-2"))
	require.NoError(t, registry.Register(ctx, "alice", "conn-3"))

	members, err := registry.Members(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []domain.ConnectionHandle{"conn-1", "conn-2", "conn-3"}, members)
}

func TestConnectionRegistry_DeregisterRemovesFromOwningStreamer(t *testing.T) {
	ctx := context.Background()
	registry := NewMemoryConnectionRegistry()

	require.NoError(t, registry.Register(ctx, "alice", "conn-1"))
	require.NoError(t, registry.Register(ctx, "alice", "conn-2"))

	// Deregister only knows the handle, not the streamer.
	require.NoError(t, registry.Deregister(ctx, "conn-1"))

	members, err := registry.Members(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []domain.ConnectionHandle{"conn-2"}, members)
}

func TestConnectionRegistry_DeregisterUnknownHandleIsNoOp(t *testing.T) {
	ctx := context.Background()
	registry := NewMemoryConnectionRegistry()

	require.NoError(t, registry.Deregister(ctx, "never-registered"))

	require.NoError(t, registry.Register(ctx, "alice", "conn-1"))
	require.NoError(t, registry.Deregister(ctx, "still-unknown"))

	members, err := registry.Members(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []domain.ConnectionHandle{"conn-1"}, members)
}

func TestConnectionRegistry_DeregisterDoesNotTouchOtherStreamers(t *testing.T) {
	ctx := context.Background()
	registry := NewMemoryConnectionRegistry()

	require.NoError(t, registry.Register(ctx, "alice", "conn-a"))
	require.NoError(t, registry.Register(ctx, "bob", "conn-b"))

	require.NoError(t, registry.Deregister(ctx, "conn-a"))

	bobMembers, err := registry.Members(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, []domain.ConnectionHandle{"conn-b"}, bobMembers)
}

func TestConnectionRegistry_MembersForUnknownStreamerIsEmpty(t *testing.T) {
	ctx := context.Background()
	registry := NewMemoryConnectionRegistry()

	members, err := registry.Members(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestConnectionRegistry_EmptyEntryRetainedAfterLastDeregister(t *testing.T) {
	ctx := context.Background()
	registry := NewMemoryConnectionRegistry()

	require.NoError(t, registry.Register(ctx, "alice", "conn-1"))
	require.NoError(t, registry.Deregister(ctx, "conn-1"))

	members, err := registry.Members(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, members)

	// The entry still accepts registrations afterwards.
	require.NoError(t, registry.Register(ctx, "alice", "conn-2"))
	members, err = registry.Members(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []domain.ConnectionHandle{"conn-2"}, members)
}

func TestConnectionRegistry_ConcurrentRegistersAreAllVisible(t *testing.T) {
	ctx := context.Background()
	registry := NewMemoryConnectionRegistry()

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			handle := domain.ConnectionHandle(fmt.Sprintf("conn-%d", i))
			if err := registry.Register(ctx, "alice", handle); err != nil {
				t.Errorf("register failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	members, err := registry.Members(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, members, n)

	seen := make(map[domain.ConnectionHandle]bool, n)
	for _, h := range members {
		assert.False(t, seen[h], "duplicate handle %s", h)
		seen[h] = true
	}
}

func TestConnectionRegistry_ConcurrentRegisterAndDeregister(t *testing.T) {
	ctx := context.Background()
	registry := NewMemoryConnectionRegistry()

	require.NoError(t, registry.Register(ctx, "alice", "conn-stable"))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			handle := domain.ConnectionHandle(fmt.Sprintf("conn-temp-%d", i))
			_ = registry.Register(ctx, "alice", handle)
			_ = registry.Deregister(ctx, handle)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_, _ = registry.Members(ctx, "alice")
		}
	}()
	wg.Wait()

	// The concurrently untouched handle survives.
	members, err := registry.Members(ctx, "alice")
	require.NoError(t, err)
	assert.Contains(t, members, domain.ConnectionHandle("conn-stable"))
}
