package ports

import (
	"context"

	"chatpulse/internal/core/domain"
)

// ConnectionRegistry is the durable mapping streamer -> ordered set of
// connection handles. All implementations must be safe under arbitrary
// interleaving from concurrent invocations: updates are atomic
// store-side operations, never whole-entry read-modify-write.
type ConnectionRegistry interface {
	// Register adds the handle to the streamer's set, creating the
	// entry if absent. Registering the same handle twice leaves
	// membership unchanged.
	Register(ctx context.Context, streamer domain.StreamerID, handle domain.ConnectionHandle) error

	// Deregister removes the handle from whichever streamer's set
	// contains it. The owning streamer is discovered by the registry;
	// an unknown handle is a successful no-op.
	Deregister(ctx context.Context, handle domain.ConnectionHandle) error

	// Members returns the streamer's handles in registration order, or
	// an empty slice if the streamer has no entry.
	Members(ctx context.Context, streamer domain.StreamerID) ([]domain.ConnectionHandle, error)
}

// RoleStore persists resolved role records. Records are an advisory
// cache; last write wins.
type RoleStore interface {
	Get(ctx context.Context, identity domain.Identity, streamer domain.StreamerID) (*domain.RoleRecord, error)
	Put(ctx context.Context, record *domain.RoleRecord) error
}

// MessageRepository stores classified chat messages.
type MessageRepository interface {
	Insert(ctx context.Context, msg *domain.ClassifiedMessage) error
	List(ctx context.Context, filter domain.MessageFilter) ([]*domain.ClassifiedMessage, error)
}
