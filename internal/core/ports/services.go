package ports

import (
	"context"
	"encoding/json"
	"time"

	"chatpulse/internal/core/domain"
)

// IdentityVerifier validates a bearer credential against an external
// identity provider and extracts the verified subject. Two credential
// forms exist: a viewer-platform OAuth token and a signed
// identity-platform token.
type IdentityVerifier interface {
	Verify(ctx context.Context, credential string) (*domain.Subject, error)
}

// RelationshipResolver answers how a verified subject relates to a
// target streamer, by querying the external platform API.
type RelationshipResolver interface {
	// IsStreamer reports whether the subject is the streamer itself,
	// by identifier comparison against the broadcaster's account.
	IsStreamer(ctx context.Context, credential string, subject *domain.Subject, streamer domain.StreamerID) (bool, error)

	// IsModerator reports whether the subject moderates the streamer's
	// channel.
	IsModerator(ctx context.Context, credential string, subject *domain.Subject, streamer domain.StreamerID) (bool, error)
}

// AuthorizationRequest carries the inputs of a full role resolution.
type AuthorizationRequest struct {
	Credential string
	Identity   domain.Identity
	Streamer   domain.StreamerID
}

// AccessService resolves a caller's role and compiles it into a
// scoped policy. A Deny decision is a successful resolution, never an
// error: verification and relationship failures degrade to Deny.
type AccessService interface {
	Resolve(ctx context.Context, req AuthorizationRequest) (domain.Policy, domain.Role, error)

	// ResolveFromIdentity skips credential verification and reads the
	// persisted role record directly. An absent record resolves to
	// Deny.
	ResolveFromIdentity(ctx context.Context, identity domain.Identity, streamer domain.StreamerID) (domain.Policy, domain.Role, error)
}

// ConnectionSender delivers one payload to one connection handle. It
// is supplied by the hosting gateway.
type ConnectionSender interface {
	Send(ctx context.Context, handle domain.ConnectionHandle, payload json.RawMessage) error
}

// Broadcaster fans one message out to every connection registered for
// a streamer, isolating per-connection failures.
type Broadcaster interface {
	Broadcast(ctx context.Context, streamer domain.StreamerID, payload json.RawMessage) error
}

// SentimentAnalyzer scores a text's sentiment via the external
// natural-language API.
type SentimentAnalyzer interface {
	Analyze(ctx context.Context, text string) (score, magnitude float64, err error)
}

// BroadcastNotifier hands a classified message to the gateway for
// fan-out.
type BroadcastNotifier interface {
	Notify(ctx context.Context, msg *domain.ClassifiedMessage) error
}

// MetricsRecorder receives operational counters from the core
// services. Implementations must be safe for concurrent use.
type MetricsRecorder interface {
	RecordBroadcast(delivered, failed int)
	RecordAuthDecision(role domain.Role, policy domain.Policy)
	RecordMessageProcessed(err error)
	RecordAnalysisDuration(d time.Duration)
}
