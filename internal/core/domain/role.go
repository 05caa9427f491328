package domain

import "time"

// Identity is the account name of the signed-in user on the identity
// platform. It is the first half of the RoleRecord compound key.
type Identity string

// Subject is the verified identity returned by the external provider
// after credential validation.
type Subject struct {
	ID    string
	Login string
}

// Role classifies a user's relationship to a streamer, ordered by
// privilege Streamer > Moderator > Viewer.
type Role string

const (
	RoleStreamer  Role = "Streamer"
	RoleModerator Role = "Moderator"
	RoleViewer    Role = "Viewer"
)

// RoleRecord caches a resolved relationship. The external platform is
// authoritative; the record is overwritten on every fresh resolution.
type RoleRecord struct {
	Identity   Identity   `json:"identity"`
	Streamer   StreamerID `json:"streamer"`
	Role       Role       `json:"role"`
	ResolvedAt time.Time  `json:"resolved_at"`
}

type Decision string

const (
	DecisionAllow Decision = "Allow"
	DecisionDeny  Decision = "Deny"
)

// Scope restricts what an allowed identity may do.
type Scope string

const (
	ScopeAll      Scope = "all"
	ScopeReadOnly Scope = "read_only"
	ScopeNone     Scope = "none"
)

// Policy is the per-request authorization decision handed to the
// gateway. It is produced fresh on every resolution and never stored.
type Policy struct {
	Decision Decision `json:"decision"`
	Scope    Scope    `json:"scope"`
}

// DenyAll is the fail-closed policy every ambiguous or erroring
// authorization path resolves to.
var DenyAll = Policy{Decision: DecisionDeny, Scope: ScopeNone}

// PolicyForRole compiles a role into its authorization policy.
// Unknown role values fall through to Deny.
func PolicyForRole(role Role) Policy {
	switch role {
	case RoleStreamer:
		return Policy{Decision: DecisionAllow, Scope: ScopeAll}
	case RoleModerator:
		return Policy{Decision: DecisionAllow, Scope: ScopeReadOnly}
	default:
		return DenyAll
	}
}

// PermitsMethod reports whether the policy admits a request with the
// given HTTP method. Read-only scope admits safe methods only.
func (p Policy) PermitsMethod(method string) bool {
	if p.Decision != DecisionAllow {
		return false
	}
	switch p.Scope {
	case ScopeAll:
		return true
	case ScopeReadOnly:
		return method == "GET" || method == "HEAD" || method == "OPTIONS"
	default:
		return false
	}
}
