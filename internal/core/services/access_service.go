package services

import (
	"context"
	"time"

	"chatpulse/internal/core/domain"
	"chatpulse/internal/core/ports"

	"go.uber.org/zap"
)

// accessService resolves caller roles and compiles them into policies.
// Every ambiguous path resolves to Deny: a failed verification, an
// unreachable platform API, or an unknown role never produces Allow
// and never surfaces as an error to the gateway.
type accessService struct {
	verifier ports.IdentityVerifier
	resolver ports.RelationshipResolver
	store    ports.RoleStore
	metrics  ports.MetricsRecorder
	logger   *zap.SugaredLogger
}

// NewAccessService wires role resolution. metrics may be nil.
func NewAccessService(
	verifier ports.IdentityVerifier,
	resolver ports.RelationshipResolver,
	store ports.RoleStore,
	metrics ports.MetricsRecorder,
	logger *zap.SugaredLogger,
) ports.AccessService {
	return &accessService{
		verifier: verifier,
		resolver: resolver,
		store:    store,
		metrics:  metrics,
		logger:   logger,
	}
}

func (s *accessService) decide(role domain.Role) (domain.Policy, domain.Role, error) {
	policy := domain.PolicyForRole(role)
	if s.metrics != nil {
		s.metrics.RecordAuthDecision(role, policy)
	}
	return policy, role, nil
}

// deny is the fail-closed outcome: a successful resolution, not an
// error.
func (s *accessService) deny() (domain.Policy, domain.Role, error) {
	if s.metrics != nil {
		s.metrics.RecordAuthDecision("", domain.DenyAll)
	}
	return domain.DenyAll, "", nil
}

func (s *accessService) Resolve(ctx context.Context, req ports.AuthorizationRequest) (domain.Policy, domain.Role, error) {
	if req.Credential == "" || req.Identity == "" || req.Streamer == "" {
		return domain.DenyAll, "", domain.ErrMalformedRequest
	}

	subject, err := s.verifier.Verify(ctx, req.Credential)
	if err != nil {
		s.logger.Warnw("credential verification failed, denying",
			"identity", req.Identity,
			"streamer", req.Streamer,
			"error", err,
		)
		return s.deny()
	}

	role, err := s.resolveRole(ctx, req.Credential, subject, req.Streamer)
	if err != nil {
		s.logger.Warnw("role resolution failed, denying",
			"identity", req.Identity,
			"streamer", req.Streamer,
			"error", err,
		)
		return s.deny()
	}

	// Persisting the record is best effort: the policy is already
	// decided and a store outage must not block the caller.
	record := &domain.RoleRecord{
		Identity:   req.Identity,
		Streamer:   req.Streamer,
		Role:       role,
		ResolvedAt: time.Now().UTC(),
	}
	if err := s.store.Put(ctx, record); err != nil {
		s.logger.Warnw("failed to persist role record",
			"identity", req.Identity,
			"streamer", req.Streamer,
			"role", role,
			"error", err,
		)
	}

	return s.decide(role)
}

// resolveRole checks relationships in privilege order and stops at the
// first match.
func (s *accessService) resolveRole(ctx context.Context, credential string, subject *domain.Subject, streamer domain.StreamerID) (domain.Role, error) {
	isStreamer, err := s.resolver.IsStreamer(ctx, credential, subject, streamer)
	if err != nil {
		return "", err
	}
	if isStreamer {
		return domain.RoleStreamer, nil
	}

	isModerator, err := s.resolver.IsModerator(ctx, credential, subject, streamer)
	if err != nil {
		return "", err
	}
	if isModerator {
		return domain.RoleModerator, nil
	}

	return domain.RoleViewer, nil
}

func (s *accessService) ResolveFromIdentity(ctx context.Context, identity domain.Identity, streamer domain.StreamerID) (domain.Policy, domain.Role, error) {
	if identity == "" || streamer == "" {
		return domain.DenyAll, "", domain.ErrMalformedRequest
	}

	record, err := s.store.Get(ctx, identity, streamer)
	if err != nil {
		if err != domain.ErrRoleNotFound {
			s.logger.Warnw("role store lookup failed, denying",
				"identity", identity,
				"streamer", streamer,
				"error", err,
			)
		}
		return s.deny()
	}

	return s.decide(record.Role)
}
