package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"chatpulse/internal/core/domain"
	"chatpulse/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type stubVerifier struct {
	subject *domain.Subject
	err     error
}

func (s *stubVerifier) Verify(ctx context.Context, credential string) (*domain.Subject, error) {
	return s.subject, s.err
}

type stubAccess struct {
	policy domain.Policy
	role   domain.Role
}

func (s *stubAccess) Resolve(ctx context.Context, req ports.AuthorizationRequest) (domain.Policy, domain.Role, error) {
	return s.policy, s.role, nil
}

func (s *stubAccess) ResolveFromIdentity(ctx context.Context, identity domain.Identity, streamer domain.StreamerID) (domain.Policy, domain.Role, error) {
	return s.policy, s.role, nil
}

func policyRouter(verifier ports.IdentityVerifier, access ports.AccessService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(PolicyMiddleware(verifier, access))
	router.GET("/guarded", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.POST("/guarded", func(c *gin.Context) { c.Status(http.StatusOK) })
	return router
}

func doRequest(router *gin.Engine, method, auth, broadcaster string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, "/guarded", nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	if broadcaster != "" {
		req.Header.Set("BroadcasterUserLogin", broadcaster)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestPolicyMiddleware_MissingHeaders(t *testing.T) {
	router := policyRouter(
		&stubVerifier{subject: &domain.Subject{Login: "kate"}},
		&stubAccess{policy: domain.PolicyForRole(domain.RoleStreamer)},
	)

	tests := []struct {
		name        string
		auth        string
		broadcaster string
	}{
		{"no authorization", "", "alice"},
		{"malformed authorization", "NotBearer token", "alice"},
		{"no broadcaster", "Bearer token", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, http.MethodGet, tt.auth, tt.broadcaster)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestPolicyMiddleware_InvalidToken(t *testing.T) {
	router := policyRouter(
		&stubVerifier{err: domain.ErrInvalidCredential},
		&stubAccess{policy: domain.PolicyForRole(domain.RoleStreamer)},
	)

	w := doRequest(router, http.MethodGet, "Bearer bad", "alice")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPolicyMiddleware_DeniedRole(t *testing.T) {
	router := policyRouter(
		&stubVerifier{subject: &domain.Subject{Login: "rando"}},
		&stubAccess{policy: domain.DenyAll},
	)

	w := doRequest(router, http.MethodGet, "Bearer token", "alice")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPolicyMiddleware_ReadOnlyScope(t *testing.T) {
	router := policyRouter(
		&stubVerifier{subject: &domain.Subject{Login: "kate"}},
		&stubAccess{policy: domain.PolicyForRole(domain.RoleModerator), role: domain.RoleModerator},
	)

	// Moderators read but never write.
	w := doRequest(router, http.MethodGet, "Bearer token", "alice")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, http.MethodPost, "Bearer token", "alice")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPolicyMiddleware_FullScope(t *testing.T) {
	router := policyRouter(
		&stubVerifier{subject: &domain.Subject{Login: "alice"}},
		&stubAccess{policy: domain.PolicyForRole(domain.RoleStreamer), role: domain.RoleStreamer},
	)

	w := doRequest(router, http.MethodPost, "Bearer token", "alice")
	assert.Equal(t, http.StatusOK, w.Code)
}
