package identity

import (
	"context"
	"fmt"

	"chatpulse/internal/core/domain"
	"chatpulse/internal/core/ports"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// TokenVerifier validates a signed identity-platform token against the
// provider's JWKS endpoint. The audience claim is deliberately not
// checked: the token is accepted from any client of the user pool.
type TokenVerifier struct {
	keys   keyfunc.Keyfunc
	issuer string
	logger *zap.SugaredLogger
}

// NewTokenVerifier fetches the JWKS once and keeps it refreshed in the
// background for the lifetime of ctx.
func NewTokenVerifier(ctx context.Context, jwksURL, issuer string, logger *zap.SugaredLogger) (*TokenVerifier, error) {
	keys, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("failed to load JWKS from %s: %w", jwksURL, err)
	}
	return &TokenVerifier{keys: keys, issuer: issuer, logger: logger}, nil
}

var _ ports.IdentityVerifier = (*TokenVerifier)(nil)

// Verify checks the signature and issuer and extracts the account
// username. The username claim takes priority over the subject.
func (v *TokenVerifier) Verify(ctx context.Context, credential string) (*domain.Subject, error) {
	if credential == "" {
		return nil, domain.ErrInvalidCredential
	}

	claims := jwt.MapClaims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256"}),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.ParseWithClaims(credential, claims, v.keys.Keyfunc, opts...)
	if err != nil {
		v.logger.Debugw("token verification failed", "error", err)
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidCredential, err)
	}
	if !token.Valid {
		return nil, domain.ErrInvalidCredential
	}

	username := claimString(claims, "cognito:username")
	if username == "" {
		username = claimString(claims, "username")
	}
	if username == "" {
		return nil, fmt.Errorf("%w: token carries no username claim", domain.ErrInvalidCredential)
	}

	return &domain.Subject{
		ID:    claimString(claims, "sub"),
		Login: username,
	}, nil
}

func claimString(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}
