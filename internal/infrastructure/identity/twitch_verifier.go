// Package identity verifies caller credentials and resolves how a
// verified account relates to a target streamer's channel.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"chatpulse/internal/core/domain"
	"chatpulse/internal/core/ports"
	"chatpulse/pkg/retry"

	"go.uber.org/zap"
)

const defaultHelixBaseURL = "https://api.twitch.tv"

// TwitchVerifier validates a user OAuth token against Helix and
// extracts the account it belongs to.
type TwitchVerifier struct {
	clientID   string
	baseURL    string
	httpClient *http.Client
	logger     *zap.SugaredLogger
}

func NewTwitchVerifier(clientID string, logger *zap.SugaredLogger) ports.IdentityVerifier {
	return &TwitchVerifier{
		clientID:   clientID,
		baseURL:    defaultHelixBaseURL,
		httpClient: http.DefaultClient,
		logger:     logger,
	}
}

// NewTwitchVerifierWithBaseURL is used by tests to point at a stub server.
func NewTwitchVerifierWithBaseURL(clientID, baseURL string, httpClient *http.Client, logger *zap.SugaredLogger) ports.IdentityVerifier {
	return &TwitchVerifier{
		clientID:   clientID,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Verify calls GET /helix/users with no query parameters: Helix then
// describes the account the token itself belongs to, which both
// validates the token and yields the subject.
func (v *TwitchVerifier) Verify(ctx context.Context, credential string) (*domain.Subject, error) {
	if credential == "" {
		return nil, domain.ErrInvalidCredential
	}

	subject, err := retry.DoWithResult(ctx, retry.DefaultConfig(), func() (*domain.Subject, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/helix/users", nil)
		if err != nil {
			return nil, retry.Permanent{Err: err}
		}
		req.Header.Set("Client-Id", v.clientID)
		req.Header.Set("Authorization", "Bearer "+credential)

		resp, err := v.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("helix users request failed: %w", err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusUnauthorized:
			return nil, retry.Permanent{Err: domain.ErrInvalidCredential}
		case resp.StatusCode != http.StatusOK:
			return nil, fmt.Errorf("helix users returned status %d: %w", resp.StatusCode, domain.ErrExternalUnavailable)
		}

		var body struct {
			Data []struct {
				ID    string `json:"id"`
				Login string `json:"login"`
			} `json:"data"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return nil, fmt.Errorf("failed to decode helix users response: %w", err)
		}
		if len(body.Data) == 0 {
			return nil, retry.Permanent{Err: domain.ErrInvalidCredential}
		}
		return &domain.Subject{ID: body.Data[0].ID, Login: body.Data[0].Login}, nil
	})
	if err != nil {
		return nil, err
	}

	v.logger.Debugw("verified platform credential", "login", subject.Login)
	return subject, nil
}
