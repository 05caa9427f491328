package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"chatpulse/internal/core/domain"
	"chatpulse/internal/core/ports"
	"chatpulse/pkg/cache"
	"chatpulse/pkg/retry"

	"go.uber.org/zap"
)

const broadcasterIDTTL = 5 * time.Minute

// TwitchRelationshipResolver answers streamer/moderator questions
// against Helix using the caller's own OAuth token. Broadcaster
// login -> ID lookups are cached; account IDs are stable.
type TwitchRelationshipResolver struct {
	clientID       string
	baseURL        string
	httpClient     *http.Client
	broadcasterIDs *cache.Cache
	logger         *zap.SugaredLogger
}

func NewTwitchRelationshipResolver(clientID string, logger *zap.SugaredLogger) ports.RelationshipResolver {
	return &TwitchRelationshipResolver{
		clientID:       clientID,
		baseURL:        defaultHelixBaseURL,
		httpClient:     http.DefaultClient,
		broadcasterIDs: cache.NewCache(broadcasterIDTTL),
		logger:         logger,
	}
}

// NewTwitchRelationshipResolverWithBaseURL is used by tests to point at a stub server.
func NewTwitchRelationshipResolverWithBaseURL(clientID, baseURL string, httpClient *http.Client, logger *zap.SugaredLogger) ports.RelationshipResolver {
	return &TwitchRelationshipResolver{
		clientID:       clientID,
		baseURL:        baseURL,
		httpClient:     httpClient,
		broadcasterIDs: cache.NewCache(broadcasterIDTTL),
		logger:         logger,
	}
}

// IsStreamer looks up the broadcaster account by login and compares
// user identifiers, never login strings, against the subject.
func (r *TwitchRelationshipResolver) IsStreamer(ctx context.Context, credential string, subject *domain.Subject, streamer domain.StreamerID) (bool, error) {
	broadcasterID, err := r.broadcasterID(ctx, credential, streamer)
	if err != nil {
		return false, err
	}
	return broadcasterID == subject.ID, nil
}

// IsModerator pages through the channels the subject moderates and
// looks for the streamer among them.
func (r *TwitchRelationshipResolver) IsModerator(ctx context.Context, credential string, subject *domain.Subject, streamer domain.StreamerID) (bool, error) {
	cursor := ""
	for {
		page, next, err := r.moderatedChannels(ctx, credential, subject.ID, cursor)
		if err != nil {
			return false, err
		}
		for _, login := range page {
			if login == string(streamer) {
				return true, nil
			}
		}
		if next == "" {
			return false, nil
		}
		cursor = next
	}
}

func (r *TwitchRelationshipResolver) broadcasterID(ctx context.Context, credential string, streamer domain.StreamerID) (string, error) {
	if cached, ok := r.broadcasterIDs.Get(string(streamer)); ok {
		return cached.(string), nil
	}

	id, err := retry.DoWithResult(ctx, retry.DefaultConfig(), func() (string, error) {
		endpoint := fmt.Sprintf("%s/helix/users?login=%s", r.baseURL, url.QueryEscape(string(streamer)))
		body, err := r.get(ctx, credential, endpoint)
		if err != nil {
			return "", err
		}

		var users struct {
			Data []struct {
				ID string `json:"id"`
			} `json:"data"`
		}
		if err := json.Unmarshal(body, &users); err != nil {
			return "", fmt.Errorf("failed to decode helix users response: %w", err)
		}
		if len(users.Data) == 0 {
			return "", retry.Permanent{Err: fmt.Errorf("streamer %q: %w", streamer, domain.ErrBroadcasterNotFound)}
		}
		return users.Data[0].ID, nil
	})
	if err != nil {
		return "", err
	}

	r.broadcasterIDs.Set(string(streamer), id)
	return id, nil
}

func (r *TwitchRelationshipResolver) moderatedChannels(ctx context.Context, credential, userID, cursor string) ([]string, string, error) {
	type page struct {
		logins []string
		cursor string
	}

	result, err := retry.DoWithResult(ctx, retry.DefaultConfig(), func() (page, error) {
		endpoint := fmt.Sprintf("%s/helix/moderation/channels?user_id=%s", r.baseURL, url.QueryEscape(userID))
		if cursor != "" {
			endpoint += "&after=" + url.QueryEscape(cursor)
		}
		body, err := r.get(ctx, credential, endpoint)
		if err != nil {
			return page{}, err
		}

		var channels struct {
			Data []struct {
				BroadcasterLogin string `json:"broadcaster_login"`
			} `json:"data"`
			Pagination struct {
				Cursor string `json:"cursor"`
			} `json:"pagination"`
		}
		if err := json.Unmarshal(body, &channels); err != nil {
			return page{}, fmt.Errorf("failed to decode moderated channels response: %w", err)
		}

		logins := make([]string, 0, len(channels.Data))
		for _, ch := range channels.Data {
			logins = append(logins, ch.BroadcasterLogin)
		}
		return page{logins: logins, cursor: channels.Pagination.Cursor}, nil
	})
	if err != nil {
		return nil, "", err
	}
	return result.logins, result.cursor, nil
}

func (r *TwitchRelationshipResolver) get(ctx context.Context, credential, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, retry.Permanent{Err: err}
	}
	req.Header.Set("Client-Id", r.clientID)
	req.Header.Set("Authorization", "Bearer "+credential)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("helix request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, retry.Permanent{Err: domain.ErrInvalidCredential}
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("helix returned status %d: %w", resp.StatusCode, domain.ErrExternalUnavailable)
	}

	buf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read helix response: %w", err)
	}
	return buf, nil
}
