// Package notify hands classified messages to the gateway's internal
// broadcast endpoint.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"chatpulse/internal/core/domain"
	"chatpulse/internal/core/ports"
	"chatpulse/pkg/retry"

	"go.uber.org/zap"
)

// HTTPNotifier posts classified messages to the gateway. A gateway
// with no registered connections is a normal outcome, not a failure.
type HTTPNotifier struct {
	gatewayURL string
	httpClient *http.Client
	logger     *zap.SugaredLogger
}

func NewHTTPNotifier(gatewayURL string, logger *zap.SugaredLogger) ports.BroadcastNotifier {
	return &HTTPNotifier{
		gatewayURL: gatewayURL,
		httpClient: http.DefaultClient,
		logger:     logger,
	}
}

func (n *HTTPNotifier) Notify(ctx context.Context, msg *domain.ClassifiedMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal classified message: %w", err)
	}

	return retry.Do(ctx, retry.DefaultConfig(), func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.gatewayURL+"/internal/broadcast", bytes.NewReader(body))
		if err != nil {
			return retry.Permanent{Err: err}
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := n.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("broadcast request failed: %w", err)
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)

		switch {
		case resp.StatusCode == http.StatusOK:
			return nil
		case resp.StatusCode == http.StatusNotFound:
			n.logger.Debugw("no active connections for broadcaster",
				"message_id", msg.MessageID,
				"broadcaster", msg.Broadcaster,
			)
			return nil
		case resp.StatusCode == http.StatusBadRequest:
			return retry.Permanent{Err: fmt.Errorf("gateway rejected broadcast: status %d", resp.StatusCode)}
		default:
			return fmt.Errorf("gateway broadcast returned status %d", resp.StatusCode)
		}
	})
}
