package services

import (
	"context"
	"encoding/json"

	"chatpulse/internal/core/domain"
	"chatpulse/internal/core/ports"

	"go.uber.org/zap"
)

// broadcastService fans one payload out to every connection registered
// for a streamer. A failing recipient never prevents delivery to the
// rest; failures are reported together after every handle was tried.
type broadcastService struct {
	registry ports.ConnectionRegistry
	sender   ports.ConnectionSender
	metrics  ports.MetricsRecorder
	logger   *zap.SugaredLogger
}

// NewBroadcastService wires the fan-out path. metrics may be nil.
func NewBroadcastService(
	registry ports.ConnectionRegistry,
	sender ports.ConnectionSender,
	metrics ports.MetricsRecorder,
	logger *zap.SugaredLogger,
) ports.Broadcaster {
	return &broadcastService{
		registry: registry,
		sender:   sender,
		metrics:  metrics,
		logger:   logger,
	}
}

func (s *broadcastService) Broadcast(ctx context.Context, streamer domain.StreamerID, payload json.RawMessage) error {
	handles, err := s.registry.Members(ctx, streamer)
	if err != nil {
		return err
	}
	if len(handles) == 0 {
		if s.metrics != nil {
			s.metrics.RecordBroadcast(0, 0)
		}
		return domain.ErrNoActiveConnections
	}

	var failed []domain.DeliveryFailure
	for _, handle := range handles {
		if err := s.sender.Send(ctx, handle, payload); err != nil {
			s.logger.Warnw("delivery to connection failed",
				"streamer", streamer,
				"handle", handle,
				"error", err,
			)
			failed = append(failed, domain.DeliveryFailure{Handle: handle, Err: err})
		}
	}

	if s.metrics != nil {
		s.metrics.RecordBroadcast(len(handles)-len(failed), len(failed))
	}

	if len(failed) > 0 {
		return &domain.PartialDeliveryError{Streamer: streamer, Failed: failed}
	}

	s.logger.Debugw("broadcast delivered",
		"streamer", streamer,
		"connections", len(handles),
	)
	return nil
}
