package services

import (
	"context"
	"time"

	"chatpulse/internal/core/domain"
	"chatpulse/internal/core/ports"

	"go.uber.org/zap"
)

// PipelineResult records the outcome of processing one message. A
// batch is never aborted: every message gets a result.
type PipelineResult struct {
	MessageID string
	Err       error
}

// PipelineService runs raw chat messages through classification,
// persistence and gateway notification.
type PipelineService interface {
	ProcessBatch(ctx context.Context, batch []*domain.ChatMessage) []PipelineResult
}

type pipelineService struct {
	sentiment SentimentService
	messages  ports.MessageRepository
	notifier  ports.BroadcastNotifier
	metrics   ports.MetricsRecorder
	logger    *zap.SugaredLogger
}

// NewPipelineService wires the analyzer pipeline. messages may be nil
// when persistence is disabled; metrics may be nil.
func NewPipelineService(
	sentiment SentimentService,
	messages ports.MessageRepository,
	notifier ports.BroadcastNotifier,
	metrics ports.MetricsRecorder,
	logger *zap.SugaredLogger,
) PipelineService {
	return &pipelineService{
		sentiment: sentiment,
		messages:  messages,
		notifier:  notifier,
		metrics:   metrics,
		logger:    logger,
	}
}

func (s *pipelineService) ProcessBatch(ctx context.Context, batch []*domain.ChatMessage) []PipelineResult {
	results := make([]PipelineResult, 0, len(batch))
	for _, msg := range batch {
		err := s.process(ctx, msg)
		if s.metrics != nil {
			s.metrics.RecordMessageProcessed(err)
		}
		if err != nil {
			s.logger.Warnw("message processing failed",
				"message_id", msg.MessageID,
				"broadcaster", msg.Broadcaster,
				"error", err,
			)
		}
		results = append(results, PipelineResult{MessageID: msg.MessageID, Err: err})
	}
	return results
}

func (s *pipelineService) process(ctx context.Context, msg *domain.ChatMessage) error {
	start := time.Now()
	classified, err := s.sentiment.ClassifyMessage(ctx, msg)
	if s.metrics != nil {
		s.metrics.RecordAnalysisDuration(time.Since(start))
	}
	if err != nil {
		return err
	}

	if s.messages != nil {
		if err := s.messages.Insert(ctx, classified); err != nil {
			return err
		}
	}

	// Notification failures do not undo persistence; delivery is
	// at-least-once from the stored history's point of view.
	if err := s.notifier.Notify(ctx, classified); err != nil {
		return err
	}
	return nil
}
