package services

import (
	"context"
	"errors"
	"testing"

	"chatpulse/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type recordingRepository struct {
	inserted []*domain.ClassifiedMessage
	failOnID string
}

func (r *recordingRepository) Insert(ctx context.Context, msg *domain.ClassifiedMessage) error {
	if msg.MessageID == r.failOnID {
		return errors.New("insert failed")
	}
	r.inserted = append(r.inserted, msg)
	return nil
}

func (r *recordingRepository) List(ctx context.Context, filter domain.MessageFilter) ([]*domain.ClassifiedMessage, error) {
	return r.inserted, nil
}

type recordingNotifier struct {
	notified []*domain.ClassifiedMessage
	failOnID string
}

func (n *recordingNotifier) Notify(ctx context.Context, msg *domain.ClassifiedMessage) error {
	if msg.MessageID == n.failOnID {
		return errors.New("notify failed")
	}
	n.notified = append(n.notified, msg)
	return nil
}

func batchOf(ids ...string) []*domain.ChatMessage {
	batch := make([]*domain.ChatMessage, 0, len(ids))
	for _, id := range ids {
		batch = append(batch, &domain.ChatMessage{
			MessageID:   id,
			Broadcaster: "alice",
			Text:        "hello",
		})
	}
	return batch
}

func TestProcessBatch_AllSucceed(t *testing.T) {
	repo := &recordingRepository{}
	notifier := &recordingNotifier{}
	svc := NewPipelineService(
		NewSentimentService(&stubAnalyzer{score: 0.8}),
		repo,
		notifier,
		nil,
		zaptest.NewLogger(t).Sugar(),
	)

	results := svc.ProcessBatch(context.Background(), batchOf("m1", "m2"))
	require.Len(t, results, 2)
	for _, res := range results {
		assert.NoError(t, res.Err)
	}
	assert.Len(t, repo.inserted, 2)
	assert.Len(t, notifier.notified, 2)
	assert.Equal(t, domain.SentimentVeryPositive, repo.inserted[0].Classification)
}

func TestProcessBatch_FailureDoesNotAbortBatch(t *testing.T) {
	repo := &recordingRepository{failOnID: "m2"}
	notifier := &recordingNotifier{}
	svc := NewPipelineService(
		NewSentimentService(&stubAnalyzer{}),
		repo,
		notifier,
		nil,
		zaptest.NewLogger(t).Sugar(),
	)

	results := svc.ProcessBatch(context.Background(), batchOf("m1", "m2", "m3"))
	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err)
	assert.NoError(t, results[2].Err)

	// m1 and m3 made it through both stages.
	assert.Len(t, repo.inserted, 2)
	assert.Len(t, notifier.notified, 2)
}

func TestProcessBatch_NotifyFailureReported(t *testing.T) {
	repo := &recordingRepository{}
	notifier := &recordingNotifier{failOnID: "m1"}
	svc := NewPipelineService(
		NewSentimentService(&stubAnalyzer{}),
		repo,
		notifier,
		nil,
		zaptest.NewLogger(t).Sugar(),
	)

	results := svc.ProcessBatch(context.Background(), batchOf("m1"))
	require.Len(t, results, 1)
	assert.Error(t, results[0].Err)

	// The message was persisted before notification failed.
	assert.Len(t, repo.inserted, 1)
}

func TestProcessBatch_NilRepositorySkipsPersistence(t *testing.T) {
	notifier := &recordingNotifier{}
	svc := NewPipelineService(
		NewSentimentService(&stubAnalyzer{}),
		nil,
		notifier,
		nil,
		zaptest.NewLogger(t).Sugar(),
	)

	results := svc.ProcessBatch(context.Background(), batchOf("m1"))
	require.Len(t, results, 1)
	assert.NoError(t, results[0].Err)
	assert.Len(t, notifier.notified, 1)
}
