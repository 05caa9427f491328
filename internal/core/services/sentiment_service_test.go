package services

import (
	"context"
	"errors"
	"testing"

	"chatpulse/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		score     float64
		magnitude float64
		want      string
	}{
		{"deeply negative score", -0.9, 0.5, domain.SentimentVeryNegative},
		{"negative score amplified by magnitude", -0.7, 2.5, domain.SentimentVeryNegative},
		{"moderate negative with very high magnitude", -0.5, 4.5, domain.SentimentVeryNegative},
		{"negative score low magnitude", -0.7, 1.0, domain.SentimentNegative},
		{"moderate negative amplified", -0.5, 2.5, domain.SentimentNegative},
		{"mild negative with very high magnitude", -0.25, 4.5, domain.SentimentNegative},
		{"mild negative", -0.35, 1.0, domain.SentimentSlightlyNegative},
		{"slight negative amplified", -0.15, 2.5, domain.SentimentSlightlyNegative},
		{"near zero with very high magnitude", 0.05, 4.5, domain.SentimentSlightlyNegative},
		{"neutral", 0.0, 1.0, domain.SentimentNeutral},
		{"slightly negative but calm", -0.2, 1.0, domain.SentimentNeutral},
		{"mildly positive", 0.4, 1.0, domain.SentimentSlightlyPositive},
		{"positive", 0.6, 1.0, domain.SentimentPositive},
		{"very positive", 0.8, 1.0, domain.SentimentVeryPositive},
		{"maximum score", 1.0, 5.0, domain.SentimentVeryPositive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.score, tt.magnitude))
		})
	}
}

type stubAnalyzer struct {
	score     float64
	magnitude float64
	err       error
}

func (s *stubAnalyzer) Analyze(ctx context.Context, text string) (float64, float64, error) {
	return s.score, s.magnitude, s.err
}

func TestClassifyMessage(t *testing.T) {
	svc := NewSentimentService(&stubAnalyzer{score: 0.8, magnitude: 1.2})

	msg := &domain.ChatMessage{
		MessageID:   "m1",
		Broadcaster: "alice",
		Chatter:     "kate",
		Text:        "great stream!",
	}

	classified, err := svc.ClassifyMessage(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, domain.SentimentVeryPositive, classified.Classification)
	assert.Equal(t, 0.8, classified.Score)
	assert.Equal(t, 1.2, classified.Magnitude)
	assert.Equal(t, "m1", classified.MessageID)
}

func TestClassifyMessage_AnalyzerFailure(t *testing.T) {
	svc := NewSentimentService(&stubAnalyzer{err: errors.New("nlp unavailable")})

	classified, err := svc.ClassifyMessage(context.Background(), &domain.ChatMessage{Text: "hi"})
	assert.Nil(t, classified)
	assert.Error(t, err)
}
