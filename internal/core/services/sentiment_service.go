package services

import (
	"context"

	"chatpulse/internal/core/domain"
	"chatpulse/internal/core/ports"
)

// Classify maps a sentiment score and magnitude to a label. Rules are
// checked top to bottom; magnitude widens a band when the score alone
// is borderline.
func Classify(score, magnitude float64) string {
	switch {
	case score < -0.8:
		return domain.SentimentVeryNegative
	case score < -0.6 && magnitude > 2:
		return domain.SentimentVeryNegative
	case score < -0.4 && magnitude > 4:
		return domain.SentimentVeryNegative
	case score < -0.6:
		return domain.SentimentNegative
	case score < -0.4 && magnitude > 2:
		return domain.SentimentNegative
	case score < -0.2 && magnitude > 4:
		return domain.SentimentNegative
	case score < -0.3:
		return domain.SentimentSlightlyNegative
	case score < -0.1 && magnitude > 2:
		return domain.SentimentSlightlyNegative
	case score < 0.1 && magnitude > 4:
		return domain.SentimentSlightlyNegative
	case score < 0.3:
		return domain.SentimentNeutral
	case score < 0.5:
		return domain.SentimentSlightlyPositive
	case score < 0.7:
		return domain.SentimentPositive
	default:
		return domain.SentimentVeryPositive
	}
}

// sentimentService scores a message through the external analyzer and
// attaches the classification label.
type sentimentService struct {
	analyzer ports.SentimentAnalyzer
}

// SentimentService classifies raw chat messages.
type SentimentService interface {
	ClassifyMessage(ctx context.Context, msg *domain.ChatMessage) (*domain.ClassifiedMessage, error)
}

func NewSentimentService(analyzer ports.SentimentAnalyzer) SentimentService {
	return &sentimentService{analyzer: analyzer}
}

func (s *sentimentService) ClassifyMessage(ctx context.Context, msg *domain.ChatMessage) (*domain.ClassifiedMessage, error) {
	score, magnitude, err := s.analyzer.Analyze(ctx, msg.Text)
	if err != nil {
		return nil, err
	}

	return &domain.ClassifiedMessage{
		ChatMessage:    *msg,
		Classification: Classify(score, magnitude),
		Score:          score,
		Magnitude:      magnitude,
	}, nil
}
