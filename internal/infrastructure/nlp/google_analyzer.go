// Package nlp scores chat text through the Google Cloud Natural
// Language API.
package nlp

import (
	"context"
	"fmt"

	"chatpulse/internal/core/ports"
	"chatpulse/pkg/circuitbreaker"
	"chatpulse/pkg/retry"

	"google.golang.org/api/language/v1"
	"google.golang.org/api/option"
)

// GoogleAnalyzer calls the document sentiment endpoint. A circuit
// breaker sits in front of it so a degraded API fails fast instead of
// stalling the whole pipeline on retries.
type GoogleAnalyzer struct {
	service *language.Service
	breaker *circuitbreaker.CircuitBreaker
}

// NewGoogleAnalyzer builds the API client. credentialsFile may be
// empty, in which case application default credentials apply.
func NewGoogleAnalyzer(ctx context.Context, credentialsFile string) (ports.SentimentAnalyzer, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	service, err := language.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create language service: %w", err)
	}
	return &GoogleAnalyzer{
		service: service,
		breaker: circuitbreaker.New(circuitbreaker.DefaultConfig()),
	}, nil
}

type sentiment struct {
	score     float64
	magnitude float64
}

func (a *GoogleAnalyzer) Analyze(ctx context.Context, text string) (float64, float64, error) {
	result, err := a.breaker.ExecuteWithResult(ctx, func() (interface{}, error) {
		s, err := retry.DoWithResult(ctx, retry.DefaultConfig(), a.analyzeOnce(ctx, text))
		return s, err
	})
	if err != nil {
		return 0, 0, err
	}
	s := result.(sentiment)
	return s.score, s.magnitude, nil
}

func (a *GoogleAnalyzer) analyzeOnce(ctx context.Context, text string) func() (sentiment, error) {
	return func() (sentiment, error) {
		resp, err := a.service.Documents.AnalyzeSentiment(&language.AnalyzeSentimentRequest{
			Document: &language.Document{
				Content: text,
				Type:    "PLAIN_TEXT",
			},
		}).Context(ctx).Do()
		if err != nil {
			return sentiment{}, fmt.Errorf("analyze sentiment request failed: %w", err)
		}
		if resp.DocumentSentiment == nil {
			return sentiment{}, retry.Permanent{Err: fmt.Errorf("analyze sentiment response carries no document sentiment")}
		}
		return sentiment{
			score:     resp.DocumentSentiment.Score,
			magnitude: resp.DocumentSentiment.Magnitude,
		}, nil
	}
}
