package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang-headline-signal/internal/entity"

	"golang.org/x/time/rate"
)

// SentimentClassifier maps a headline to a probability triple. It is the
// only place headline text leaves the service.
type SentimentClassifier interface {
	Classify(ctx context.Context, headline string) (entity.SentimentScores, error)
	// Model names the underlying model. It is part of the cache identity.
	Model() string
}

func newRequestLimiter(maxPerMinute int) *rate.Limiter {
	if maxPerMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(maxPerMinute)), 1)
}

// classifyContextError maps a context failure to a classification reason.
func classifyContextError(err error) *entity.ClassificationError {
	if errors.Is(err, context.DeadlineExceeded) {
		return entity.NewClassificationError(entity.ReasonTimeout, err)
	}
	return entity.NewClassificationError(entity.ReasonUpstreamUnavailable, err)
}

// scoresFromLabels builds a triple from label/score pairs. Labels are
// matched case-insensitively; every label must be present.
func scoresFromLabels(labels map[string]float64) (entity.SentimentScores, error) {
	var scores entity.SentimentScores
	seen := 0
	for label, score := range labels {
		switch strings.ToLower(strings.TrimSpace(label)) {
		case "positive":
			scores.Positive = score
		case "negative":
			scores.Negative = score
		case "neutral":
			scores.Neutral = score
		default:
			continue
		}
		seen++
	}
	if seen != 3 {
		return entity.SentimentScores{}, fmt.Errorf("expected positive, negative and neutral labels, got %d", seen)
	}
	if err := scores.Validate(); err != nil {
		return entity.SentimentScores{}, err
	}
	return scores, nil
}
