package dto

import (
	"time"

	"golang-headline-signal/internal/entity"
)

// CreateWebhookRequest registers a delivery endpoint.
type CreateWebhookRequest struct {
	URL         string   `json:"url" validate:"required,url" example:"https://example.com/hooks/signals"`
	Description string   `json:"description"`
	Secret      string   `json:"secret,omitempty"`
	Symbols     []string `json:"symbols,omitempty" validate:"omitempty,dive,required,max=16"`
}

// WebhookResponse is a registered endpoint. The secret is never returned.
type WebhookResponse struct {
	ID          uint      `json:"id"`
	URL         string    `json:"url"`
	Description string    `json:"description"`
	Symbols     []string  `json:"symbols"`
	IsActive    bool      `json:"is_active"`
	HasSecret   bool      `json:"has_secret"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewWebhookResponse(e entity.WebhookEndpoint) WebhookResponse {
	symbols := []string(e.Symbols)
	if symbols == nil {
		symbols = []string{}
	}
	return WebhookResponse{
		ID:          e.ID,
		URL:         e.URL,
		Description: e.Description,
		Symbols:     symbols,
		IsActive:    e.IsActive,
		HasSecret:   e.Secret != "",
		CreatedAt:   e.CreatedAt,
	}
}

// WebhookPayload is the body POSTed to subscribers.
type WebhookPayload struct {
	SignalResponse
	IdempotencyKey string `json:"idempotency_key"`
	AttemptNumber  int    `json:"attempt_number"`
}

func NewWebhookPayload(attempt *entity.DeliveryAttempt) WebhookPayload {
	return WebhookPayload{
		SignalResponse: NewSignalResponse(attempt.Result),
		IdempotencyKey: attempt.IdempotencyKey,
		AttemptNumber:  attempt.AttemptNumber,
	}
}

// SignalRecordResponse is one row of GET /signals.
type SignalRecordResponse struct {
	ID              int64              `json:"id"`
	Symbol          string             `json:"symbol"`
	Headline        string             `json:"headline"`
	TradingSignal   string             `json:"trading_signal"`
	SentimentScores SentimentScoresDTO `json:"sentiment_scores"`
	Model           string             `json:"model"`
	Source          string             `json:"source"`
	ComputedAt      time.Time          `json:"computed_at"`
}

func NewSignalRecordResponse(r entity.SignalRecord) SignalRecordResponse {
	return SignalRecordResponse{
		ID:            r.ID,
		Symbol:        r.Symbol,
		Headline:      r.Headline,
		TradingSignal: r.Signal,
		SentimentScores: SentimentScoresDTO{
			Positive: r.PositiveScore,
			Negative: r.NegativeScore,
			Neutral:  r.NeutralScore,
		},
		Model:      r.Model,
		Source:     r.Source,
		ComputedAt: r.ComputedAt,
	}
}

// StreamHeadline is the JSON carried in the 'payload' field of the headline
// stream.
type StreamHeadline struct {
	Symbol    string `json:"symbol"`
	Headline  string `json:"headline"`
	RequestID string `json:"request_id"`
	Source    string `json:"source"`
}
