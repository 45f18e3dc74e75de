package dto

import (
	"time"

	"golang-headline-signal/internal/entity"
)

// ThresholdsDTO overrides the configured signal thresholds for one request.
type ThresholdsDTO struct {
	Buy  float64 `json:"buy" validate:"gt=0,lt=1" example:"0.6"`
	Sell float64 `json:"sell" validate:"gt=0,lt=1" example:"0.6"`
}

// AnalyzeRequest is the body of POST /analyze.
type AnalyzeRequest struct {
	Symbol     string         `json:"symbol" validate:"omitempty,max=16" example:"AAPL"`
	Headline   string         `json:"headline" validate:"required" example:"Apple beats quarterly earnings expectations"`
	RequestID  string         `json:"request_id,omitempty"`
	Thresholds *ThresholdsDTO `json:"thresholds,omitempty"`
}

// BatchItem is one headline inside a batch.
type BatchItem struct {
	Symbol    string `json:"symbol" example:"AAPL"`
	Headline  string `json:"headline" example:"Apple beats quarterly earnings expectations"`
	RequestID string `json:"request_id,omitempty"`
}

// AnalyzeBatchRequest is the body of POST /analyze-batch. Headlines is the
// plain-text form; Items carries symbols. Both may be combined, Items first.
type AnalyzeBatchRequest struct {
	Items      []BatchItem    `json:"items"`
	Headlines  []string       `json:"headlines"`
	Thresholds *ThresholdsDTO `json:"thresholds,omitempty"`
}

// TradingViewRequest is an inbound TradingView alert.
type TradingViewRequest struct {
	Headline  string `json:"headline" validate:"required" example:"Tesla recalls 2 million vehicles"`
	Symbol    string `json:"symbol" validate:"required,max=16" example:"TSLA"`
	Timestamp string `json:"timestamp" validate:"required" example:"2024-01-15T14:30:00Z"`
}

// SentimentScoresDTO is the probability triple in API payloads.
type SentimentScoresDTO struct {
	Positive float64 `json:"positive"`
	Negative float64 `json:"negative"`
	Neutral  float64 `json:"neutral"`
}

// SignalResponse is the scored form of a headline.
type SignalResponse struct {
	Timestamp       time.Time          `json:"timestamp"`
	Symbol          string             `json:"symbol"`
	Headline        string             `json:"headline"`
	RequestID       string             `json:"request_id,omitempty"`
	SentimentScores SentimentScoresDTO `json:"sentiment_scores"`
	TradingSignal   string             `json:"trading_signal" enums:"BUY,SELL,HOLD"`
	CacheHit        bool               `json:"cache_hit"`
	Model           string             `json:"model"`
}

// BatchItemResponse is one outcome of a batch, in input order. Exactly one
// of Data and Error is set.
type BatchItemResponse struct {
	Index  int             `json:"index"`
	Status string          `json:"status"`
	Data   *SignalResponse `json:"data,omitempty"`
	Error  *ErrorDetail    `json:"error,omitempty"`
}

// BatchSummary counts batch outcomes.
type BatchSummary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// BatchResponse is the data of POST /analyze-batch.
type BatchResponse struct {
	Results []BatchItemResponse `json:"results"`
	Summary BatchSummary        `json:"summary"`
}

// NewSignalResponse converts a Result for the API.
func NewSignalResponse(res entity.Result) SignalResponse {
	return SignalResponse{
		Timestamp: res.ComputedAt,
		Symbol:    res.Request.Symbol,
		Headline:  res.Request.Headline,
		RequestID: res.Request.RequestID,
		SentimentScores: SentimentScoresDTO{
			Positive: res.Scores.Positive,
			Negative: res.Scores.Negative,
			Neutral:  res.Scores.Neutral,
		},
		TradingSignal: string(res.Signal),
		CacheHit:      res.CacheHit,
		Model:         res.Model,
	}
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status      string    `json:"status" example:"healthy"`
	Timestamp   time.Time `json:"timestamp"`
	ModelLoaded bool      `json:"model_loaded"`
	Model       string    `json:"model"`
}
