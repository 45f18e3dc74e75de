package entity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strings"
	"time"
)

// TradingSignal is the discrete action derived from sentiment scores.
type TradingSignal string

const (
	SignalBuy  TradingSignal = "BUY"
	SignalSell TradingSignal = "SELL"
	SignalHold TradingSignal = "HOLD"
)

// ScoreSumTolerance is how far a probability triple may drift from 1.0.
const ScoreSumTolerance = 1e-3

// ScoringRequest asks for one headline to be scored for one symbol.
type ScoringRequest struct {
	Symbol    string `json:"symbol"`
	Headline  string `json:"headline"`
	RequestID string `json:"request_id,omitempty"`
	// Source names the ingestion path (api, stream, feed, tradingview).
	Source string `json:"source,omitempty"`
}

// CacheKey identifies a request for caching and coalescing. Two requests
// with the same key must produce the same scores.
type CacheKey struct {
	Symbol   string
	Headline string
}

// Key returns the normalized identity of the request.
func (r ScoringRequest) Key() CacheKey {
	return CacheKey{
		Symbol:   strings.ToUpper(strings.TrimSpace(r.Symbol)),
		Headline: strings.ToLower(strings.TrimSpace(r.Headline)),
	}
}

func (k CacheKey) String() string {
	return k.Symbol + "|" + k.Headline
}

// SentimentScores is a probability distribution over the three labels.
type SentimentScores struct {
	Positive float64 `json:"positive"`
	Negative float64 `json:"negative"`
	Neutral  float64 `json:"neutral"`
}

// Validate checks that every score is a probability and the triple sums to
// 1 within ScoreSumTolerance.
func (s SentimentScores) Validate() error {
	for label, v := range map[string]float64{"positive": s.Positive, "negative": s.Negative, "neutral": s.Neutral} {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return fmt.Errorf("%s score %v out of range [0,1]", label, v)
		}
	}
	sum := s.Positive + s.Negative + s.Neutral
	if math.Abs(sum-1) > ScoreSumTolerance {
		return fmt.Errorf("scores sum to %.6f, want 1.0", sum)
	}
	return nil
}

// Result is a scored headline. It is a value type and never mutated after
// it is built.
type Result struct {
	Request    ScoringRequest  `json:"request"`
	Scores     SentimentScores `json:"scores"`
	Signal     TradingSignal   `json:"signal"`
	ComputedAt time.Time       `json:"computed_at"`
	CacheHit   bool            `json:"cache_hit"`
	Model      string          `json:"model"`
}

// IdempotencyKey derives a stable key from the model, the normalized request
// and the result content. Recomputing the same headline with the same
// outcome yields the same key, whenever it was computed.
func (r Result) IdempotencyKey() string {
	key := r.Request.Key()
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00%s\x00%.6f\x00%.6f\x00%.6f",
		r.Model, key.Symbol, key.Headline, r.Signal,
		r.Scores.Positive, r.Scores.Negative, r.Scores.Neutral)
	return hex.EncodeToString(h.Sum(nil))
}
