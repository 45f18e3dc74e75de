package strategy

import (
	"fmt"

	"golang-headline-signal/internal/entity"
)

const (
	DefaultBuyThreshold  = 0.6
	DefaultSellThreshold = 0.6
)

// Thresholds are the probabilities a sentiment must strictly exceed to
// produce a directional signal.
type Thresholds struct {
	Buy  float64 `json:"buy"`
	Sell float64 `json:"sell"`
}

// DefaultThresholds returns the 0.6 / 0.6 policy.
func DefaultThresholds() Thresholds {
	return Thresholds{Buy: DefaultBuyThreshold, Sell: DefaultSellThreshold}
}

// Validate requires both thresholds to lie in (0, 1).
func (t Thresholds) Validate() error {
	if t.Buy <= 0 || t.Buy >= 1 {
		return entity.NewValidationError("thresholds.buy", "must be in (0,1), got %v", t.Buy)
	}
	if t.Sell <= 0 || t.Sell >= 1 {
		return entity.NewValidationError("thresholds.sell", "must be in (0,1), got %v", t.Sell)
	}
	return nil
}

func (t Thresholds) String() string {
	return fmt.Sprintf("buy>%.3f sell>%.3f", t.Buy, t.Sell)
}

// Decide maps scores to a signal. It is pure and total:
//
//	positive > t.Buy  => BUY
//	negative > t.Sell => SELL
//	otherwise         => HOLD
//
// When both positive and negative exceed their thresholds BUY wins, because
// the positive check runs first.
func Decide(scores entity.SentimentScores, t Thresholds) entity.TradingSignal {
	if scores.Positive > t.Buy {
		return entity.SignalBuy
	}
	if scores.Negative > t.Sell {
		return entity.SignalSell
	}
	return entity.SignalHold
}
