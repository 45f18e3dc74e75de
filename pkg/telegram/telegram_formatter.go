package telegram

import (
	"fmt"
	"html"
	"strings"
	"time"

	"golang-headline-signal/internal/entity"
	"golang-headline-signal/pkg/utils"
)

// FormatErrorAlertMessage formats a generic operational alert.
func FormatErrorAlertMessage(at time.Time, errType string, errMsg string, data string) string {
	return fmt.Sprintf(`📛 [ERROR ALERT]
%s
🔧 %s
⚠️ %s

📄 Data: %s
`, utils.PrettyDate(at), html.EscapeString(errType), html.EscapeString(errMsg), html.EscapeString(data))
}

// FormatDeliveryFailedMessage formats the alert sent when a webhook delivery
// has exhausted its retry budget.
func FormatDeliveryFailedMessage(attempt *entity.DeliveryAttempt) string {
	var sb strings.Builder
	res := attempt.Result

	sb.WriteString("📛 <b>Webhook delivery failed</b>\n")
	sb.WriteString(fmt.Sprintf("🔗 Endpoint: %s\n", html.EscapeString(attempt.Endpoint)))
	sb.WriteString(fmt.Sprintf("🔁 Attempts: %d\n", attempt.AttemptNumber))
	sb.WriteString(fmt.Sprintf("🔑 Idempotency key: <code>%s</code>\n", attempt.IdempotencyKey))
	sb.WriteString(fmt.Sprintf("%s [%s] %s\n", signalIcon(res.Signal), html.EscapeString(res.Request.Symbol), res.Signal))
	sb.WriteString(fmt.Sprintf("📰 %s\n", html.EscapeString(res.Request.Headline)))
	if attempt.LastError != "" {
		sb.WriteString(fmt.Sprintf("⚠️ %s\n", html.EscapeString(attempt.LastError)))
	}
	sb.WriteString(utils.PrettyDate(time.Now()))
	return sb.String()
}

// FormatSignalMessage formats a scored headline for a chat notification.
func FormatSignalMessage(res entity.Result) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s <b>[%s] %s</b>\n", signalIcon(res.Signal), html.EscapeString(res.Request.Symbol), res.Signal))
	sb.WriteString(fmt.Sprintf("📰 %s\n", html.EscapeString(res.Request.Headline)))
	sb.WriteString(fmt.Sprintf("😊 %.0f%%  😟 %.0f%%  😐 %.0f%%\n",
		res.Scores.Positive*100, res.Scores.Negative*100, res.Scores.Neutral*100))
	sb.WriteString(utils.PrettyDate(res.ComputedAt))
	return sb.String()
}

func signalIcon(signal entity.TradingSignal) string {
	switch signal {
	case entity.SignalBuy:
		return "🟢"
	case entity.SignalSell:
		return "🔴"
	default:
		return "🟡"
	}
}
