package utils

import (
	"fmt"
	"strings"
	"time"
)

// PrettyDate renders t for human-facing messages, e.g. "Mon, 02 Jan 2006 15:04:05 UTC".
func PrettyDate(t time.Time) string {
	return t.UTC().Format("Mon, 02 Jan 2006 15:04:05 MST")
}

// ParseTimestamp parses an ISO-8601 timestamp as sent by TradingView alerts.
// A trailing "Z" and timestamps without a zone are both accepted; the latter
// are read as UTC.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	layouts := []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02T15:04:05"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp format: %q", value)
}
