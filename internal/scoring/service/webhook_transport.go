package service

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
)

// WebhookTransport performs one HTTP POST and reports the status code.
type WebhookTransport interface {
	Post(ctx context.Context, url string, headers map[string]string, body []byte) (int, error)
}

type restyTransport struct {
	client *resty.Client
}

// NewRestyTransport creates a transport with retries disabled; the
// dispatcher owns the retry schedule.
func NewRestyTransport(timeout time.Duration) WebhookTransport {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("User-Agent", "headline-signal-webhook/1.0")
	return &restyTransport{client: client}
}

func (t *restyTransport) Post(ctx context.Context, url string, headers map[string]string, body []byte) (int, error) {
	resp, err := t.client.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetBody(body).
		Post(url)
	if err != nil {
		return 0, err
	}
	return resp.StatusCode(), nil
}
