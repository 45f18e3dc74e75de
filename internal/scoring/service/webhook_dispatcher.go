package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang-headline-signal/internal/entity"
	"golang-headline-signal/internal/scoring/config"
	"golang-headline-signal/internal/scoring/dto"
	"golang-headline-signal/internal/scoring/repository"
	"golang-headline-signal/pkg/logger"
	"golang-headline-signal/pkg/metrics"
	"golang-headline-signal/pkg/telegram"
	"golang-headline-signal/pkg/utils"

	"github.com/cenkalti/backoff/v5"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderAttemptNumber  = "X-Attempt-Number"
	HeaderSignature      = "X-Signature-256"
)

// EndpointSource lists the endpoints subscribed to deliveries.
type EndpointSource interface {
	FindActive(ctx context.Context) ([]entity.WebhookEndpoint, error)
}

// WebhookDispatcher pushes results to subscriber endpoints with
// at-least-once semantics.
type WebhookDispatcher interface {
	// Deliver sends result to every endpoint concurrently and blocks until
	// each delivery reached a terminal state. Reports follow endpoint order.
	Deliver(ctx context.Context, result entity.Result, endpoints []entity.WebhookEndpoint) []*entity.DeliveryAttempt
	// Enqueue delivers result to all subscribed endpoints in the background.
	Enqueue(result entity.Result)
	// Wait blocks until every enqueued delivery finished.
	Wait()
}

type webhookDispatcher struct {
	cfg          *config.Config
	log          *logger.Logger
	transport    WebhookTransport
	endpoints    EndpointSource
	deliveryRepo repository.WebhookDeliveryRepository
	telegramBot  telegram.Notifier

	jobs           chan struct{}
	wg             sync.WaitGroup
	endpointLocks  sync.Map
	router         *serialQueue
	endpointQueues sync.Map
	baseCtx        context.Context
	sleep          func(ctx context.Context, d time.Duration) error
	now            func() time.Time
}

// NewWebhookDispatcher creates a dispatcher. endpoints, deliveryRepo and
// telegramBot may be nil.
func NewWebhookDispatcher(
	cfg *config.Config,
	log *logger.Logger,
	transport WebhookTransport,
	endpoints EndpointSource,
	deliveryRepo repository.WebhookDeliveryRepository,
	telegramBot telegram.Notifier,
) WebhookDispatcher {
	return newWebhookDispatcher(cfg, log, transport, endpoints, deliveryRepo, telegramBot)
}

func newWebhookDispatcher(
	cfg *config.Config,
	log *logger.Logger,
	transport WebhookTransport,
	endpoints EndpointSource,
	deliveryRepo repository.WebhookDeliveryRepository,
	telegramBot telegram.Notifier,
) *webhookDispatcher {
	maxJobs := cfg.Webhook.MaxConcurrentJobs
	if maxJobs <= 0 {
		maxJobs = 1
	}
	return &webhookDispatcher{
		cfg:          cfg,
		log:          log,
		transport:    transport,
		endpoints:    endpoints,
		deliveryRepo: deliveryRepo,
		telegramBot:  telegramBot,
		jobs:         make(chan struct{}, maxJobs),
		router:       newSerialQueue(log),
		baseCtx:      context.Background(),
		sleep:        sleepContext,
		now:          time.Now,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Enqueue delivers in the background. With serialize_per_endpoint each
// endpoint receives results in the order Enqueue was called.
func (d *webhookDispatcher) Enqueue(result entity.Result) {
	d.wg.Add(1)
	if d.cfg.Webhook.SerializePerEndpoint {
		d.router.push(func() {
			defer d.wg.Done()
			d.route(result)
		})
		return
	}

	utils.GoSafe(d.log, func() {
		defer d.wg.Done()

		d.jobs <- struct{}{}
		defer func() { <-d.jobs }()

		endpoints, err := d.subscribers(d.baseCtx, result.Request.Symbol)
		if err != nil {
			d.log.Error("Failed to load webhook endpoints", logger.ErrorField(err))
			return
		}
		if len(endpoints) == 0 {
			return
		}
		d.Deliver(d.baseCtx, result, endpoints)
	})
}

// route resolves the subscribers of result and appends one delivery per
// endpoint to that endpoint's queue. It runs on the router queue, so
// endpoint queues are fed in Enqueue order.
func (d *webhookDispatcher) route(result entity.Result) {
	endpoints, err := d.subscribers(d.baseCtx, result.Request.Symbol)
	if err != nil {
		d.log.Error("Failed to load webhook endpoints", logger.ErrorField(err))
		return
	}
	for _, endpoint := range endpoints {
		d.wg.Add(1)
		d.endpointQueue(endpoint.URL).push(func() {
			defer d.wg.Done()

			d.jobs <- struct{}{}
			defer func() { <-d.jobs }()

			d.deliver(d.baseCtx, result, endpoint)
		})
	}
}

func (d *webhookDispatcher) endpointQueue(url string) *serialQueue {
	q, _ := d.endpointQueues.LoadOrStore(url, newSerialQueue(d.log))
	return q.(*serialQueue)
}

func (d *webhookDispatcher) Wait() {
	d.wg.Wait()
}

// subscribers returns the static endpoints plus the registered endpoints
// that accept symbol, without duplicate URLs.
func (d *webhookDispatcher) subscribers(ctx context.Context, symbol string) ([]entity.WebhookEndpoint, error) {
	seen := make(map[string]bool)
	var out []entity.WebhookEndpoint
	for _, url := range d.cfg.Webhook.StaticEndpoints {
		if url == "" || seen[url] {
			continue
		}
		seen[url] = true
		out = append(out, entity.WebhookEndpoint{URL: url, IsActive: true})
	}

	if d.endpoints == nil {
		return out, nil
	}
	registered, err := d.endpoints.FindActive(ctx)
	if err != nil {
		return out, fmt.Errorf("failed to find active endpoints: %w", err)
	}
	for _, e := range registered {
		if seen[e.URL] || !e.Accepts(symbol) {
			continue
		}
		seen[e.URL] = true
		out = append(out, e)
	}
	return out, nil
}

func (d *webhookDispatcher) Deliver(ctx context.Context, result entity.Result, endpoints []entity.WebhookEndpoint) []*entity.DeliveryAttempt {
	reports := make([]*entity.DeliveryAttempt, len(endpoints))

	var wg sync.WaitGroup
	for i, endpoint := range endpoints {
		wg.Add(1)
		utils.GoSafe(d.log, func() {
			defer wg.Done()
			reports[i] = d.deliver(ctx, result, endpoint)
		})
	}
	wg.Wait()

	for i, r := range reports {
		if r == nil {
			// The delivery goroutine panicked.
			r = entity.NewDeliveryAttempt(result, endpoints[i].URL)
			r.LastError = "delivery aborted"
			r.Transition(entity.DeliveryFailed, d.now())
			reports[i] = r
		}
	}
	return reports
}

// deliver runs the state machine for one endpoint until it reaches Success
// or Failed.
func (d *webhookDispatcher) deliver(ctx context.Context, result entity.Result, endpoint entity.WebhookEndpoint) *entity.DeliveryAttempt {
	if d.cfg.Webhook.SerializePerEndpoint {
		lock := d.endpointLock(endpoint.URL)
		lock.Lock()
		defer lock.Unlock()
	}

	attempt := entity.NewDeliveryAttempt(result, endpoint.URL)

	maxAttempts := d.cfg.Webhook.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	b := d.newBackOff()

	for {
		if err := ctx.Err(); err != nil {
			attempt.LastError = err.Error()
			attempt.Transition(entity.DeliveryFailed, d.now())
			break
		}

		attempt.AttemptNumber++
		err := d.send(ctx, endpoint, attempt)
		if err == nil {
			metrics.WebhookAttemptsTotal.WithLabelValues("success").Inc()
			attempt.LastError = ""
			attempt.Transition(entity.DeliverySuccess, d.now())
			break
		}

		metrics.WebhookAttemptsTotal.WithLabelValues("failure").Inc()
		attempt.LastError = err.Error()
		d.log.Warn("Webhook attempt failed",
			logger.ErrorField(err),
			logger.StringField("endpoint", endpoint.URL),
			logger.IntField("attempt", attempt.AttemptNumber),
			logger.StringField("idempotency_key", attempt.IdempotencyKey),
		)

		if attempt.AttemptNumber >= maxAttempts || !d.retryable(err) {
			attempt.Transition(entity.DeliveryFailed, d.now())
			break
		}

		attempt.Transition(entity.DeliveryRetrying, d.now())
		wait := b.NextBackOff()
		if wait == backoff.Stop {
			wait = b.MaxInterval
		}
		_ = d.sleep(ctx, wait)
		attempt.Transition(entity.DeliveryPending, d.now())
	}

	d.finish(ctx, attempt)
	return attempt
}

// newBackOff doubles the wait from webhook.initial_backoff up to
// webhook.max_backoff, with the library's default jitter.
func (d *webhookDispatcher) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.Multiplier = 2
	if d.cfg.Webhook.InitialBackoff > 0 {
		b.InitialInterval = d.cfg.Webhook.InitialBackoff
	}
	if d.cfg.Webhook.MaxBackoff > 0 {
		b.MaxInterval = d.cfg.Webhook.MaxBackoff
	}
	b.Reset()
	return b
}

func (d *webhookDispatcher) endpointLock(url string) *sync.Mutex {
	lock, _ := d.endpointLocks.LoadOrStore(url, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// send performs one attempt bounded by the attempt timeout.
func (d *webhookDispatcher) send(ctx context.Context, endpoint entity.WebhookEndpoint, attempt *entity.DeliveryAttempt) error {
	body, err := json.Marshal(dto.NewWebhookPayload(attempt))
	if err != nil {
		return &entity.DeliveryError{Endpoint: endpoint.URL, Err: fmt.Errorf("failed to marshal payload: %w", err)}
	}

	headers := map[string]string{
		"Content-Type":       "application/json",
		HeaderIdempotencyKey: attempt.IdempotencyKey,
		HeaderAttemptNumber:  strconv.Itoa(attempt.AttemptNumber),
	}
	if endpoint.Secret != "" {
		headers[HeaderSignature] = "sha256=" + Sign(endpoint.Secret, body)
	}

	timeout := d.cfg.Webhook.AttemptTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	status, err := d.transport.Post(actx, endpoint.URL, headers, body)
	if err != nil {
		return &entity.DeliveryError{Endpoint: endpoint.URL, Err: err}
	}
	if status < 200 || status >= 300 {
		return &entity.DeliveryError{Endpoint: endpoint.URL, StatusCode: status}
	}
	return nil
}

// retryable reports whether another attempt should be made. Every failure
// is retried unless webhook.fail_fast_client_errors is set, in which case
// client errors other than timeouts and rate limits are permanent.
func (d *webhookDispatcher) retryable(err error) bool {
	if !d.cfg.Webhook.FailFastClientErrors {
		return true
	}
	de, ok := err.(*entity.DeliveryError)
	if !ok || de.StatusCode == 0 {
		return true
	}
	switch de.StatusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return true
	}
	return de.StatusCode < 400 || de.StatusCode >= 500
}

// Sign returns the hex HMAC-SHA256 of body keyed by secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// finish records the terminal state. Persisting and alerting use a fresh
// context so a cancelled delivery is still recorded.
func (d *webhookDispatcher) finish(ctx context.Context, attempt *entity.DeliveryAttempt) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	metrics.WebhookDeliveriesTotal.WithLabelValues(string(attempt.State)).Inc()

	if attempt.State == entity.DeliveryFailed {
		d.log.Error("Webhook delivery failed",
			logger.StringField("endpoint", attempt.Endpoint),
			logger.StringField("symbol", attempt.Result.Request.Symbol),
			logger.StringField("idempotency_key", attempt.IdempotencyKey),
			logger.IntField("attempts", attempt.AttemptNumber),
			logger.StringField("last_error", attempt.LastError),
		)
		if d.telegramBot != nil {
			if err := d.telegramBot.SendMessage(telegram.FormatDeliveryFailedMessage(attempt)); err != nil {
				d.log.Error("Failed to send delivery failure alert", logger.ErrorField(err))
			}
		}
	} else {
		d.log.Debug("Webhook delivered",
			logger.StringField("endpoint", attempt.Endpoint),
			logger.IntField("attempts", attempt.AttemptNumber),
		)
	}

	if d.deliveryRepo == nil {
		return
	}
	err := d.deliveryRepo.Create(ctx, &entity.WebhookDelivery{
		IdempotencyKey: attempt.IdempotencyKey,
		Endpoint:       attempt.Endpoint,
		Symbol:         attempt.Result.Request.Symbol,
		Signal:         string(attempt.Result.Signal),
		Status:         string(attempt.State),
		Attempts:       attempt.AttemptNumber,
		LastError:      attempt.LastError,
	})
	if err != nil {
		d.log.Error("Failed to record webhook delivery", logger.ErrorField(err))
	}
}
