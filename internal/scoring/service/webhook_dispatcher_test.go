package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"golang-headline-signal/internal/entity"
	"golang-headline-signal/internal/scoring/config"
	"golang-headline-signal/internal/scoring/dto"
	"golang-headline-signal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type receivedCall struct {
	idempotencyKey string
	attempt        string
	signature      string
	body           []byte
}

type receiver struct {
	mu       sync.Mutex
	calls    []receivedCall
	statuses []int
	server   *httptest.Server
}

// newReceiver answers with statuses in order, then 200 for every later call.
func newReceiver(t *testing.T, statuses ...int) *receiver {
	t.Helper()
	r := &receiver{statuses: statuses}
	r.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		body, _ := io.ReadAll(req.Body)
		r.mu.Lock()
		r.calls = append(r.calls, receivedCall{
			idempotencyKey: req.Header.Get(HeaderIdempotencyKey),
			attempt:        req.Header.Get(HeaderAttemptNumber),
			signature:      req.Header.Get(HeaderSignature),
			body:           body,
		})
		status := http.StatusOK
		if len(r.calls) <= len(r.statuses) {
			status = r.statuses[len(r.calls)-1]
		}
		r.mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(r.server.Close)
	return r
}

func (r *receiver) received() []receivedCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]receivedCall(nil), r.calls...)
}

type dispatcherFixture struct {
	d          *webhookDispatcher
	deliveries *fakeDeliveryRepo
	notifier   *fakeNotifier
	sleeps     []time.Duration
	mu         sync.Mutex
}

func newDispatcherFixture(t *testing.T, endpoints EndpointSource, mutate func(cfg *config.Config)) *dispatcherFixture {
	t.Helper()
	cfg := testConfig()
	if mutate != nil {
		mutate(cfg)
	}
	f := &dispatcherFixture{deliveries: &fakeDeliveryRepo{}, notifier: &fakeNotifier{}}
	f.d = newWebhookDispatcher(cfg, logger.NewNop(), NewRestyTransport(time.Second), endpoints, f.deliveries, f.notifier)
	f.d.sleep = func(ctx context.Context, d time.Duration) error {
		f.mu.Lock()
		f.sleeps = append(f.sleeps, d)
		f.mu.Unlock()
		return ctx.Err()
	}
	return f
}

func sampleResult() entity.Result {
	return entity.Result{
		Request:    entity.ScoringRequest{Symbol: "AAPL", Headline: "Apple beats earnings"},
		Scores:     entity.SentimentScores{Positive: 0.8, Negative: 0.1, Neutral: 0.1},
		Signal:     entity.SignalBuy,
		ComputedAt: time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC),
		Model:      "fake-finbert",
	}
}

func TestDeliver_RetriesUntilSuccess(t *testing.T) {
	rcv := newReceiver(t, http.StatusInternalServerError, http.StatusBadGateway)
	f := newDispatcherFixture(t, nil, nil)
	res := sampleResult()

	reports := f.d.Deliver(context.Background(), res, []entity.WebhookEndpoint{{URL: rcv.server.URL}})
	require.Len(t, reports, 1)
	report := reports[0]

	assert.Equal(t, entity.DeliverySuccess, report.State)
	assert.Equal(t, 3, report.AttemptNumber)
	assert.Equal(t, 2, report.CountTransitionsTo(entity.DeliveryRetrying))
	assert.Equal(t, 1, report.CountTransitionsTo(entity.DeliverySuccess))
	assert.Len(t, f.sleeps, 2)

	calls := rcv.received()
	require.Len(t, calls, 3)
	for i, c := range calls {
		assert.Equal(t, res.IdempotencyKey(), c.idempotencyKey)
		assert.Equal(t, []string{"1", "2", "3"}[i], c.attempt)

		var payload dto.WebhookPayload
		require.NoError(t, json.Unmarshal(c.body, &payload))
		assert.Equal(t, res.IdempotencyKey(), payload.IdempotencyKey)
		assert.Equal(t, i+1, payload.AttemptNumber)
		assert.Equal(t, "BUY", payload.TradingSignal)
		assert.Equal(t, "AAPL", payload.Symbol)
	}

	deliveries := f.deliveries.all()
	require.Len(t, deliveries, 1)
	assert.Equal(t, "SUCCESS", deliveries[0].Status)
	assert.Equal(t, 0, f.notifier.count())
}

func TestDeliver_FailsAfterMaxAttempts(t *testing.T) {
	rcv := newReceiver(t, 500, 500, 500, 500, 500, 500)
	f := newDispatcherFixture(t, nil, func(cfg *config.Config) { cfg.Webhook.MaxAttempts = 3 })

	reports := f.d.Deliver(context.Background(), sampleResult(), []entity.WebhookEndpoint{{URL: rcv.server.URL}})
	report := reports[0]

	assert.Equal(t, entity.DeliveryFailed, report.State)
	assert.Equal(t, 3, report.AttemptNumber)
	assert.Equal(t, 2, report.CountTransitionsTo(entity.DeliveryRetrying))
	assert.NotEmpty(t, report.LastError)
	assert.Len(t, rcv.received(), 3)

	deliveries := f.deliveries.all()
	require.Len(t, deliveries, 1)
	assert.Equal(t, "FAILED", deliveries[0].Status)
	assert.Equal(t, 3, deliveries[0].Attempts)
	assert.Equal(t, 1, f.notifier.count())
}

func TestDeliver_ClientErrorIsRetried(t *testing.T) {
	rcv := newReceiver(t, http.StatusBadRequest, http.StatusNotFound)
	f := newDispatcherFixture(t, nil, nil)

	report := f.d.Deliver(context.Background(), sampleResult(), []entity.WebhookEndpoint{{URL: rcv.server.URL}})[0]
	assert.Equal(t, entity.DeliverySuccess, report.State)
	assert.Equal(t, 3, report.AttemptNumber)
	assert.Equal(t, 2, report.CountTransitionsTo(entity.DeliveryRetrying))
	assert.Len(t, rcv.received(), 3)
}

func TestDeliver_ClientErrorFailsFastWhenConfigured(t *testing.T) {
	rcv := newReceiver(t, http.StatusBadRequest)
	f := newDispatcherFixture(t, nil, func(cfg *config.Config) { cfg.Webhook.FailFastClientErrors = true })

	report := f.d.Deliver(context.Background(), sampleResult(), []entity.WebhookEndpoint{{URL: rcv.server.URL}})[0]
	assert.Equal(t, entity.DeliveryFailed, report.State)
	assert.Equal(t, 1, report.AttemptNumber)
	assert.Len(t, rcv.received(), 1)
}

func TestDeliver_RateLimitIsRetried(t *testing.T) {
	rcv := newReceiver(t, http.StatusTooManyRequests)
	f := newDispatcherFixture(t, nil, func(cfg *config.Config) { cfg.Webhook.FailFastClientErrors = true })

	report := f.d.Deliver(context.Background(), sampleResult(), []entity.WebhookEndpoint{{URL: rcv.server.URL}})[0]
	assert.Equal(t, entity.DeliverySuccess, report.State)
	assert.Equal(t, 2, report.AttemptNumber)
}

func TestDeliver_SignsBodyWhenSecretSet(t *testing.T) {
	rcv := newReceiver(t)
	f := newDispatcherFixture(t, nil, nil)

	f.d.Deliver(context.Background(), sampleResult(), []entity.WebhookEndpoint{{URL: rcv.server.URL, Secret: "s3cret"}})

	calls := rcv.received()
	require.Len(t, calls, 1)
	assert.Equal(t, "sha256="+Sign("s3cret", calls[0].body), calls[0].signature)
}

func TestDeliver_EndpointsAreIndependent(t *testing.T) {
	down := newReceiver(t, 500, 500, 500, 500, 500)
	up := newReceiver(t)
	f := newDispatcherFixture(t, nil, nil)

	reports := f.d.Deliver(context.Background(), sampleResult(), []entity.WebhookEndpoint{
		{URL: down.server.URL},
		{URL: up.server.URL},
	})
	require.Len(t, reports, 2)
	assert.Equal(t, down.server.URL, reports[0].Endpoint)
	assert.Equal(t, entity.DeliveryFailed, reports[0].State)
	assert.Equal(t, entity.DeliverySuccess, reports[1].State)
	assert.Equal(t, 1, reports[1].AttemptNumber)
	assert.Equal(t, reports[0].IdempotencyKey, reports[1].IdempotencyKey)
}

func TestDeliver_CancelledContextFails(t *testing.T) {
	rcv := newReceiver(t, 500)
	f := newDispatcherFixture(t, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	f.d.sleep = func(context.Context, time.Duration) error {
		cancel()
		return context.Canceled
	}

	report := f.d.Deliver(ctx, sampleResult(), []entity.WebhookEndpoint{{URL: rcv.server.URL}})[0]
	assert.Equal(t, entity.DeliveryFailed, report.State)
	assert.Equal(t, 1, report.AttemptNumber)

	var states []entity.DeliveryState
	for _, tr := range report.Transitions {
		states = append(states, tr.To)
	}
	assert.Equal(t, []entity.DeliveryState{entity.DeliveryRetrying, entity.DeliveryPending, entity.DeliveryFailed}, states)
}

func TestEnqueue_DeliversToSubscribedEndpoints(t *testing.T) {
	static := newReceiver(t)
	subscribed := newReceiver(t)
	other := newReceiver(t)

	source := &fakeEndpointSource{endpoints: []entity.WebhookEndpoint{
		{URL: subscribed.server.URL, Symbols: []string{"AAPL"}, IsActive: true},
		{URL: other.server.URL, Symbols: []string{"TSLA"}, IsActive: true},
		{URL: static.server.URL, IsActive: true},
	}}
	f := newDispatcherFixture(t, source, func(cfg *config.Config) {
		cfg.Webhook.StaticEndpoints = []string{static.server.URL}
	})

	f.d.Enqueue(sampleResult())
	f.d.Wait()

	assert.Len(t, static.received(), 1, "static endpoint listed twice is delivered once")
	assert.Len(t, subscribed.received(), 1)
	assert.Len(t, other.received(), 0)
	assert.Len(t, f.deliveries.all(), 2)
}

func TestDeliver_SerializesPerEndpoint(t *testing.T) {
	var mu sync.Mutex
	active, peak := 0, 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		active++
		if active > peak {
			peak = active
		}
		mu.Unlock()
		time.Sleep(10 * time.Millisecond)
		mu.Lock()
		active--
		mu.Unlock()
	}))
	defer srv.Close()

	f := newDispatcherFixture(t, nil, func(cfg *config.Config) { cfg.Webhook.SerializePerEndpoint = true })

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.d.Deliver(context.Background(), sampleResult(), []entity.WebhookEndpoint{{URL: srv.URL}})
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, peak)
}

func TestEnqueue_SerializedEndpointKeepsEnqueueOrder(t *testing.T) {
	var (
		mu        sync.Mutex
		delivered []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload dto.WebhookPayload
		_ = json.NewDecoder(r.Body).Decode(&payload)
		mu.Lock()
		delivered = append(delivered, payload.Headline)
		mu.Unlock()
	}))
	defer srv.Close()

	f := newDispatcherFixture(t, nil, func(cfg *config.Config) {
		cfg.Webhook.SerializePerEndpoint = true
		cfg.Webhook.StaticEndpoints = []string{srv.URL}
	})

	var want []string
	for i := 0; i < 16; i++ {
		res := sampleResult()
		res.Request.Headline = string(rune('a' + i))
		want = append(want, res.Request.Headline)
		f.d.Enqueue(res)
	}
	f.d.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, want, delivered)
	assert.Len(t, f.deliveries.all(), 16)
}

func TestEnqueue_SerializedEndpointsProgressIndependently(t *testing.T) {
	release := make(chan struct{})
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer slow.Close()
	fast := newReceiver(t)

	f := newDispatcherFixture(t, nil, func(cfg *config.Config) {
		cfg.Webhook.SerializePerEndpoint = true
		cfg.Webhook.StaticEndpoints = []string{slow.URL, fast.server.URL}
	})

	f.d.Enqueue(sampleResult())
	f.d.Enqueue(sampleResult())

	assert.Eventually(t, func() bool { return len(fast.received()) == 2 }, 2*time.Second, 10*time.Millisecond)
	close(release)
	f.d.Wait()
}

func TestNewBackOff_Doubles(t *testing.T) {
	f := newDispatcherFixture(t, nil, func(cfg *config.Config) {
		cfg.Webhook.InitialBackoff = 500 * time.Millisecond
		cfg.Webhook.MaxBackoff = 30 * time.Second
	})

	b := f.d.newBackOff()
	assert.Equal(t, 2.0, b.Multiplier)
	assert.Equal(t, 500*time.Millisecond, b.InitialInterval)
	assert.Equal(t, 30*time.Second, b.MaxInterval)

	for i := 0; i < 3; i++ {
		expected := float64(500*time.Millisecond) * float64(int(1)<<i)
		wait := float64(b.NextBackOff())
		assert.InDelta(t, expected, wait, expected*b.RandomizationFactor+1)
	}
}

func TestSign(t *testing.T) {
	// HMAC-SHA256("key", "The quick brown fox jumps over the lazy dog")
	assert.Equal(t,
		"f7bc83f430538424b13298e6aa6fb143ef4d59a14946175997479dbc2d1a3cd8",
		Sign("key", []byte("The quick brown fox jumps over the lazy dog")),
	)
}
