package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang-headline-signal/internal/entity"
	"golang-headline-signal/internal/scoring/config"
	"golang-headline-signal/internal/scoring/repository"
)

type fakeClassifier struct {
	mu       sync.Mutex
	scores   map[string]entity.SentimentScores
	failures map[string]error
	latency  func(headline string) time.Duration
	block    bool

	calls       atomic.Int64
	active      atomic.Int64
	peak        atomic.Int64
	callsByText sync.Map
}

func newFakeClassifier() *fakeClassifier {
	return &fakeClassifier{
		scores:   make(map[string]entity.SentimentScores),
		failures: make(map[string]error),
	}
}

func (f *fakeClassifier) set(headline string, s entity.SentimentScores) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scores[strings.ToLower(headline)] = s
}

func (f *fakeClassifier) fail(headline string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[strings.ToLower(headline)] = err
}

func (f *fakeClassifier) Model() string { return "fake-finbert" }

func (f *fakeClassifier) Classify(ctx context.Context, headline string) (entity.SentimentScores, error) {
	f.calls.Add(1)
	n, _ := f.callsByText.LoadOrStore(strings.ToLower(headline), new(atomic.Int64))
	n.(*atomic.Int64).Add(1)

	cur := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		p := f.peak.Load()
		if cur <= p || f.peak.CompareAndSwap(p, cur) {
			break
		}
	}

	if f.block {
		<-ctx.Done()
		return entity.SentimentScores{}, ctx.Err()
	}
	if f.latency != nil {
		select {
		case <-time.After(f.latency(headline)):
		case <-ctx.Done():
			return entity.SentimentScores{}, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	key := strings.ToLower(headline)
	if err, ok := f.failures[key]; ok {
		return entity.SentimentScores{}, err
	}
	if s, ok := f.scores[key]; ok {
		return s, nil
	}
	return entity.SentimentScores{Positive: 0.1, Negative: 0.1, Neutral: 0.8}, nil
}

func (f *fakeClassifier) callsFor(headline string) int64 {
	n, ok := f.callsByText.Load(strings.ToLower(headline))
	if !ok {
		return 0
	}
	return n.(*atomic.Int64).Load()
}

type fakeSignalRepo struct {
	mu      sync.Mutex
	records []entity.SignalRecord
	err     error
}

func (f *fakeSignalRepo) Create(_ context.Context, record *entity.SignalRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, *record)
	return nil
}

func (f *fakeSignalRepo) FindRecent(_ context.Context, _ repository.SignalFilter) ([]entity.SignalRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]entity.SignalRecord(nil), f.records...), nil
}

func (f *fakeSignalRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

type fakePublisher struct {
	mu      sync.Mutex
	results []entity.Result
}

func (f *fakePublisher) Enqueue(result entity.Result) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, result)
}

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.results)
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (f *fakeNotifier) SendMessage(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, text)
	return nil
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

type fakeDeliveryRepo struct {
	mu         sync.Mutex
	deliveries []entity.WebhookDelivery
}

func (f *fakeDeliveryRepo) Create(_ context.Context, d *entity.WebhookDelivery) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deliveries = append(f.deliveries, *d)
	return nil
}

func (f *fakeDeliveryRepo) all() []entity.WebhookDelivery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]entity.WebhookDelivery(nil), f.deliveries...)
}

type fakeEndpointSource struct {
	endpoints []entity.WebhookEndpoint
	err       error
}

func (f *fakeEndpointSource) FindActive(context.Context) ([]entity.WebhookEndpoint, error) {
	return f.endpoints, f.err
}

var errUpstream = errors.New("upstream exploded")

func testConfig() *config.Config {
	return &config.Config{
		Scoring: config.Scoring{
			BuyThreshold:      0.6,
			SellThreshold:     0.6,
			MaxConcurrency:    4,
			MaxBatchSize:      100,
			MaxHeadlineLength: 1000,
			ClassifierTimeout: time.Second,
			CacheTTL:          time.Minute,
		},
		Webhook: config.Webhook{
			MaxAttempts:       5,
			InitialBackoff:    time.Millisecond,
			MaxBackoff:        5 * time.Millisecond,
			AttemptTimeout:    time.Second,
			MaxConcurrentJobs: 4,
		},
	}
}
