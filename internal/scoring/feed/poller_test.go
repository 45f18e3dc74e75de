package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"golang-headline-signal/internal/entity"
	"golang-headline-signal/internal/scoring/config"
	"golang-headline-signal/internal/scoring/dto"
	"golang-headline-signal/internal/scoring/service"
	"golang-headline-signal/internal/scoring/strategy"
	"golang-headline-signal/pkg/logger"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSubmitter struct {
	mu      sync.Mutex
	batches [][]entity.ScoringRequest
	failing map[string]bool
}

func (r *recordingSubmitter) ProcessBatch(_ context.Context, reqs []entity.ScoringRequest, _ *strategy.Thresholds) ([]service.BatchOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, append([]entity.ScoringRequest(nil), reqs...))

	out := make([]service.BatchOutcome, len(reqs))
	for i, req := range reqs {
		out[i] = service.BatchOutcome{Index: i, Request: req}
		if r.failing[req.Headline] {
			out[i].Err = entity.NewClassificationError(entity.ReasonUpstreamUnavailable, fmt.Errorf("down"))
			continue
		}
		res := entity.Result{Request: req, Signal: entity.SignalHold}
		out[i].Result = &res
	}
	return out, nil
}

func (r *recordingSubmitter) headlines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, b := range r.batches {
		for _, req := range b {
			out = append(out, req.Headline)
		}
	}
	return out
}

func rssServer(t *testing.T, now time.Time) *httptest.Server {
	t.Helper()
	rss := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Markets</title>
<item><title>Older headline</title><link>https://news.example.com/1</link><guid>1</guid><pubDate>%s</pubDate></item>
<item><title>Newest headline</title><link>https://news.example.com/2</link><guid>2</guid><pubDate>%s</pubDate></item>
<item><title>Ancient headline</title><link>https://news.example.com/3</link><guid>3</guid><pubDate>%s</pubDate></item>
<item><title>  </title><link>https://news.example.com/4</link><guid>4</guid><pubDate>%s</pubDate></item>
</channel></rss>`,
		now.Add(-2*time.Hour).Format(time.RFC1123Z),
		now.Add(-time.Hour).Format(time.RFC1123Z),
		now.Add(-72*time.Hour).Format(time.RFC1123Z),
		now.Add(-time.Hour).Format(time.RFC1123Z),
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(rss))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestPoller(t *testing.T, feedURL string, submitter BatchSubmitter) *Poller {
	t.Helper()
	cfg := &config.Config{
		Scoring: config.Scoring{MaxBatchSize: 100},
		Feed: config.Feed{
			Schedule:        "@every 1m",
			MaxItemsPerFeed: 10,
			MaxItemAge:      24 * time.Hour,
			SeenTTL:         time.Hour,
			Sources:         []config.FeedSource{{Symbol: "AAPL", URL: feedURL}},
		},
	}
	return NewPoller(cfg, logger.NewNop(), submitter)
}

func TestPollOnce_SubmitsFreshItemsNewestFirst(t *testing.T) {
	now := time.Now()
	srv := rssServer(t, now)
	sub := &recordingSubmitter{}
	p := newTestPoller(t, srv.URL, sub)

	scored := p.PollOnce(context.Background())
	assert.Equal(t, 2, scored)
	assert.Equal(t, []string{"Newest headline", "Older headline"}, sub.headlines())

	require.Len(t, sub.batches, 1)
	for _, req := range sub.batches[0] {
		assert.Equal(t, "AAPL", req.Symbol)
		assert.Equal(t, "feed", req.Source)
	}
}

func TestPollOnce_SkipsSeenItemsAndRetriesFailures(t *testing.T) {
	srv := rssServer(t, time.Now())
	sub := &recordingSubmitter{failing: map[string]bool{"Older headline": true}}
	p := newTestPoller(t, srv.URL, sub)

	assert.Equal(t, 1, p.PollOnce(context.Background()))

	sub.failing = nil
	assert.Equal(t, 1, p.PollOnce(context.Background()))
	assert.Equal(t, []string{"Newest headline", "Older headline", "Older headline"}, sub.headlines())

	assert.Equal(t, 0, p.PollOnce(context.Background()))
}

type recordingPublisher struct {
	published []dto.StreamHeadline
	err       error
}

func (r *recordingPublisher) Publish(_ context.Context, headlines []dto.StreamHeadline) error {
	if r.err != nil {
		return r.err
	}
	r.published = append(r.published, headlines...)
	return nil
}

func TestPollOnce_PublishesToStream(t *testing.T) {
	srv := rssServer(t, time.Now())
	sub := &recordingSubmitter{}
	pub := &recordingPublisher{err: fmt.Errorf("stream down")}
	p := newTestPoller(t, srv.URL, sub).WithStream(pub)

	assert.Equal(t, 0, p.PollOnce(context.Background()))

	pub.err = nil
	assert.Equal(t, 2, p.PollOnce(context.Background()))
	require.Len(t, pub.published, 2)
	assert.Equal(t, "Newest headline", pub.published[0].Headline)
	assert.Equal(t, "feed", pub.published[0].Source)
	assert.Empty(t, sub.batches)

	assert.Equal(t, 0, p.PollOnce(context.Background()))
}

func TestPollOnce_UnreachableFeed(t *testing.T) {
	sub := &recordingSubmitter{}
	p := newTestPoller(t, "http://127.0.0.1:1/rss", sub)

	assert.Equal(t, 0, p.PollOnce(context.Background()))
	assert.Empty(t, sub.batches)
}

func TestSources_AddsGoogleNewsSearches(t *testing.T) {
	p := newTestPoller(t, "https://feeds.example.com/markets", &recordingSubmitter{})
	p.cfg.Feed.GoogleNewsSymbol = []string{"tsla", " "}

	sources := p.Sources()
	require.Len(t, sources, 2)
	assert.Equal(t, "TSLA", sources[1].Symbol)
	assert.Contains(t, sources[1].URL, "q=TSLA+stock")
}

func TestSchedule(t *testing.T) {
	p := newTestPoller(t, "https://feeds.example.com/markets", &recordingSubmitter{})
	c := cron.New()

	id, err := p.Schedule(context.Background(), c)
	require.NoError(t, err)
	assert.NotZero(t, id)

	p.cfg.Feed.Schedule = "not a schedule"
	_, err = p.Schedule(context.Background(), c)
	assert.Error(t, err)
}
