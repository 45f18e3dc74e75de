// Package feed polls RSS feeds and scores unseen headlines.
package feed

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"golang-headline-signal/internal/entity"
	"golang-headline-signal/internal/scoring/config"
	"golang-headline-signal/internal/scoring/dto"
	"golang-headline-signal/internal/scoring/service"
	"golang-headline-signal/internal/scoring/strategy"
	"golang-headline-signal/pkg/logger"
	"golang-headline-signal/pkg/metrics"
	"golang-headline-signal/pkg/utils"

	"github.com/mmcdole/gofeed"
	gocache "github.com/patrickmn/go-cache"
	"github.com/robfig/cron/v3"
)

const (
	googleNewsRSS      = "https://news.google.com/rss/search?q=%s+stock&hl=en-US&gl=US&ceid=US:en"
	maxConcurrentFeeds = 4
)

// BatchSubmitter scores a batch of headlines.
type BatchSubmitter interface {
	ProcessBatch(ctx context.Context, reqs []entity.ScoringRequest, thresholds *strategy.Thresholds) ([]service.BatchOutcome, error)
}

// HeadlinePublisher hands headlines to the headline stream.
type HeadlinePublisher interface {
	Publish(ctx context.Context, headlines []dto.StreamHeadline) error
}

// Poller fetches the configured feeds and submits headlines it has not seen.
type Poller struct {
	cfg       *config.Config
	logger    *logger.Logger
	submitter BatchSubmitter
	publisher HeadlinePublisher
	seen      *gocache.Cache
	now       func() time.Time
}

func NewPoller(cfg *config.Config, log *logger.Logger, submitter BatchSubmitter) *Poller {
	seenTTL := cfg.Feed.SeenTTL
	if seenTTL <= 0 {
		seenTTL = 48 * time.Hour
	}
	return &Poller{
		cfg:       cfg,
		logger:    log,
		submitter: submitter,
		seen:      gocache.New(seenTTL, time.Hour),
		now:       time.Now,
	}
}

// WithStream makes the poller publish new headlines to the stream instead of
// scoring them inline. Stream consumers own retries from then on.
func (p *Poller) WithStream(publisher HeadlinePublisher) *Poller {
	p.publisher = publisher
	return p
}

// Sources returns the explicit feed sources plus one Google News search per
// configured symbol.
func (p *Poller) Sources() []config.FeedSource {
	sources := append([]config.FeedSource(nil), p.cfg.Feed.Sources...)
	for _, symbol := range p.cfg.Feed.GoogleNewsSymbol {
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		if symbol == "" {
			continue
		}
		sources = append(sources, config.FeedSource{
			Symbol: symbol,
			URL:    fmt.Sprintf(googleNewsRSS, url.QueryEscape(symbol)),
		})
	}
	return sources
}

// Schedule registers PollOnce on c using feed.schedule.
func (p *Poller) Schedule(ctx context.Context, c *cron.Cron) (cron.EntryID, error) {
	return c.AddFunc(p.cfg.Feed.Schedule, func() {
		p.PollOnce(ctx)
	})
}

// PollOnce fetches every source and scores the new items. It returns the
// number of headlines scored successfully.
func (p *Poller) PollOnce(ctx context.Context) int {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		reqs []entity.ScoringRequest
		ids  []string
	)

	semaphore := make(chan struct{}, maxConcurrentFeeds)
	for _, source := range p.Sources() {
		if !utils.ShouldContinue(ctx, p.logger) {
			break
		}
		wg.Add(1)
		utils.GoSafe(p.logger, func() {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			items, err := p.fetch(ctx, source)
			if err != nil {
				p.logger.Error("Failed to parse RSS feed", logger.ErrorField(err), logger.StringField("url", source.URL))
				return
			}

			mu.Lock()
			defer mu.Unlock()
			for _, item := range items {
				reqs = append(reqs, entity.ScoringRequest{
					Symbol:    source.Symbol,
					Headline:  item.Title,
					RequestID: itemID(item),
					Source:    "feed",
				})
				ids = append(ids, itemID(item))
			}
		})
	}
	wg.Wait()

	if len(reqs) == 0 {
		return 0
	}
	if p.publisher != nil {
		return p.publish(ctx, reqs, ids)
	}
	return p.submit(ctx, reqs, ids)
}

// fetch returns the newest unseen items of a feed, newest first.
func (p *Poller) fetch(ctx context.Context, source config.FeedSource) ([]*gofeed.Item, error) {
	fp := gofeed.NewParser()
	feed, err := fp.ParseURLWithContext(source.URL, ctx)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(feed.Items, func(i, j int) bool {
		if feed.Items[i].PublishedParsed == nil || feed.Items[j].PublishedParsed == nil {
			return false
		}
		return feed.Items[i].PublishedParsed.After(*feed.Items[j].PublishedParsed)
	})

	cutoff := time.Time{}
	if p.cfg.Feed.MaxItemAge > 0 {
		cutoff = p.now().Add(-p.cfg.Feed.MaxItemAge)
	}

	var out []*gofeed.Item
	for _, item := range feed.Items {
		if p.cfg.Feed.MaxItemsPerFeed > 0 && len(out) >= p.cfg.Feed.MaxItemsPerFeed {
			break
		}
		if strings.TrimSpace(item.Title) == "" {
			continue
		}
		if _, seen := p.seen.Get(itemID(item)); seen {
			continue
		}
		if item.PublishedParsed != nil && item.PublishedParsed.Before(cutoff) {
			continue
		}
		out = append(out, item)
	}

	p.logger.Info("Filtered feed items",
		logger.StringField("symbol", source.Symbol),
		logger.IntField("original_count", len(feed.Items)),
		logger.IntField("filtered_count", len(out)),
	)
	return out, nil
}

// submit scores reqs in batches and marks successfully scored items seen so
// failed items are retried on the next poll.
func (p *Poller) submit(ctx context.Context, reqs []entity.ScoringRequest, ids []string) int {
	size := p.cfg.Scoring.MaxBatchSize
	if size <= 0 {
		size = len(reqs)
	}

	scored := 0
	for start := 0; start < len(reqs); start += size {
		end := start + size
		if end > len(reqs) {
			end = len(reqs)
		}
		outcomes, err := p.submitter.ProcessBatch(ctx, reqs[start:end], nil)
		if err != nil {
			p.logger.Error("Failed to score feed headlines", logger.ErrorField(err))
			continue
		}
		for i, o := range outcomes {
			if !o.OK() && !entity.IsValidationError(o.Err) {
				continue
			}
			p.seen.SetDefault(ids[start+i], struct{}{})
			if o.OK() {
				scored++
				metrics.FeedItemsTotal.WithLabelValues(o.Request.Symbol).Inc()
			}
		}
	}
	return scored
}

func (p *Poller) publish(ctx context.Context, reqs []entity.ScoringRequest, ids []string) int {
	headlines := make([]dto.StreamHeadline, len(reqs))
	for i, req := range reqs {
		headlines[i] = dto.StreamHeadline{
			Symbol:    req.Symbol,
			Headline:  req.Headline,
			RequestID: req.RequestID,
			Source:    req.Source,
		}
	}
	if err := p.publisher.Publish(ctx, headlines); err != nil {
		p.logger.Error("Failed to publish feed headlines", logger.ErrorField(err))
		return 0
	}
	for i, req := range reqs {
		p.seen.SetDefault(ids[i], struct{}{})
		metrics.FeedItemsTotal.WithLabelValues(req.Symbol).Inc()
	}
	return len(reqs)
}

func itemID(item *gofeed.Item) string {
	key := item.GUID
	if key == "" {
		key = item.Link + "|" + item.Published
	}
	sum := md5.Sum([]byte(key))
	return hex.EncodeToString(sum[:])
}
