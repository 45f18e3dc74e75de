package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang-headline-signal/internal/entity"
	"golang-headline-signal/internal/scoring/cache"
	"golang-headline-signal/internal/scoring/config"
	"golang-headline-signal/internal/scoring/repository"
	"golang-headline-signal/internal/scoring/strategy"
	"golang-headline-signal/pkg/common"
	"golang-headline-signal/pkg/logger"
	"golang-headline-signal/pkg/metrics"
	"golang-headline-signal/pkg/telegram"
	"golang-headline-signal/pkg/utils"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
)

// ScoringService turns headlines into trading signals.
type ScoringService interface {
	// Score scores one headline. thresholds may be nil to use the configured
	// policy.
	Score(ctx context.Context, req entity.ScoringRequest, thresholds *strategy.Thresholds) (entity.Result, error)
	// ProcessBatch scores every request and returns one outcome per request
	// in input order. Item failures never fail the batch; only a malformed
	// batch (empty, oversized or bad thresholds) returns an error.
	ProcessBatch(ctx context.Context, reqs []entity.ScoringRequest, thresholds *strategy.Thresholds) ([]BatchOutcome, error)
	// Model names the classifier in use.
	Model() string
}

// SignalPublisher receives freshly computed results for delivery.
type SignalPublisher interface {
	Enqueue(result entity.Result)
}

type scoringService struct {
	cfg             *config.Config
	log             *logger.Logger
	classifier      repository.SentimentClassifier
	cache           cache.ResultCache
	signalRepo      repository.SignalRecordRepository
	publisher       SignalPublisher
	telegramBot     telegram.Notifier
	thresholds      strategy.Thresholds
	classifierSlots *semaphore.Weighted
	inflight        singleflight.Group
	now             func() time.Time
}

// NewScoringService creates the scoring service. signalRepo, publisher and
// telegramBot are optional.
func NewScoringService(
	cfg *config.Config,
	log *logger.Logger,
	classifier repository.SentimentClassifier,
	resultCache cache.ResultCache,
	signalRepo repository.SignalRecordRepository,
	publisher SignalPublisher,
	telegramBot telegram.Notifier,
) (ScoringService, error) {
	thresholds := strategy.Thresholds{Buy: cfg.Scoring.BuyThreshold, Sell: cfg.Scoring.SellThreshold}
	if err := thresholds.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configured thresholds: %w", err)
	}

	maxConcurrency := cfg.Scoring.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}

	return &scoringService{
		cfg:             cfg,
		log:             log,
		classifier:      classifier,
		cache:           resultCache,
		signalRepo:      signalRepo,
		publisher:       publisher,
		telegramBot:     telegramBot,
		thresholds:      thresholds,
		classifierSlots: semaphore.NewWeighted(int64(maxConcurrency)),
		now:             time.Now,
	}, nil
}

func (s *scoringService) Model() string {
	return s.classifier.Model()
}

func (s *scoringService) Score(ctx context.Context, req entity.ScoringRequest, thresholds *strategy.Thresholds) (entity.Result, error) {
	thr, err := s.resolveThresholds(thresholds)
	if err != nil {
		return entity.Result{}, err
	}
	req, err = s.normalize(req)
	if err != nil {
		return entity.Result{}, err
	}

	res, err := s.score(ctx, req, thr)
	if err != nil {
		return entity.Result{}, asClassificationError(req, err)
	}
	return res, nil
}

func (s *scoringService) ProcessBatch(ctx context.Context, reqs []entity.ScoringRequest, thresholds *strategy.Thresholds) ([]BatchOutcome, error) {
	if len(reqs) == 0 {
		return nil, entity.NewValidationError("items", "batch must contain at least one headline")
	}
	if limit := s.cfg.Scoring.MaxBatchSize; limit > 0 && len(reqs) > limit {
		return nil, entity.NewValidationError("items", "batch of %d exceeds the maximum of %d", len(reqs), limit)
	}
	thr, err := s.resolveThresholds(thresholds)
	if err != nil {
		return nil, err
	}
	metrics.BatchSize.Observe(float64(len(reqs)))

	outcomes := make([]BatchOutcome, len(reqs))
	groups := make(map[string][]int)
	var order []string
	for i, req := range reqs {
		outcomes[i] = BatchOutcome{Index: i, Request: req}
		normalized, err := s.normalize(req)
		if err != nil {
			outcomes[i].Err = err
			continue
		}
		outcomes[i].Request = normalized

		key := cache.Key(s.classifier.Model(), normalized.Key())
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], i)
	}

	var wg sync.WaitGroup
	for _, key := range order {
		indexes := groups[key]
		wg.Add(1)
		utils.GoSafe(s.log, func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					s.log.Error("Recovered from panic while scoring", logger.Field("panic", r))
					for _, i := range indexes {
						outcomes[i].Err = asClassificationError(outcomes[i].Request, fmt.Errorf("internal error: %v", r))
					}
				}
			}()

			res, err := s.score(ctx, outcomes[indexes[0]].Request, thr)
			for _, i := range indexes {
				if err != nil {
					outcomes[i].Err = asClassificationError(outcomes[i].Request, err)
					continue
				}
				item := res
				item.Request = outcomes[i].Request
				outcomes[i].Result = &item
			}
		})
	}
	wg.Wait()

	return outcomes, nil
}

func (s *scoringService) resolveThresholds(override *strategy.Thresholds) (strategy.Thresholds, error) {
	if override == nil {
		return s.thresholds, nil
	}
	if err := override.Validate(); err != nil {
		return strategy.Thresholds{}, err
	}
	return *override, nil
}

// normalize validates req and fills defaults. The headline keeps its
// original text; only the cache key is case-folded.
func (s *scoringService) normalize(req entity.ScoringRequest) (entity.ScoringRequest, error) {
	headline := strings.TrimSpace(req.Headline)
	if headline == "" {
		return req, entity.NewValidationError("headline", "headline is required")
	}
	if limit := s.cfg.Scoring.MaxHeadlineLength; limit > 0 && utf8.RuneCountInString(headline) > limit {
		return req, entity.NewValidationError("headline", "headline exceeds %d characters", limit)
	}
	if !utf8.ValidString(headline) {
		return req, entity.NewValidationError("headline", "headline is not valid UTF-8")
	}

	req.Headline = headline
	req.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))
	if req.Symbol == "" {
		req.Symbol = common.NotAvailableSymbol
	}
	return req, nil
}

// score serves req from the cache or the classifier. Concurrent callers for
// the same key share one classifier call.
func (s *scoringService) score(ctx context.Context, req entity.ScoringRequest, thr strategy.Thresholds) (entity.Result, error) {
	key := cache.Key(s.classifier.Model(), req.Key())

	if cached, ok := s.cache.Get(ctx, key); ok {
		metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
		res := cached
		res.Request = req
		res.CacheHit = true
		res.Signal = strategy.Decide(res.Scores, thr)
		s.logDecision(res)
		return res, nil
	}
	metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()

	ch := s.inflight.DoChan(key, func() (interface{}, error) {
		return s.classifyAndStore(ctx, req, key)
	})

	var res entity.Result
	select {
	case r := <-ch:
		if r.Err != nil {
			return entity.Result{}, r.Err
		}
		res = r.Val.(entity.Result)
	case <-ctx.Done():
		return entity.Result{}, ctx.Err()
	}

	res.Request = req
	if thr != s.thresholds {
		res.Signal = strategy.Decide(res.Scores, thr)
	}
	s.logDecision(res)
	return res, nil
}

// classifyAndStore runs under a classifier slot. The work is detached from
// the caller's cancellation because other callers may be waiting on it; the
// classifier timeout still bounds it.
func (s *scoringService) classifyAndStore(ctx context.Context, req entity.ScoringRequest, key string) (entity.Result, error) {
	ctx = context.WithoutCancel(ctx)

	if err := s.classifierSlots.Acquire(ctx, 1); err != nil {
		return entity.Result{}, err
	}
	defer s.classifierSlots.Release(1)

	// Another batch may have filled the entry while this one queued.
	if cached, ok := s.cache.Get(ctx, key); ok {
		cached.CacheHit = true
		return cached, nil
	}

	timeout := s.cfg.Scoring.ClassifierTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	model := s.classifier.Model()
	start := time.Now()
	scores, err := s.classifier.Classify(cctx, req.Headline)
	metrics.ClassificationDuration.WithLabelValues(model).Observe(time.Since(start).Seconds())
	if err == nil {
		if verr := scores.Validate(); verr != nil {
			err = entity.NewClassificationError(entity.ReasonMalformedOutput, verr)
		}
	}
	if err != nil {
		if cctx.Err() == context.DeadlineExceeded {
			err = entity.NewClassificationError(entity.ReasonTimeout, err)
		}
		err = asClassificationError(req, err)
		metrics.ClassificationsTotal.WithLabelValues(model, "error").Inc()
		s.log.Warn("Failed to classify headline",
			logger.ErrorField(err),
			logger.StringField("symbol", req.Symbol),
			logger.StringField("headline", req.Headline),
		)
		return entity.Result{}, err
	}
	metrics.ClassificationsTotal.WithLabelValues(model, "success").Inc()

	res := entity.Result{
		Request:    req,
		Scores:     scores,
		Signal:     strategy.Decide(scores, s.thresholds),
		ComputedAt: s.now().UTC(),
		Model:      model,
	}
	s.cache.Put(ctx, key, res, s.cfg.Scoring.CacheTTL)
	s.publish(ctx, res)
	return res, nil
}

// publish records a fresh result and hands it to subscribers. Failures are
// logged and never reach the scoring caller.
func (s *scoringService) publish(ctx context.Context, res entity.Result) {
	metrics.SignalsTotal.WithLabelValues(res.Request.Symbol, string(res.Signal)).Inc()

	if s.signalRepo != nil {
		if err := s.signalRepo.Create(ctx, newSignalRecord(res)); err != nil {
			s.log.Error("Failed to create signal record", logger.ErrorField(err), logger.StringField("symbol", res.Request.Symbol))
		}
	}

	if s.publisher != nil {
		s.publisher.Enqueue(res)
	}

	if s.telegramBot != nil && s.cfg.Telegram.NotifySignals && res.Signal != entity.SignalHold {
		if err := s.telegramBot.SendMessage(telegram.FormatSignalMessage(res)); err != nil {
			s.log.Error("Failed to send signal notification", logger.ErrorField(err))
		}
	}
}

func newSignalRecord(res entity.Result) *entity.SignalRecord {
	data, _ := json.Marshal(res)
	return &entity.SignalRecord{
		Symbol:        res.Request.Symbol,
		Headline:      res.Request.Headline,
		RequestID:     res.Request.RequestID,
		Signal:        string(res.Signal),
		PositiveScore: res.Scores.Positive,
		NegativeScore: res.Scores.Negative,
		NeutralScore:  res.Scores.Neutral,
		Model:         res.Model,
		Source:        res.Request.Source,
		Data:          data,
		ComputedAt:    res.ComputedAt,
	}
}

func (s *scoringService) logDecision(res entity.Result) {
	s.log.Info("Trading decision",
		logger.StringField("symbol", res.Request.Symbol),
		logger.StringField("headline", res.Request.Headline),
		logger.Field("sentiment_scores", res.Scores),
		logger.StringField("signal", string(res.Signal)),
		logger.Field("cache_hit", res.CacheHit),
		logger.StringField("model", res.Model),
	)
}
