package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang-headline-signal/internal/entity"
	"golang-headline-signal/internal/scoring/config"
	"golang-headline-signal/internal/scoring/dto"
	"golang-headline-signal/pkg/common"
	"golang-headline-signal/pkg/logger"
	"golang-headline-signal/pkg/metrics"
	"golang-headline-signal/pkg/telegram"

	"github.com/redis/go-redis/v9"
)

const streamReadCount = 10

// HeadlineStreamService scores headlines published to the headline stream.
type HeadlineStreamService interface {
	ProcessTask(ctx context.Context)
	ProcessRetries(ctx context.Context)
	Publish(ctx context.Context, headlines []dto.StreamHeadline) error
}

type headlineStreamService struct {
	cfg            *config.Config
	log            *logger.Logger
	redisClient    *redis.Client
	scoringService ScoringService
	telegramBot    telegram.Notifier
}

func NewHeadlineStreamService(cfg *config.Config, log *logger.Logger,
	redisClient *redis.Client,
	scoringService ScoringService,
	telegramBot telegram.Notifier) HeadlineStreamService {
	return &headlineStreamService{
		cfg:            cfg,
		log:            log,
		redisClient:    redisClient,
		scoringService: scoringService,
		telegramBot:    telegramBot,
	}
}

// Publish appends headlines to the stream for asynchronous scoring.
func (s *headlineStreamService) Publish(ctx context.Context, headlines []dto.StreamHeadline) error {
	for _, h := range headlines {
		payload, err := json.Marshal(h)
		if err != nil {
			return fmt.Errorf("failed to marshal stream headline: %w", err)
		}
		err = s.redisClient.XAdd(ctx, &redis.XAddArgs{
			Stream: common.RedisStreamHeadlineScore,
			MaxLen: s.cfg.Redis.StreamMaxLen,
			Approx: true,
			Values: map[string]interface{}{"payload": string(payload)},
		}).Err()
		if err != nil {
			return fmt.Errorf("failed to publish headline: %w", err)
		}
	}
	return nil
}

// ProcessTask reads a page of new messages and scores them as one batch.
// Messages whose scoring failed transiently stay pending for ProcessRetries.
func (s *headlineStreamService) ProcessTask(ctx context.Context) {
	streams, err := s.redisClient.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    common.RedisStreamGroup,
		Consumer: common.RedisStreamConsumer,
		Streams:  []string{common.RedisStreamHeadlineScore, ">"},
		Count:    streamReadCount,
		Block:    2 * time.Second,
	}).Result()
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, redis.Nil) {
			return
		}
		s.log.Error("Failed to read from stream", logger.ErrorField(err))
		return
	}
	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return
	}

	var (
		ids  []string
		reqs []entity.ScoringRequest
	)
	for _, msg := range streams[0].Messages {
		req, err := decodeStreamMessage(msg)
		if err != nil {
			metrics.StreamMessagesTotal.WithLabelValues("invalid").Inc()
			s.log.Error("Dropping malformed stream message", logger.ErrorField(err), logger.Field("message_id", msg.ID))
			_ = s.AckNDel(ctx, common.RedisStreamHeadlineScore, msg.ID)
			continue
		}
		ids = append(ids, msg.ID)
		reqs = append(reqs, req)
	}
	if len(reqs) == 0 {
		return
	}

	outcomes, err := s.scoringService.ProcessBatch(ctx, reqs, nil)
	if err != nil {
		s.log.Error("Failed to process headline batch", logger.ErrorField(err))
		return
	}

	for i, o := range outcomes {
		if !o.OK() && !entity.IsValidationError(o.Err) {
			metrics.StreamMessagesTotal.WithLabelValues("retry").Inc()
			s.log.Warn("Headline scoring failed, leaving pending for retry",
				logger.ErrorField(o.Err),
				logger.Field("message_id", ids[i]),
				logger.StringField("symbol", o.Request.Symbol),
			)
			continue
		}
		if o.OK() {
			metrics.StreamMessagesTotal.WithLabelValues("success").Inc()
		} else {
			metrics.StreamMessagesTotal.WithLabelValues("invalid").Inc()
			s.log.Warn("Dropping invalid headline", logger.ErrorField(o.Err), logger.Field("message_id", ids[i]))
		}
		if err := s.AckNDel(ctx, common.RedisStreamHeadlineScore, ids[i]); err != nil {
			return
		}
	}
}

func decodeStreamMessage(msg redis.XMessage) (entity.ScoringRequest, error) {
	raw, ok := msg.Values["payload"].(string)
	if !ok {
		return entity.ScoringRequest{}, fmt.Errorf("field 'payload' not found or not a string in stream message")
	}
	var data dto.StreamHeadline
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return entity.ScoringRequest{}, fmt.Errorf("failed to unmarshal stream headline: %w", err)
	}
	source := data.Source
	if source == "" {
		source = "stream"
	}
	return entity.ScoringRequest{
		Symbol:    data.Symbol,
		Headline:  data.Headline,
		RequestID: data.RequestID,
		Source:    source,
	}, nil
}

func (s *headlineStreamService) AckNDel(ctx context.Context, streamName string, messageID string) error {
	if err := s.redisClient.XAck(ctx, streamName, common.RedisStreamGroup, messageID).Err(); err != nil {
		s.log.Error("Failed to acknowledge headline", logger.ErrorField(err), logger.Field("message_id", messageID))
		return err
	}
	if err := s.redisClient.XDel(ctx, streamName, messageID).Err(); err != nil {
		s.log.Error("Failed to delete headline", logger.ErrorField(err), logger.Field("message_id", messageID))
		return err
	}
	return nil
}

// ProcessRetries claims one idle pending message and scores it again. After
// scoring.stream_max_retry deliveries the message is alerted and dropped.
func (s *headlineStreamService) ProcessRetries(ctx context.Context) {
	msgs, _, err := s.redisClient.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   common.RedisStreamHeadlineScore,
		Group:    common.RedisStreamGroup,
		Consumer: common.RedisStreamConsumer + "-retry",
		MinIdle:  s.cfg.Scoring.StreamMaxIdle,
		Start:    "0",
		Count:    1,
	}).Result()
	if err != nil {
		s.log.Error("Failed to claim headline on retry", logger.ErrorField(err))
		return
	}
	if len(msgs) == 0 {
		return
	}
	msg := msgs[0]

	pendingInfo, err := s.redisClient.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: common.RedisStreamHeadlineScore,
		Group:  common.RedisStreamGroup,
		Start:  msg.ID,
		End:    msg.ID,
		Count:  1,
	}).Result()
	if err != nil {
		s.log.Error("Failed to get pending info", logger.ErrorField(err))
		return
	}
	if len(pendingInfo) == 0 {
		s.log.Warn("pending msg not found, but exist on xautoclaim", logger.StringField("message_id", msg.ID))
		return
	}

	req, err := decodeStreamMessage(msg)
	if err != nil {
		s.log.Error("Dropping malformed stream message", logger.ErrorField(err), logger.Field("message_id", msg.ID))
		_ = s.AckNDel(ctx, common.RedisStreamHeadlineScore, msg.ID)
		return
	}

	_, err = s.scoringService.Score(ctx, req, nil)
	if err == nil || entity.IsValidationError(err) {
		if err := s.AckNDel(ctx, common.RedisStreamHeadlineScore, msg.ID); err != nil {
			return
		}
		s.log.Info("Retry headline processed", logger.StringField("symbol", req.Symbol))
		return
	}

	retryCount := int(pendingInfo[0].RetryCount)
	s.log.Error("Failed to score headline on retry",
		logger.ErrorField(err),
		logger.Field("message_id", msg.ID),
		logger.IntField("retry_count", retryCount),
	)
	if retryCount < s.cfg.Scoring.StreamMaxRetry {
		return
	}

	metrics.StreamMessagesTotal.WithLabelValues("exhausted").Inc()
	s.log.Error("pending msg retry count exceeded",
		logger.StringField("message_id", msg.ID),
		logger.StringField("symbol", req.Symbol),
		logger.IntField("max_retry", s.cfg.Scoring.StreamMaxRetry),
	)
	if s.telegramBot != nil {
		errType := fmt.Sprintf("Retry count exceeded for event %s", common.RedisStreamHeadlineScore)
		rawJSON, _ := json.Marshal(req)
		alert := telegram.FormatErrorAlertMessage(time.Now(), errType, err.Error(), string(rawJSON))
		if err := s.telegramBot.SendMessage(alert); err != nil {
			s.log.Error("Failed to send telegram message retry exceeded", logger.ErrorField(err))
		}
	}
	_ = s.AckNDel(ctx, common.RedisStreamHeadlineScore, msg.ID)
}
