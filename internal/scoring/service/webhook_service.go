package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang-headline-signal/internal/entity"
	"golang-headline-signal/internal/scoring/dto"
	"golang-headline-signal/internal/scoring/repository"
	"golang-headline-signal/pkg/logger"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// WebhookService manages webhook endpoint registrations.
type WebhookService interface {
	Register(ctx context.Context, req *dto.CreateWebhookRequest) (*dto.WebhookResponse, error)
	List(ctx context.Context) ([]dto.WebhookResponse, error)
	Delete(ctx context.Context, id uint) error
}

type webhookService struct {
	repo   repository.WebhookEndpointRepository
	logger *logger.Logger
}

func NewWebhookService(repo repository.WebhookEndpointRepository, log *logger.Logger) WebhookService {
	return &webhookService{repo: repo, logger: log}
}

func (s *webhookService) Register(ctx context.Context, req *dto.CreateWebhookRequest) (*dto.WebhookResponse, error) {
	u, err := url.Parse(strings.TrimSpace(req.URL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, entity.NewValidationError("url", "must be an absolute http(s) URL")
	}

	symbols := make([]string, 0, len(req.Symbols))
	for _, sym := range req.Symbols {
		if sym = strings.ToUpper(strings.TrimSpace(sym)); sym != "" {
			symbols = append(symbols, sym)
		}
	}

	endpoint := &entity.WebhookEndpoint{
		URL:         u.String(),
		Description: req.Description,
		Secret:      req.Secret,
		Symbols:     symbols,
		IsActive:    true,
	}
	if err := s.repo.Create(ctx, endpoint); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, entity.NewValidationError("url", "endpoint already registered")
		}
		s.logger.Error("Failed to create webhook endpoint", logger.ErrorField(err), logger.StringField("url", endpoint.URL))
		return nil, fmt.Errorf("failed to create webhook endpoint: %w", err)
	}

	s.logger.Info("Webhook endpoint registered", logger.StringField("url", endpoint.URL), logger.Field("symbols", symbols))
	resp := dto.NewWebhookResponse(*endpoint)
	return &resp, nil
}

func (s *webhookService) List(ctx context.Context) ([]dto.WebhookResponse, error) {
	endpoints, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.Error("Failed to find webhook endpoints", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to find webhook endpoints: %w", err)
	}

	out := make([]dto.WebhookResponse, 0, len(endpoints))
	for _, e := range endpoints {
		out = append(out, dto.NewWebhookResponse(e))
	}
	return out, nil
}

func (s *webhookService) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		s.logger.Error("Failed to delete webhook endpoint", logger.ErrorField(err), logger.Field("id", id))
		return fmt.Errorf("failed to delete webhook endpoint: %w", err)
	}
	return nil
}

// SignalHistoryService reads persisted signals.
type SignalHistoryService interface {
	Recent(ctx context.Context, filter repository.SignalFilter) ([]dto.SignalRecordResponse, error)
}

type signalHistoryService struct {
	repo   repository.SignalRecordRepository
	logger *logger.Logger
}

func NewSignalHistoryService(repo repository.SignalRecordRepository, log *logger.Logger) SignalHistoryService {
	return &signalHistoryService{repo: repo, logger: log}
}

const maxHistoryLimit = 500

func (s *signalHistoryService) Recent(ctx context.Context, filter repository.SignalFilter) ([]dto.SignalRecordResponse, error) {
	if filter.Limit <= 0 || filter.Limit > maxHistoryLimit {
		filter.Limit = 50
	}
	if filter.Signal != "" {
		switch entity.TradingSignal(strings.ToUpper(filter.Signal)) {
		case entity.SignalBuy, entity.SignalSell, entity.SignalHold:
		default:
			return nil, entity.NewValidationError("signal", "must be one of BUY, SELL, HOLD")
		}
	}

	records, err := s.repo.FindRecent(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to find signal records", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to find signal records: %w", err)
	}

	out := make([]dto.SignalRecordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, dto.NewSignalRecordResponse(r))
	}
	return out, nil
}
