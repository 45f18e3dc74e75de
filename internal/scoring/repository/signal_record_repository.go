package repository

import (
	"context"
	"strings"

	"golang-headline-signal/internal/entity"

	"gorm.io/gorm"
)

// SignalFilter narrows a signal history query. Zero values match everything.
type SignalFilter struct {
	Symbol string
	Signal string
	Limit  int
}

// SignalRecordRepository persists computed signals.
type SignalRecordRepository interface {
	Create(ctx context.Context, record *entity.SignalRecord) error
	FindRecent(ctx context.Context, filter SignalFilter) ([]entity.SignalRecord, error)
}

type signalRecordRepository struct {
	db *gorm.DB
}

func NewSignalRecordRepository(db *gorm.DB) SignalRecordRepository {
	return &signalRecordRepository{db: db}
}

func (r *signalRecordRepository) Create(ctx context.Context, record *entity.SignalRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// FindRecent returns the newest signals first.
func (r *signalRecordRepository) FindRecent(ctx context.Context, filter SignalFilter) ([]entity.SignalRecord, error) {
	query := r.db.WithContext(ctx).Model(&entity.SignalRecord{})
	if filter.Symbol != "" {
		query = query.Where("symbol = ?", strings.ToUpper(filter.Symbol))
	}
	if filter.Signal != "" {
		query = query.Where("signal = ?", strings.ToUpper(filter.Signal))
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var records []entity.SignalRecord
	if err := query.Order("computed_at DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
