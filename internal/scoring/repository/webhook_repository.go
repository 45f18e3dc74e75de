package repository

import (
	"context"

	"golang-headline-signal/internal/entity"

	"gorm.io/gorm"
)

// WebhookEndpointRepository defines the interface for webhook endpoint operations.
type WebhookEndpointRepository interface {
	Create(ctx context.Context, endpoint *entity.WebhookEndpoint) error
	FindAll(ctx context.Context) ([]entity.WebhookEndpoint, error)
	FindActive(ctx context.Context) ([]entity.WebhookEndpoint, error)
	Delete(ctx context.Context, id uint) error
}

type webhookEndpointRepository struct {
	db *gorm.DB
}

func NewWebhookEndpointRepository(db *gorm.DB) WebhookEndpointRepository {
	return &webhookEndpointRepository{db: db}
}

func (r *webhookEndpointRepository) Create(ctx context.Context, endpoint *entity.WebhookEndpoint) error {
	return r.db.WithContext(ctx).Create(endpoint).Error
}

func (r *webhookEndpointRepository) FindAll(ctx context.Context) ([]entity.WebhookEndpoint, error) {
	var endpoints []entity.WebhookEndpoint
	if err := r.db.WithContext(ctx).Order("id").Find(&endpoints).Error; err != nil {
		return nil, err
	}
	return endpoints, nil
}

func (r *webhookEndpointRepository) FindActive(ctx context.Context) ([]entity.WebhookEndpoint, error) {
	var endpoints []entity.WebhookEndpoint
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("id").Find(&endpoints).Error; err != nil {
		return nil, err
	}
	return endpoints, nil
}

// Delete soft-deletes the endpoint. It returns gorm.ErrRecordNotFound when
// no endpoint has the id.
func (r *webhookEndpointRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&entity.WebhookEndpoint{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// WebhookDeliveryRepository records terminal delivery outcomes.
type WebhookDeliveryRepository interface {
	Create(ctx context.Context, delivery *entity.WebhookDelivery) error
}

type webhookDeliveryRepository struct {
	db *gorm.DB
}

func NewWebhookDeliveryRepository(db *gorm.DB) WebhookDeliveryRepository {
	return &webhookDeliveryRepository{db: db}
}

func (r *webhookDeliveryRepository) Create(ctx context.Context, delivery *entity.WebhookDelivery) error {
	return r.db.WithContext(ctx).Create(delivery).Error
}
