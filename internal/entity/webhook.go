package entity

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// WebhookEndpoint is a consumer-registered delivery target.
type WebhookEndpoint struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	URL         string         `gorm:"uniqueIndex;not null" json:"url"`
	Description string         `json:"description"`
	Secret      string         `json:"-"`
	Symbols     pq.StringArray `gorm:"type:text[]" json:"symbols"`
	IsActive    bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (WebhookEndpoint) TableName() string {
	return "webhook_endpoints"
}

// Accepts reports whether the endpoint subscribes to symbol. An empty
// symbol list subscribes to everything.
func (w WebhookEndpoint) Accepts(symbol string) bool {
	if len(w.Symbols) == 0 {
		return true
	}
	for _, s := range w.Symbols {
		if s == symbol {
			return true
		}
	}
	return false
}

// WebhookDelivery is the bookkeeping row for a delivery job that reached a
// terminal state.
type WebhookDelivery struct {
	ID             int64     `gorm:"primaryKey" json:"id"`
	IdempotencyKey string    `gorm:"index;not null" json:"idempotency_key"`
	Endpoint       string    `gorm:"not null" json:"endpoint"`
	Symbol         string    `json:"symbol"`
	Signal         string    `json:"signal"`
	Status         string    `gorm:"index;not null" json:"status"`
	Attempts       int       `json:"attempts"`
	LastError      string    `json:"last_error"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (WebhookDelivery) TableName() string {
	return "webhook_deliveries"
}
