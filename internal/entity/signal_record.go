package entity

import (
	"time"

	"gorm.io/datatypes"
)

// SignalRecord is the persisted history of a computed Result.
type SignalRecord struct {
	ID            int64          `gorm:"primaryKey" json:"id"`
	Symbol        string         `gorm:"index;not null" json:"symbol"`
	Headline      string         `gorm:"not null" json:"headline"`
	RequestID     string         `json:"request_id"`
	Signal        string         `gorm:"index;not null" json:"signal"`
	PositiveScore float64        `json:"positive_score"`
	NegativeScore float64        `json:"negative_score"`
	NeutralScore  float64        `json:"neutral_score"`
	Model         string         `json:"model"`
	Source        string         `json:"source"`
	Data          datatypes.JSON `gorm:"type:jsonb" json:"data"`
	ComputedAt    time.Time      `gorm:"index" json:"computed_at"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

func (SignalRecord) TableName() string {
	return "signal_records"
}
