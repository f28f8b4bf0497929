package models

import (
	"time"

	"github.com/lib/pq"
)

// SubscriptionPlan is a row of the static premium price list.
type SubscriptionPlan struct {
	ID           uint           `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name         string         `gorm:"not null" json:"name"`
	DurationDays int            `gorm:"not null" json:"duration_days"`
	Price        float64        `gorm:"not null" json:"price"`
	Description  string         `json:"description"`
	Benefits     pq.StringArray `gorm:"type:text[]" json:"benefits"`
}

// Duration converts DurationDays to a time.Duration.
func (p SubscriptionPlan) Duration() time.Duration {
	return time.Duration(p.DurationDays) * 24 * time.Hour
}
