package models

import (
	"time"
)

// Profile is a user of the bot. The primary key is the Telegram user ID,
// which is assigned externally and never generated here.
type Profile struct {
	UserID   int64  `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	Username string `json:"username"`

	DisplayName   string `json:"display_name"`
	Gender        string `gorm:"index" json:"gender"`
	Age           string `json:"age"`
	FavoriteGame  string `json:"favorite_game"`
	FavoriteMovie string `json:"favorite_movie"`
	FavoriteMusic string `json:"favorite_music"`
	LanguageCode  string `json:"language_code"`

	// IsPremium is never flipped off at expiry; PremiumActive evaluates it lazily.
	IsPremium        bool       `gorm:"not null" json:"is_premium"`
	PremiumExpiresAt *time.Time `json:"premium_expires_at"`

	// IsActive is the soft-delete flag. Inactive profiles are never offered as candidates.
	IsActive   bool      `gorm:"not null;index" json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
}

// PremiumActive reports whether premium is in force at now.
func (p *Profile) PremiumActive(now time.Time) bool {
	if p == nil || !p.IsPremium || p.PremiumExpiresAt == nil {
		return false
	}
	return now.Before(*p.PremiumExpiresAt)
}

// ProfileFields are the mutable attributes replaced wholesale on (re)submission.
type ProfileFields struct {
	Username      string
	DisplayName   string
	Gender        string
	Age           string
	FavoriteGame  string
	FavoriteMovie string
	FavoriteMusic string
	LanguageCode  string
}
