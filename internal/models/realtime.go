package models

import "time"

// Session event types published on the admin event feed.
const (
	EventPaired  = "paired"
	EventEnded   = "ended"
	EventWaiting = "waiting"
)

// SessionEvent describes a pairing state change. It carries user IDs only,
// never message content.
type SessionEvent struct {
	Type      string    `json:"type"`
	SessionID uint      `json:"session_id,omitempty"`
	UserIDs   []int64   `json:"user_ids"`
	Reason    string    `json:"reason,omitempty"`
	At        time.Time `json:"at"`
}

// Stats is the admin statistics snapshot.
type Stats struct {
	TotalUsers     int64   `json:"total_users"`
	MaleUsers      int64   `json:"male_users"`
	FemaleUsers    int64   `json:"female_users"`
	PremiumUsers   int64   `json:"premium_users"`
	ActiveSessions int64   `json:"active_sessions"`
	TotalMessages  int64   `json:"total_messages"`
	PendingMatches int     `json:"pending_matches"`
	PremiumRate    float64 `json:"premium_rate"`
}
