package models

import "time"

// ChatSession is the persisted record of one pairing.
// At most one active row may reference a given user at any time.
type ChatSession struct {
	// SessionID is assigned by the database and grows monotonically.
	SessionID uint       `gorm:"primaryKey;autoIncrement" json:"session_id"`
	User1ID   int64      `gorm:"not null;index" json:"user1_id"`
	User2ID   int64      `gorm:"not null;index" json:"user2_id"`
	StartedAt time.Time  `gorm:"not null" json:"started_at"`
	EndedAt   *time.Time `json:"ended_at"`
	IsActive  bool       `gorm:"not null;index" json:"is_active"`
}

// PartnerOf returns the other participant, or 0 if userID is not part of the session.
func (s *ChatSession) PartnerOf(userID int64) int64 {
	switch userID {
	case s.User1ID:
		return s.User2ID
	case s.User2ID:
		return s.User1ID
	}
	return 0
}

// Message is one relayed text. Rows are append-only.
type Message struct {
	MessageID   uint      `gorm:"primaryKey;autoIncrement" json:"message_id"`
	SessionID   uint      `gorm:"not null;index" json:"session_id"`
	SenderID    int64     `gorm:"not null;index" json:"sender_id"`
	MessageText string    `gorm:"type:text" json:"message_text"`
	SentAt      time.Time `gorm:"not null" json:"sent_at"`
}
