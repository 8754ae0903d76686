package models

import (
	"time"

	"gorm.io/gorm"
)

// Message represents a direct message between two users.
type Message struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	SenderID    uint           `gorm:"not null;index" json:"sender_id"`
	Sender      *User          `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	RecipientID uint           `gorm:"not null;index" json:"recipient_id"`
	Recipient   *User          `gorm:"foreignKey:RecipientID" json:"recipient,omitempty"`
	Content     string         `gorm:"type:text;not null" json:"content"`
	IsRead      bool           `gorm:"default:false" json:"is_read"`
	CreatedAt   time.Time      `json:"created_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// ConversationSummary is a computed view of the most recent exchange with a
// message partner, used by the conversations sidebar. Not persisted.
type ConversationSummary struct {
	UserID          uint      `json:"user_id"`
	Username        string    `json:"username"`
	LastMessage     string    `json:"last_message"`
	LastMessageDate time.Time `json:"last_message_date"`
	UnreadCount     int       `json:"unread_count"`
}
