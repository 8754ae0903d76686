package models

import "time"

// NotificationType is the closed set of notification kinds.
type NotificationType string

const (
	NotificationReaction NotificationType = "reaction"
	NotificationComment  NotificationType = "comment"
)

// Valid reports whether t is a member of the notification enumeration.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationReaction, NotificationComment:
		return true
	}
	return false
}

// Notification is a durable per-recipient record of someone interacting with
// the recipient's content. It is created at most once per first-time
// interaction (a reaction type change does not spawn a second one) and is
// mutated or deleted by the recipient only.
type Notification struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	RecipientID uint             `gorm:"not null;index" json:"recipient_id"`
	SenderID    uint             `gorm:"not null" json:"sender_id"`
	Sender      User             `gorm:"foreignKey:SenderID" json:"sender"`
	Type        NotificationType `gorm:"not null" json:"type"`
	// PostID is a weak back-reference: the notification outlives post edits
	// but lookups may come back empty after a post deletion.
	PostID    uint      `gorm:"index" json:"post_id"`
	Post      *Post     `gorm:"foreignKey:PostID" json:"post,omitempty"`
	IsRead    bool      `gorm:"default:false" json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}
