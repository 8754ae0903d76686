package models

import "time"

// ReactionType is the closed set of emoji reactions a user can leave on a post.
type ReactionType string

const (
	ReactionLike  ReactionType = "like"
	ReactionLove  ReactionType = "love"
	ReactionHaha  ReactionType = "haha"
	ReactionWow   ReactionType = "wow"
	ReactionSad   ReactionType = "sad"
	ReactionAngry ReactionType = "angry"
)

// ReactionTypes lists every valid reaction type in display order.
var ReactionTypes = []ReactionType{
	ReactionLike,
	ReactionLove,
	ReactionHaha,
	ReactionWow,
	ReactionSad,
	ReactionAngry,
}

// Valid reports whether t is a member of the reaction enumeration.
func (t ReactionType) Valid() bool {
	switch t {
	case ReactionLike, ReactionLove, ReactionHaha, ReactionWow, ReactionSad, ReactionAngry:
		return true
	}
	return false
}

// Reaction represents a single user's emoji response to a post.
// The combination of PostID and UserID must be unique: a user holds at most
// one reaction per post, and re-reacting overwrites type and timestamp in
// place.
type Reaction struct {
	ID     uint         `gorm:"primaryKey" json:"-"`
	PostID uint         `gorm:"not null;uniqueIndex:idx_post_user" json:"post_id"`
	UserID uint         `gorm:"not null;uniqueIndex:idx_post_user" json:"user_id"`
	Type   ReactionType `gorm:"not null" json:"type"`
	// CreatedAt is the time of the last mutation, not the first: changing
	// the reaction type refreshes it.
	CreatedAt time.Time `json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
