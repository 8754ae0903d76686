package notifications

import (
	"encoding/json"
	"time"

	"diorama/internal/models"
)

// ReactionEvent is the wire format of a live reaction update. It always
// carries the post's complete reaction set, never a delta, so clients can
// replace their local state wholesale and stay correct even after missed
// events.
type ReactionEvent struct {
	Type      string            `json:"type"`
	PostID    uint              `json:"postId"`
	Reactions []ReactionSummary `json:"reactions"`
}

// ReactionSummary is one reaction inside a ReactionEvent.
type ReactionSummary struct {
	UserID    uint      `json:"userId"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewReactionEvent builds the snapshot event for a post.
func NewReactionEvent(postID uint, reactions []models.Reaction) ReactionEvent {
	summaries := make([]ReactionSummary, 0, len(reactions))
	for _, r := range reactions {
		summaries = append(summaries, ReactionSummary{
			UserID:    r.UserID,
			Type:      string(r.Type),
			CreatedAt: r.CreatedAt,
		})
	}
	return ReactionEvent{
		Type:      "reaction",
		PostID:    postID,
		Reactions: summaries,
	}
}

// NotificationEvent is the wire format of a live per-user notification push.
type NotificationEvent struct {
	Type         string               `json:"type"`
	Notification *models.Notification `json:"notification"`
}

// Marshal renders the event as JSON. Marshalling these payloads cannot fail
// in practice; errors are still returned so callers can log them.
func (e ReactionEvent) Marshal() (string, error) {
	b, err := json.Marshal(e)
	return string(b), err
}

func (e NotificationEvent) Marshal() (string, error) {
	b, err := json.Marshal(e)
	return string(b), err
}
