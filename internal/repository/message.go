package repository

import (
	"context"

	"diorama/internal/models"

	"gorm.io/gorm"
)

// MessageRepository defines persistence operations for direct messages.
type MessageRepository interface {
	Create(ctx context.Context, m *models.Message) error
	// Thread returns the full conversation between two users, oldest first.
	Thread(ctx context.Context, userID, partnerID uint) ([]models.Message, error)
	// MarkThreadRead marks every message from partnerID to userID as read.
	MarkThreadRead(ctx context.Context, userID, partnerID uint) error
	// Conversations returns one summary per conversation partner, most
	// recently active first.
	Conversations(ctx context.Context, userID uint) ([]models.ConversationSummary, error)
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new message repository.
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, m *models.Message) error {
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return models.NewInternalError(err)
	}
	return r.db.WithContext(ctx).Preload("Sender").Preload("Recipient").First(m, m.ID).Error
}

func (r *messageRepository) Thread(ctx context.Context, userID, partnerID uint) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Preload("Recipient").
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
			userID, partnerID, partnerID, userID).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return messages, nil
}

func (r *messageRepository) MarkThreadRead(ctx context.Context, userID, partnerID uint) error {
	err := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("sender_id = ? AND recipient_id = ? AND is_read = ?", partnerID, userID, false).
		Update("is_read", true).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *messageRepository) Conversations(ctx context.Context, userID uint) ([]models.ConversationSummary, error) {
	// One row per partner with their latest activity timestamp. The
	// per-partner details are filled in with follow-up queries.
	type partnerRow struct {
		PartnerID uint
	}
	var partners []partnerRow
	err := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Select("CASE WHEN sender_id = ? THEN recipient_id ELSE sender_id END AS partner_id", userID).
		Where("sender_id = ? OR recipient_id = ?", userID, userID).
		Group("partner_id").
		Order("MAX(created_at) DESC").
		Scan(&partners).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	summaries := make([]models.ConversationSummary, 0, len(partners))
	for _, p := range partners {
		var last models.Message
		if err := r.db.WithContext(ctx).
			Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
				userID, p.PartnerID, p.PartnerID, userID).
			Order("created_at DESC").
			First(&last).Error; err != nil {
			return nil, models.NewInternalError(err)
		}

		var unread int64
		if err := r.db.WithContext(ctx).
			Model(&models.Message{}).
			Where("sender_id = ? AND recipient_id = ? AND is_read = ?", p.PartnerID, userID, false).
			Count(&unread).Error; err != nil {
			return nil, models.NewInternalError(err)
		}

		var partner models.User
		if err := r.db.WithContext(ctx).First(&partner, p.PartnerID).Error; err != nil {
			return nil, models.NewInternalError(err)
		}

		summaries = append(summaries, models.ConversationSummary{
			UserID:          p.PartnerID,
			Username:        partner.Username,
			LastMessage:     last.Content,
			LastMessageDate: last.CreatedAt,
			UnreadCount:     int(unread),
		})
	}
	return summaries, nil
}
