package service

import (
	"context"
	"strings"

	"diorama/internal/models"
	"diorama/internal/repository"
)

// MessageService owns direct messaging between users.
type MessageService struct {
	messageRepo repository.MessageRepository
	userRepo    repository.UserRepository
}

func NewMessageService(messageRepo repository.MessageRepository, userRepo repository.UserRepository) *MessageService {
	return &MessageService{messageRepo: messageRepo, userRepo: userRepo}
}

func (s *MessageService) Send(ctx context.Context, senderID, recipientID uint, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, models.NewValidationError("Message content is required")
	}
	if senderID == recipientID {
		return nil, models.NewValidationError("Cannot message yourself")
	}
	if _, err := s.userRepo.GetByID(ctx, recipientID); err != nil {
		return nil, err
	}

	m := &models.Message{
		SenderID:    senderID,
		RecipientID: recipientID,
		Content:     content,
	}
	if err := s.messageRepo.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *MessageService) Conversations(ctx context.Context, userID uint) ([]models.ConversationSummary, error) {
	return s.messageRepo.Conversations(ctx, userID)
}

// Thread returns the conversation with partnerID and marks everything the
// partner sent as read.
func (s *MessageService) Thread(ctx context.Context, userID, partnerID uint) ([]models.Message, error) {
	if _, err := s.userRepo.GetByID(ctx, partnerID); err != nil {
		return nil, err
	}
	messages, err := s.messageRepo.Thread(ctx, userID, partnerID)
	if err != nil {
		return nil, err
	}
	if err := s.messageRepo.MarkThreadRead(ctx, userID, partnerID); err != nil {
		return nil, err
	}
	return messages, nil
}
