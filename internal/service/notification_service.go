package service

import (
	"context"

	"diorama/internal/models"
	"diorama/internal/repository"
)

// NotificationService exposes the recipient-facing notification operations.
type NotificationService struct {
	notificationRepo repository.NotificationRepository
}

func NewNotificationService(notificationRepo repository.NotificationRepository) *NotificationService {
	return &NotificationService{notificationRepo: notificationRepo}
}

func (s *NotificationService) List(ctx context.Context, recipientID uint, limit, offset int) ([]models.Notification, error) {
	return s.notificationRepo.ListForRecipient(ctx, recipientID, limit, offset)
}

func (s *NotificationService) UnreadCount(ctx context.Context, recipientID uint) (int64, error) {
	return s.notificationRepo.UnreadCount(ctx, recipientID)
}

// MarkRead marks one of the recipient's notifications read. A missing
// notification reports NotFound; one owned by someone else reports
// Unauthorized, mirroring how post edits are rejected.
func (s *NotificationService) MarkRead(ctx context.Context, id, recipientID uint) error {
	n, err := s.notificationRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if n.RecipientID != recipientID {
		return models.NewUnauthorizedError("Not authorized to modify this notification")
	}

	ok, err := s.notificationRepo.MarkRead(ctx, id, recipientID)
	if err != nil {
		return err
	}
	if !ok {
		// Deleted between the load and the update.
		return models.NewNotFoundError("Notification", id)
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, recipientID uint) error {
	return s.notificationRepo.MarkAllRead(ctx, recipientID)
}

// Delete removes one of the recipient's notifications, with the same
// NotFound/Unauthorized split as MarkRead.
func (s *NotificationService) Delete(ctx context.Context, id, recipientID uint) error {
	n, err := s.notificationRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if n.RecipientID != recipientID {
		return models.NewUnauthorizedError("Not authorized to delete this notification")
	}

	ok, err := s.notificationRepo.Delete(ctx, id, recipientID)
	if err != nil {
		return err
	}
	if !ok {
		return models.NewNotFoundError("Notification", id)
	}
	return nil
}
