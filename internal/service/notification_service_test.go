package service

import (
	"context"
	"testing"

	"diorama/internal/models"
	"diorama/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationService_RecipientAuthorization(t *testing.T) {
	db := setupServiceDB(t)
	repo := repository.NewNotificationRepository(db)
	svc := NewNotificationService(repo)
	ctx := context.Background()

	author := serviceUser(t, db, "author")
	fan := serviceUser(t, db, "fan")
	intruder := serviceUser(t, db, "intruder")
	post := servicePost(t, db, author)

	n := &models.Notification{
		RecipientID: author.ID,
		SenderID:    fan.ID,
		Type:        models.NotificationReaction,
		PostID:      post.ID,
	}
	require.NoError(t, repo.Create(ctx, n))

	t.Run("stranger mutating is unauthorized, not hidden", func(t *testing.T) {
		err := svc.MarkRead(ctx, n.ID, intruder.ID)
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "UNAUTHORIZED", appErr.Code)

		err = svc.Delete(ctx, n.ID, intruder.ID)
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "UNAUTHORIZED", appErr.Code)

		// The row is untouched.
		fresh, err := repo.GetByID(ctx, n.ID)
		require.NoError(t, err)
		assert.False(t, fresh.IsRead)
	})

	t.Run("missing notification is not found", func(t *testing.T) {
		err := svc.MarkRead(ctx, 99999, author.ID)
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "NOT_FOUND", appErr.Code)

		err = svc.Delete(ctx, 99999, author.ID)
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "NOT_FOUND", appErr.Code)
	})

	t.Run("recipient may mark read and delete", func(t *testing.T) {
		require.NoError(t, svc.MarkRead(ctx, n.ID, author.ID))
		fresh, err := repo.GetByID(ctx, n.ID)
		require.NoError(t, err)
		assert.True(t, fresh.IsRead)

		require.NoError(t, svc.Delete(ctx, n.ID, author.ID))
		_, err = repo.GetByID(ctx, n.ID)
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "NOT_FOUND", appErr.Code)
	})
}
