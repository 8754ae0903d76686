package repository

import (
	"context"
	"testing"

	"diorama/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationRepository_RecipientGuard(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner")
	sender := createTestUser(t, db, "sender")
	intruder := createTestUser(t, db, "intruder")
	post := createTestPost(t, db, owner)

	notification := &models.Notification{
		RecipientID: owner.ID,
		SenderID:    sender.ID,
		Type:        models.NotificationReaction,
		PostID:      post.ID,
	}
	require.NoError(t, repo.Create(ctx, notification))

	t.Run("other user cannot mark read", func(t *testing.T) {
		ok, err := repo.MarkRead(ctx, notification.ID, intruder.ID)
		require.NoError(t, err)
		assert.False(t, ok)

		count, err := repo.UnreadCount(ctx, owner.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	})

	t.Run("other user cannot delete", func(t *testing.T) {
		ok, err := repo.Delete(ctx, notification.ID, intruder.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("owner marks read", func(t *testing.T) {
		ok, err := repo.MarkRead(ctx, notification.ID, owner.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		count, err := repo.UnreadCount(ctx, owner.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 0, count)
	})

	t.Run("owner deletes", func(t *testing.T) {
		ok, err := repo.Delete(ctx, notification.ID, owner.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		list, err := repo.ListForRecipient(ctx, owner.ID, 20, 0)
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}

func TestNotificationRepository_ListAndMarkAll(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner")
	sender := createTestUser(t, db, "sender")
	post := createTestPost(t, db, owner)

	for i := 0; i < 3; i++ {
		n := &models.Notification{
			RecipientID: owner.ID,
			SenderID:    sender.ID,
			Type:        models.NotificationComment,
			PostID:      post.ID,
		}
		require.NoError(t, repo.Create(ctx, n))
	}
	// a notification for somebody else must never leak into owner's list
	other := createTestUser(t, db, "other")
	require.NoError(t, repo.Create(ctx, &models.Notification{
		RecipientID: other.ID,
		SenderID:    sender.ID,
		Type:        models.NotificationReaction,
		PostID:      post.ID,
	}))

	list, err := repo.ListForRecipient(ctx, owner.ID, 20, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "sender", list[0].Sender.Username, "sender is preloaded")
	require.NotNil(t, list[0].Post)
	assert.Equal(t, post.ID, list[0].Post.ID, "post is preloaded")

	t.Run("pagination", func(t *testing.T) {
		page, err := repo.ListForRecipient(ctx, owner.ID, 2, 0)
		require.NoError(t, err)
		assert.Len(t, page, 2)

		rest, err := repo.ListForRecipient(ctx, owner.ID, 2, 2)
		require.NoError(t, err)
		assert.Len(t, rest, 1)
	})

	t.Run("mark all read", func(t *testing.T) {
		require.NoError(t, repo.MarkAllRead(ctx, owner.ID))

		count, err := repo.UnreadCount(ctx, owner.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 0, count)

		// the other recipient's notification stays unread
		otherCount, err := repo.UnreadCount(ctx, other.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 1, otherCount)
	})
}
