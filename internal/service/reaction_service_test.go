package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"diorama/internal/database"
	"diorama/internal/models"
	"diorama/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate database: %v", err)
	}
	return db
}

func serviceUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		Email:    fmt.Sprintf("%s@example.com", username),
		Password: "hashed",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func servicePost(t *testing.T, db *gorm.DB, author *models.User) *models.Post {
	t.Helper()
	post := &models.Post{Content: "a post", AuthorID: author.ID}
	require.NoError(t, db.Create(post).Error)
	return post
}

// recordingPublisher captures live pushes and can be told to fail.
type recordingPublisher struct {
	snapshots     []snapshotPush
	notifications []notificationPush
	failAll       bool
}

type snapshotPush struct {
	postID    uint
	reactions []models.Reaction
}

type notificationPush struct {
	recipientID  uint
	notification *models.Notification
}

func (p *recordingPublisher) PublishReactionSnapshot(_ context.Context, postID uint, reactions []models.Reaction) error {
	if p.failAll {
		return errors.New("redis unavailable")
	}
	p.snapshots = append(p.snapshots, snapshotPush{postID: postID, reactions: reactions})
	return nil
}

func (p *recordingPublisher) PublishNotification(_ context.Context, recipientID uint, n *models.Notification) error {
	if p.failAll {
		return errors.New("redis unavailable")
	}
	p.notifications = append(p.notifications, notificationPush{recipientID: recipientID, notification: n})
	return nil
}

// failingNotificationRepo simulates a broken notifications table.
type failingNotificationRepo struct{}

func (failingNotificationRepo) Create(context.Context, *models.Notification) error {
	return errors.New("notifications table broken")
}
func (failingNotificationRepo) GetByID(_ context.Context, id uint) (*models.Notification, error) {
	return nil, models.NewNotFoundError("Notification", id)
}
func (failingNotificationRepo) ListForRecipient(context.Context, uint, int, int) ([]models.Notification, error) {
	return nil, nil
}
func (failingNotificationRepo) UnreadCount(context.Context, uint) (int64, error)  { return 0, nil }
func (failingNotificationRepo) MarkRead(context.Context, uint, uint) (bool, error) { return false, nil }
func (failingNotificationRepo) MarkAllRead(context.Context, uint) error           { return nil }
func (failingNotificationRepo) Delete(context.Context, uint, uint) (bool, error)  { return false, nil }

type reactionFixture struct {
	db        *gorm.DB
	svc       *ReactionService
	publisher *recordingPublisher
	notifRepo repository.NotificationRepository
}

func newReactionFixture(t *testing.T) *reactionFixture {
	t.Helper()
	db := setupServiceDB(t)
	publisher := &recordingPublisher{}
	notifRepo := repository.NewNotificationRepository(db)
	svc := NewReactionService(
		repository.NewReactionRepository(db),
		repository.NewPostRepository(db),
		notifRepo,
		publisher,
	)
	return &reactionFixture{db: db, svc: svc, publisher: publisher, notifRepo: notifRepo}
}

func (f *reactionFixture) notificationCount(t *testing.T, recipientID uint) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.db.Model(&models.Notification{}).
		Where("recipient_id = ?", recipientID).Count(&count).Error)
	return count
}

func TestReactionService_React(t *testing.T) {
	f := newReactionFixture(t)
	ctx := context.Background()

	author := serviceUser(t, f.db, "author")
	reactor := serviceUser(t, f.db, "reactor")
	post := servicePost(t, f.db, author)

	t.Run("first reaction notifies and broadcasts", func(t *testing.T) {
		result, err := f.svc.React(ctx, post.ID, reactor.ID, models.ReactionLove)
		require.NoError(t, err)
		assert.True(t, result.Created)
		require.Len(t, result.Reactions, 1)
		assert.Equal(t, models.ReactionLove, result.Reactions[0].Type)
		require.NotNil(t, result.Post)
		assert.Equal(t, post.ID, result.Post.ID)
		assert.Len(t, result.Post.Reactions, 1)

		assert.EqualValues(t, 1, f.notificationCount(t, author.ID))
		require.Len(t, f.publisher.snapshots, 1)
		assert.Equal(t, post.ID, f.publisher.snapshots[0].postID)
		require.Len(t, f.publisher.notifications, 1)
		assert.Equal(t, author.ID, f.publisher.notifications[0].recipientID)
	})

	t.Run("changing the type does not notify again", func(t *testing.T) {
		result, err := f.svc.React(ctx, post.ID, reactor.ID, models.ReactionWow)
		require.NoError(t, err)
		assert.False(t, result.Created)
		require.Len(t, result.Reactions, 1)
		assert.Equal(t, models.ReactionWow, result.Reactions[0].Type)

		assert.EqualValues(t, 1, f.notificationCount(t, author.ID), "still exactly one notification")
		assert.Len(t, f.publisher.snapshots, 2, "every mutation broadcasts a fresh snapshot")
	})

	t.Run("self-reaction never notifies", func(t *testing.T) {
		result, err := f.svc.React(ctx, post.ID, author.ID, models.ReactionLike)
		require.NoError(t, err)
		assert.True(t, result.Created)
		assert.EqualValues(t, 1, f.notificationCount(t, author.ID))
	})

	t.Run("invalid type is rejected before any write", func(t *testing.T) {
		_, err := f.svc.React(ctx, post.ID, reactor.ID, models.ReactionType("sparkle"))
		require.Error(t, err)
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
	})

	t.Run("missing post is not found", func(t *testing.T) {
		_, err := f.svc.React(ctx, 9999, reactor.ID, models.ReactionLike)
		require.Error(t, err)
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "NOT_FOUND", appErr.Code)
	})
}

func TestReactionService_NotificationFailureIsSwallowed(t *testing.T) {
	db := setupServiceDB(t)
	publisher := &recordingPublisher{}
	svc := NewReactionService(
		repository.NewReactionRepository(db),
		repository.NewPostRepository(db),
		failingNotificationRepo{},
		publisher,
	)
	ctx := context.Background()

	author := serviceUser(t, db, "author")
	reactor := serviceUser(t, db, "reactor")
	post := servicePost(t, db, author)

	result, err := svc.React(ctx, post.ID, reactor.ID, models.ReactionLike)
	require.NoError(t, err, "the reaction must succeed even when notifying fails")
	assert.True(t, result.Created)
	require.Len(t, result.Reactions, 1)

	// the reaction is durable
	var count int64
	db.Model(&models.Reaction{}).Where("post_id = ?", post.ID).Count(&count)
	assert.EqualValues(t, 1, count)

	// no notification event was pushed for the failed record
	assert.Empty(t, publisher.notifications)
	assert.Len(t, publisher.snapshots, 1, "snapshot still goes out")
}

func TestReactionService_PublisherFailureIsSwallowed(t *testing.T) {
	f := newReactionFixture(t)
	f.publisher.failAll = true
	ctx := context.Background()

	author := serviceUser(t, f.db, "author")
	reactor := serviceUser(t, f.db, "reactor")
	post := servicePost(t, f.db, author)

	result, err := f.svc.React(ctx, post.ID, reactor.ID, models.ReactionLike)
	require.NoError(t, err, "live fanout is best effort")
	assert.True(t, result.Created)
	assert.EqualValues(t, 1, f.notificationCount(t, author.ID),
		"the durable notification is written even when the push fails")
}

func TestReactionService_Unreact(t *testing.T) {
	f := newReactionFixture(t)
	ctx := context.Background()

	author := serviceUser(t, f.db, "author")
	reactor := serviceUser(t, f.db, "reactor")
	post := servicePost(t, f.db, author)

	t.Run("removing a nonexistent reaction is a no-op", func(t *testing.T) {
		result, err := f.svc.Unreact(ctx, post.ID, reactor.ID)
		require.NoError(t, err)
		assert.Empty(t, result.Reactions)
		assert.Len(t, f.publisher.snapshots, 1, "the snapshot is still broadcast")
	})

	t.Run("removing an existing reaction empties the snapshot", func(t *testing.T) {
		_, err := f.svc.React(ctx, post.ID, reactor.ID, models.ReactionHaha)
		require.NoError(t, err)

		result, err := f.svc.Unreact(ctx, post.ID, reactor.ID)
		require.NoError(t, err)
		assert.Empty(t, result.Reactions)

		last := f.publisher.snapshots[len(f.publisher.snapshots)-1]
		assert.Empty(t, last.reactions)
	})
}

func TestReactionService_ToggleLike(t *testing.T) {
	f := newReactionFixture(t)
	ctx := context.Background()

	author := serviceUser(t, f.db, "author")
	reactor := serviceUser(t, f.db, "reactor")
	post := servicePost(t, f.db, author)

	t.Run("toggle on", func(t *testing.T) {
		result, err := f.svc.ToggleLike(ctx, post.ID, reactor.ID)
		require.NoError(t, err)
		assert.True(t, result.Liked)
		require.Len(t, result.Reactions, 1)
		assert.Equal(t, models.ReactionLike, result.Reactions[0].Type)
		assert.EqualValues(t, 1, f.notificationCount(t, author.ID))
	})

	t.Run("toggle off", func(t *testing.T) {
		result, err := f.svc.ToggleLike(ctx, post.ID, reactor.ID)
		require.NoError(t, err)
		assert.False(t, result.Liked)
		assert.Empty(t, result.Reactions)
	})

	t.Run("toggle on again notifies again", func(t *testing.T) {
		result, err := f.svc.ToggleLike(ctx, post.ID, reactor.ID)
		require.NoError(t, err)
		assert.True(t, result.Liked)
		assert.EqualValues(t, 2, f.notificationCount(t, author.ID),
			"a like recreated from nothing is a fresh interaction")
	})

	t.Run("toggling over a non-like reaction converts it", func(t *testing.T) {
		_, err := f.svc.React(ctx, post.ID, reactor.ID, models.ReactionAngry)
		require.NoError(t, err)

		result, err := f.svc.ToggleLike(ctx, post.ID, reactor.ID)
		require.NoError(t, err)
		assert.True(t, result.Liked, "an angry reaction becomes a like, not a removal")
		require.Len(t, result.Reactions, 1)
		assert.Equal(t, models.ReactionLike, result.Reactions[0].Type)
		assert.EqualValues(t, 2, f.notificationCount(t, author.ID),
			"overwriting an existing reaction is not a fresh interaction")
	})
}

func TestReactionService_GetReactions(t *testing.T) {
	f := newReactionFixture(t)
	ctx := context.Background()

	author := serviceUser(t, f.db, "author")
	post := servicePost(t, f.db, author)

	for i := 0; i < 3; i++ {
		u := serviceUser(t, f.db, fmt.Sprintf("user%d", i))
		_, err := f.svc.React(ctx, post.ID, u.ID, models.ReactionLike)
		require.NoError(t, err)
	}

	reactions, err := f.svc.GetReactions(ctx, post.ID)
	require.NoError(t, err)
	assert.Len(t, reactions, 3)

	t.Run("missing post", func(t *testing.T) {
		_, err := f.svc.GetReactions(ctx, 9999)
		assert.Error(t, err)
	})
}
