package service

import (
	"context"
	"strings"
	"testing"

	"diorama/internal/models"
	"diorama/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type postFixture struct {
	db        *gorm.DB
	svc       *PostService
	publisher *recordingPublisher
}

func newPostFixture(t *testing.T) *postFixture {
	t.Helper()
	db := setupServiceDB(t)
	publisher := &recordingPublisher{}
	svc := NewPostService(
		repository.NewPostRepository(db),
		repository.NewUserRepository(db),
		repository.NewNotificationRepository(db),
		publisher,
	)
	return &postFixture{db: db, svc: svc, publisher: publisher}
}

func TestPostService_CreatePost(t *testing.T) {
	f := newPostFixture(t)
	ctx := context.Background()

	author := serviceUser(t, f.db, "author")
	author.Character = models.CharacterConfig{
		Variations: map[string]string{"head": "blocky"},
		Colors:     map[string]string{"head": "#219ebc"},
	}
	require.NoError(t, f.db.Save(author).Error)

	t.Run("snapshots the author's character", func(t *testing.T) {
		post, err := f.svc.CreatePost(ctx, CreatePostInput{
			AuthorID: author.ID,
			Content:  "  hello world  ",
			Position: models.Position{X: 2, Y: 0.5, Z: -1},
		})
		require.NoError(t, err)
		assert.Equal(t, "hello world", post.Content, "content is trimmed")
		assert.Equal(t, "blocky", post.Character.Variations["head"])
		assert.Equal(t, models.Position{X: 2, Y: 0.5, Z: -1}, post.Position)
		assert.Equal(t, "author", post.Author.Username)
	})

	t.Run("an explicit character config wins over the snapshot", func(t *testing.T) {
		post, err := f.svc.CreatePost(ctx, CreatePostInput{
			AuthorID: author.ID,
			Content:  "dressed up for this one",
			Character: &models.CharacterConfig{
				Variations: map[string]string{"head": "round"},
				Colors:     map[string]string{"head": "#ffb703"},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "round", post.Character.Variations["head"])
		assert.Equal(t, "#ffb703", post.Character.Colors["head"])
	})

	t.Run("later avatar edits do not rewrite old posts", func(t *testing.T) {
		post, err := f.svc.CreatePost(ctx, CreatePostInput{AuthorID: author.ID, Content: "before the makeover"})
		require.NoError(t, err)

		author.Character.Variations["head"] = "oval"
		require.NoError(t, f.db.Save(author).Error)

		fetched, err := f.svc.GetPost(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, "blocky", fetched.Character.Variations["head"])
	})

	t.Run("rejects empty and oversized content", func(t *testing.T) {
		_, err := f.svc.CreatePost(ctx, CreatePostInput{AuthorID: author.ID, Content: "   "})
		assert.Error(t, err)

		_, err = f.svc.CreatePost(ctx, CreatePostInput{
			AuthorID: author.ID,
			Content:  strings.Repeat("x", maxContentLen+1),
		})
		assert.Error(t, err)
	})
}

func TestPostService_OwnershipChecks(t *testing.T) {
	f := newPostFixture(t)
	ctx := context.Background()

	author := serviceUser(t, f.db, "author")
	stranger := serviceUser(t, f.db, "stranger")

	post, err := f.svc.CreatePost(ctx, CreatePostInput{AuthorID: author.ID, Content: "mine"})
	require.NoError(t, err)

	t.Run("only the author can edit", func(t *testing.T) {
		_, err := f.svc.UpdatePost(ctx, UpdatePostInput{UserID: stranger.ID, PostID: post.ID, Content: "hijacked"})
		require.Error(t, err)
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "UNAUTHORIZED", appErr.Code)

		updated, err := f.svc.UpdatePost(ctx, UpdatePostInput{UserID: author.ID, PostID: post.ID, Content: "edited"})
		require.NoError(t, err)
		assert.Equal(t, "edited", updated.Content)
	})

	t.Run("only the author can delete", func(t *testing.T) {
		err := f.svc.DeletePost(ctx, post.ID, stranger.ID)
		assert.Error(t, err)

		require.NoError(t, f.svc.DeletePost(ctx, post.ID, author.ID))
		_, err = f.svc.GetPost(ctx, post.ID)
		assert.Error(t, err)
	})
}

func TestPostService_Comments(t *testing.T) {
	f := newPostFixture(t)
	ctx := context.Background()

	author := serviceUser(t, f.db, "author")
	commenter := serviceUser(t, f.db, "commenter")
	stranger := serviceUser(t, f.db, "stranger")

	post, err := f.svc.CreatePost(ctx, CreatePostInput{AuthorID: author.ID, Content: "come comment"})
	require.NoError(t, err)

	t.Run("comment notifies the post author", func(t *testing.T) {
		comment, err := f.svc.AddComment(ctx, AddCommentInput{UserID: commenter.ID, PostID: post.ID, Content: "first!"})
		require.NoError(t, err)
		assert.Equal(t, "commenter", comment.User.Username)

		var count int64
		f.db.Model(&models.Notification{}).Where("recipient_id = ?", author.ID).Count(&count)
		assert.EqualValues(t, 1, count)
		require.Len(t, f.publisher.notifications, 1)
		assert.Equal(t, author.ID, f.publisher.notifications[0].recipientID)
	})

	t.Run("self-comment does not notify", func(t *testing.T) {
		_, err := f.svc.AddComment(ctx, AddCommentInput{UserID: author.ID, PostID: post.ID, Content: "thanks all"})
		require.NoError(t, err)

		var count int64
		f.db.Model(&models.Notification{}).Where("recipient_id = ?", author.ID).Count(&count)
		assert.EqualValues(t, 1, count)
	})

	t.Run("comment author and post author may delete, nobody else", func(t *testing.T) {
		comment, err := f.svc.AddComment(ctx, AddCommentInput{UserID: commenter.ID, PostID: post.ID, Content: "delete me"})
		require.NoError(t, err)

		err = f.svc.DeleteComment(ctx, comment.ID, stranger.ID)
		assert.Error(t, err)

		require.NoError(t, f.svc.DeleteComment(ctx, comment.ID, author.ID))

		other, err := f.svc.AddComment(ctx, AddCommentInput{UserID: commenter.ID, PostID: post.ID, Content: "mine to delete"})
		require.NoError(t, err)
		require.NoError(t, f.svc.DeleteComment(ctx, other.ID, commenter.ID))
	})
}
