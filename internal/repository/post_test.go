package repository

import (
	"context"
	"testing"
	"time"

	"diorama/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "author")

	post := &models.Post{
		Content:  "first post in my room",
		AuthorID: author.ID,
		Position: models.Position{X: 1.5, Y: 0, Z: -3.25},
		Character: models.CharacterConfig{
			Variations: map[string]string{"head": "round"},
			Colors:     map[string]string{"head": "#ffb703"},
		},
	}
	require.NoError(t, repo.Create(ctx, post))
	assert.Equal(t, "author", post.Author.Username, "author is reloaded on create")

	t.Run("round trips position and character config", func(t *testing.T) {
		fetched, err := repo.GetByID(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, models.Position{X: 1.5, Y: 0, Z: -3.25}, fetched.Position)
		assert.Equal(t, "round", fetched.Character.Variations["head"])
		assert.Equal(t, "#ffb703", fetched.Character.Colors["head"])
	})

	t.Run("missing post is a not found error", func(t *testing.T) {
		_, err := repo.GetByID(ctx, 9999)
		require.Error(t, err)
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "NOT_FOUND", appErr.Code)
	})
}

func TestPostRepository_ListOrdering(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "author")
	now := time.Now()
	for i, content := range []string{"oldest", "middle", "newest"} {
		post := &models.Post{Content: content, AuthorID: author.ID}
		post.CreatedAt = now.Add(time.Duration(i) * time.Minute)
		require.NoError(t, db.Create(post).Error)
	}

	posts, err := repo.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, "newest", posts[0].Content)
	assert.Equal(t, "oldest", posts[2].Content)

	t.Run("pagination", func(t *testing.T) {
		page, err := repo.List(ctx, 2, 2)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, "oldest", page[0].Content)
	})
}

func TestPostRepository_Associations(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	reactions := NewReactionRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "author")
	commenter := createTestUser(t, db, "commenter")
	post := createTestPost(t, db, author)

	_, err := reactions.Upsert(ctx, post.ID, commenter.ID, models.ReactionLove)
	require.NoError(t, err)

	comment := &models.Comment{PostID: post.ID, UserID: commenter.ID, Content: "nice room"}
	require.NoError(t, repo.AddComment(ctx, comment))
	assert.Equal(t, "commenter", comment.User.Username, "comment user is reloaded")

	fetched, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, fetched.Reactions, 1)
	assert.Equal(t, "commenter", fetched.Reactions[0].User.Username)
	require.Len(t, fetched.Comments, 1)
	assert.Equal(t, "nice room", fetched.Comments[0].Content)

	t.Run("delete comment", func(t *testing.T) {
		require.NoError(t, repo.DeleteComment(ctx, comment.ID))
		_, err := repo.GetComment(ctx, comment.ID)
		assert.Error(t, err)
	})
}

func TestUserRepository_CRUD(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := &models.User{Username: "ada", Email: "ada@example.com", Password: "hashed"}
	require.NoError(t, repo.Create(ctx, user))

	t.Run("duplicate username is a validation error", func(t *testing.T) {
		dup := &models.User{Username: "ada", Email: "other@example.com", Password: "hashed"}
		err := repo.Create(ctx, dup)
		require.Error(t, err)
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
	})

	t.Run("lookups", func(t *testing.T) {
		byEmail, err := repo.GetByEmail(ctx, "ada@example.com")
		require.NoError(t, err)
		require.NotNil(t, byEmail)
		assert.Equal(t, user.ID, byEmail.ID)

		missing, err := repo.GetByEmail(ctx, "nobody@example.com")
		require.NoError(t, err)
		assert.Nil(t, missing, "missing email is nil, nil")

		byName, err := repo.GetByUsername(ctx, "ada")
		require.NoError(t, err)
		require.NotNil(t, byName)
		assert.Equal(t, user.ID, byName.ID)
	})

	t.Run("update persists character config", func(t *testing.T) {
		user.Character = models.CharacterConfig{
			Variations: map[string]string{"torso": "hoodie"},
			Colors:     map[string]string{"torso": "#1d3557"},
		}
		require.NoError(t, repo.Update(ctx, user))

		fetched, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "hoodie", fetched.Character.Variations["torso"])
	})
}
