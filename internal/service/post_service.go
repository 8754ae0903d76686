package service

import (
	"context"
	"log/slog"
	"strings"

	"diorama/internal/middleware"
	"diorama/internal/models"
	"diorama/internal/repository"
)

// PostService owns post and comment lifecycle.
type PostService struct {
	postRepo         repository.PostRepository
	userRepo         repository.UserRepository
	notificationRepo repository.NotificationRepository
	publisher        LivePublisher
}

type CreatePostInput struct {
	AuthorID uint
	Content  string
	// Character optionally overrides the appearance stored on the post.
	// When nil the author's current avatar is snapshotted instead.
	Character *models.CharacterConfig
	Position  models.Position
}

type UpdatePostInput struct {
	UserID  uint
	PostID  uint
	Content string
}

type AddCommentInput struct {
	UserID  uint
	PostID  uint
	Content string
}

func NewPostService(
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	notificationRepo repository.NotificationRepository,
	publisher LivePublisher,
) *PostService {
	return &PostService{
		postRepo:         postRepo,
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		publisher:        publisher,
	}
}

const maxContentLen = 5000

// CreatePost places a new post in the world. The appearance stored on the
// post is the request's character config when one was sent, otherwise a
// snapshot of the author's current avatar; either way later avatar edits do
// not rewrite history.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if len(content) > maxContentLen {
		return nil, models.NewValidationError("Content too long (max 5000 characters)")
	}

	author, err := s.userRepo.GetByID(ctx, in.AuthorID)
	if err != nil {
		return nil, err
	}

	character := author.Character
	if in.Character != nil {
		character = *in.Character
	}

	post := &models.Post{
		Content:   content,
		AuthorID:  in.AuthorID,
		Character: character,
		Position:  in.Position,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) ListPosts(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	return s.postRepo.List(ctx, limit, offset)
}

func (s *PostService) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, id)
}

func (s *PostService) ListPostsByAuthor(ctx context.Context, authorID uint, limit, offset int) ([]*models.Post, error) {
	if _, err := s.userRepo.GetByID(ctx, authorID); err != nil {
		return nil, err
	}
	return s.postRepo.GetByAuthorID(ctx, authorID, limit, offset)
}

// UpdatePost edits the post content. Only the author may edit; the character
// snapshot and position are left untouched.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != in.UserID {
		return nil, models.NewUnauthorizedError("You can only edit your own posts")
	}

	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if len(content) > maxContentLen {
		return nil, models.NewValidationError("Content too long (max 5000 characters)")
	}

	post.Content = content
	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) DeletePost(ctx context.Context, postID, userID uint) error {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.AuthorID != userID {
		return models.NewUnauthorizedError("You can only delete your own posts")
	}
	return s.postRepo.Delete(ctx, postID)
}

// AddComment attaches a comment to the post and notifies the post author.
// Like reaction notifications, a failed notification never fails the
// comment.
func (s *PostService) AddComment(ctx context.Context, in AddCommentInput) (*models.Comment, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if len(content) > maxContentLen {
		return nil, models.NewValidationError("Content too long (max 5000 characters)")
	}

	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		PostID:  in.PostID,
		UserID:  in.UserID,
		Content: content,
	}
	if err := s.postRepo.AddComment(ctx, comment); err != nil {
		return nil, err
	}

	if post.AuthorID != in.UserID {
		n := &models.Notification{
			RecipientID: post.AuthorID,
			SenderID:    in.UserID,
			Type:        models.NotificationComment,
			PostID:      post.ID,
		}
		if err := s.notificationRepo.Create(ctx, n); err != nil {
			middleware.NotificationFailures.Inc()
			middleware.Logger.ErrorContext(ctx, "failed to create comment notification",
				slog.Uint64("post_id", uint64(post.ID)),
				slog.Uint64("recipient_id", uint64(post.AuthorID)),
				slog.String("error", err.Error()),
			)
		} else if s.publisher != nil {
			if err := s.publisher.PublishNotification(ctx, post.AuthorID, n); err != nil {
				middleware.Logger.ErrorContext(ctx, "failed to push notification event",
					slog.Uint64("recipient_id", uint64(post.AuthorID)),
					slog.String("error", err.Error()),
				)
			}
		}
	}
	return comment, nil
}

// DeleteComment removes a comment. The comment author and the post author
// may both delete.
func (s *PostService) DeleteComment(ctx context.Context, commentID, userID uint) error {
	comment, err := s.postRepo.GetComment(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.UserID != userID {
		post, err := s.postRepo.GetByID(ctx, comment.PostID)
		if err != nil {
			return err
		}
		if post.AuthorID != userID {
			return models.NewUnauthorizedError("You can only delete your own comments")
		}
	}
	return s.postRepo.DeleteComment(ctx, commentID)
}
