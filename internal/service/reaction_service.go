package service

import (
	"context"
	"log/slog"

	"diorama/internal/middleware"
	"diorama/internal/models"
	"diorama/internal/repository"
)

// LivePublisher pushes live events to connected clients. Implementations
// fan out via Redis pub/sub.
type LivePublisher interface {
	PublishReactionSnapshot(ctx context.Context, postID uint, reactions []models.Reaction) error
	PublishNotification(ctx context.Context, recipientID uint, n *models.Notification) error
}

// ReactionService owns the reaction pipeline: atomic reaction writes, the
// follow-up notification, and the live snapshot broadcast.
type ReactionService struct {
	reactionRepo     repository.ReactionRepository
	postRepo         repository.PostRepository
	notificationRepo repository.NotificationRepository
	publisher        LivePublisher
}

// ReactResult reports the outcome of a reaction write along with the updated
// post and its authoritative reaction set.
type ReactResult struct {
	Created   bool
	Post      *models.Post
	Reactions []models.Reaction
}

// ToggleResult reports the outcome of a like toggle along with the updated
// post and its authoritative reaction set.
type ToggleResult struct {
	Liked     bool
	Post      *models.Post
	Reactions []models.Reaction
}

func NewReactionService(
	reactionRepo repository.ReactionRepository,
	postRepo repository.PostRepository,
	notificationRepo repository.NotificationRepository,
	publisher LivePublisher,
) *ReactionService {
	return &ReactionService{
		reactionRepo:     reactionRepo,
		postRepo:         postRepo,
		notificationRepo: notificationRepo,
		publisher:        publisher,
	}
}

// React writes the user's reaction to the post, replacing any previous one.
// A notification is sent to the post author only when the write created a
// reaction where none existed, and never for self-reactions. Notification
// failures are swallowed: the reaction is already durable at that point.
func (s *ReactionService) React(ctx context.Context, postID, userID uint, reactionType models.ReactionType) (*ReactResult, error) {
	if !reactionType.Valid() {
		return nil, models.NewValidationError("Invalid reaction type")
	}

	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	created, err := s.reactionRepo.Upsert(ctx, postID, userID, reactionType)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	if created {
		middleware.ReactionWrites.WithLabelValues("created").Inc()
		s.notifyAuthor(ctx, post, userID)
	} else {
		middleware.ReactionWrites.WithLabelValues("updated").Inc()
	}

	reactions, err := s.broadcast(ctx, postID)
	if err != nil {
		return nil, err
	}
	post.Reactions = reactions
	return &ReactResult{Created: created, Post: post, Reactions: reactions}, nil
}

// Unreact removes the user's reaction from the post regardless of its type.
// Removing a reaction that does not exist is a no-op, not an error.
func (s *ReactionService) Unreact(ctx context.Context, postID, userID uint) (*ReactResult, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	removed, err := s.reactionRepo.Remove(ctx, postID, userID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if removed {
		middleware.ReactionWrites.WithLabelValues("removed").Inc()
	}

	reactions, err := s.broadcast(ctx, postID)
	if err != nil {
		return nil, err
	}
	post.Reactions = reactions
	return &ReactResult{Created: false, Post: post, Reactions: reactions}, nil
}

// ToggleLike flips the user's like on the post. When the user currently
// holds a like it is removed; any other state (no reaction, or a non-like
// reaction) ends with the user holding a like. The removal is guarded by
// type so it never deletes a reaction that is no longer a like.
func (s *ReactionService) ToggleLike(ctx context.Context, postID, userID uint) (*ToggleResult, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	removed, err := s.reactionRepo.RemoveIfType(ctx, postID, userID, models.ReactionLike)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	liked := false
	if !removed {
		created, err := s.reactionRepo.Upsert(ctx, postID, userID, models.ReactionLike)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		liked = true
		if created {
			middleware.ReactionWrites.WithLabelValues("created").Inc()
			s.notifyAuthor(ctx, post, userID)
		} else {
			middleware.ReactionWrites.WithLabelValues("updated").Inc()
		}
	} else {
		middleware.ReactionWrites.WithLabelValues("removed").Inc()
	}

	reactions, err := s.broadcast(ctx, postID)
	if err != nil {
		return nil, err
	}
	post.Reactions = reactions
	return &ToggleResult{Liked: liked, Post: post, Reactions: reactions}, nil
}

// GetReactions returns the authoritative reaction set for the post. Used by
// clients to self-heal after missed live updates.
func (s *ReactionService) GetReactions(ctx context.Context, postID uint) ([]models.Reaction, error) {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	reactions, err := s.reactionRepo.GetByPostID(ctx, postID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return reactions, nil
}

// notifyAuthor records a reaction notification for the post author. Failures
// are logged and swallowed.
func (s *ReactionService) notifyAuthor(ctx context.Context, post *models.Post, senderID uint) {
	if post.AuthorID == senderID {
		return
	}
	n := &models.Notification{
		RecipientID: post.AuthorID,
		SenderID:    senderID,
		Type:        models.NotificationReaction,
		PostID:      post.ID,
	}
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		middleware.NotificationFailures.Inc()
		middleware.Logger.ErrorContext(ctx, "failed to create reaction notification",
			slog.Uint64("post_id", uint64(post.ID)),
			slog.Uint64("recipient_id", uint64(post.AuthorID)),
			slog.String("error", err.Error()),
		)
		return
	}
	if s.publisher != nil {
		if err := s.publisher.PublishNotification(ctx, post.AuthorID, n); err != nil {
			middleware.Logger.ErrorContext(ctx, "failed to push notification event",
				slog.Uint64("recipient_id", uint64(post.AuthorID)),
				slog.String("error", err.Error()),
			)
		}
	}
}

// broadcast reads the post's full reaction set and pushes it to live
// clients. The snapshot is also returned so HTTP responses and the broadcast
// always agree. Publish failures are logged and swallowed: clients self-heal
// by re-fetching.
func (s *ReactionService) broadcast(ctx context.Context, postID uint) ([]models.Reaction, error) {
	reactions, err := s.reactionRepo.GetByPostID(ctx, postID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if s.publisher != nil {
		if err := s.publisher.PublishReactionSnapshot(ctx, postID, reactions); err != nil {
			middleware.Logger.ErrorContext(ctx, "failed to publish reaction snapshot",
				slog.Uint64("post_id", uint64(postID)),
				slog.String("error", err.Error()),
			)
		}
	}
	return reactions, nil
}
