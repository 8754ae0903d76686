package repository

import (
	"context"
	"time"

	"diorama/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReactionRepository defines the interface for reaction data operations.
type ReactionRepository interface {
	// Upsert writes the user's reaction to the post, replacing any previous
	// one. The returned flag is true when no reaction row existed for the
	// (post, user) pair immediately before this call.
	Upsert(ctx context.Context, postID, userID uint, reactionType models.ReactionType) (created bool, err error)
	// Remove deletes the user's reaction regardless of its type. Returns
	// true when a row was deleted.
	Remove(ctx context.Context, postID, userID uint) (bool, error)
	// RemoveIfType deletes the user's reaction only when its current type
	// matches. Returns true when a row was deleted.
	RemoveIfType(ctx context.Context, postID, userID uint, reactionType models.ReactionType) (bool, error)
	// GetByPostID returns every reaction on the post in insertion order,
	// with the reacting users preloaded.
	GetByPostID(ctx context.Context, postID uint) ([]models.Reaction, error)
}

type reactionRepository struct {
	db *gorm.DB
}

// NewReactionRepository creates a new reaction repository.
func NewReactionRepository(db *gorm.DB) ReactionRepository {
	return &reactionRepository{db: db}
}

func (r *reactionRepository) Upsert(ctx context.Context, postID, userID uint, reactionType models.ReactionType) (bool, error) {
	now := time.Now().UTC()
	reaction := models.Reaction{
		PostID:    postID,
		UserID:    userID,
		Type:      reactionType,
		CreatedAt: now,
	}

	// INSERT ... ON CONFLICT DO NOTHING is atomic; RowsAffected tells us
	// whether this call created the row. No read-modify-write in app code.
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "post_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(&reaction)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 1 {
		return true, nil
	}

	// A row already existed: overwrite its type and timestamp in place.
	upd := r.db.WithContext(ctx).
		Model(&models.Reaction{}).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Updates(map[string]interface{}{"type": reactionType, "created_at": now})
	if upd.Error != nil {
		return false, upd.Error
	}
	if upd.RowsAffected > 0 {
		return false, nil
	}

	// The existing row was deleted between our insert and update. Retry the
	// insert once; a second concurrent writer winning again is equivalent to
	// our write landing first and being replaced.
	res = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "post_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(&reaction)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *reactionRepository) Remove(ctx context.Context, postID, userID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Delete(&models.Reaction{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *reactionRepository) RemoveIfType(ctx context.Context, postID, userID uint, reactionType models.ReactionType) (bool, error) {
	// The type guard lives in the DELETE itself so a concurrent type change
	// cannot be clobbered by a stale toggle.
	res := r.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ? AND type = ?", postID, userID, reactionType).
		Delete(&models.Reaction{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *reactionRepository) GetByPostID(ctx context.Context, postID uint) ([]models.Reaction, error) {
	var reactions []models.Reaction
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("post_id = ?", postID).
		Order("id ASC").
		Find(&reactions).Error
	if err != nil {
		return nil, err
	}
	return reactions, nil
}
