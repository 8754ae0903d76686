package service

import (
	"context"
	"strings"

	"diorama/internal/models"
	"diorama/internal/repository"
)

// UserService owns profile reads and edits. Registration and login live in
// the server's auth handlers.
type UserService struct {
	userRepo repository.UserRepository
}

type UpdateProfileInput struct {
	UserID    uint
	Bio       *string
	Character *models.CharacterConfig
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) GetProfile(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

const maxBioLen = 500

// UpdateProfile applies partial edits to the user's bio and character
// appearance. Nil fields are left unchanged.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.Bio != nil {
		bio := strings.TrimSpace(*in.Bio)
		if len(bio) > maxBioLen {
			return nil, models.NewValidationError("Bio too long (max 500 characters)")
		}
		user.Bio = bio
	}
	if in.Character != nil {
		user.Character = *in.Character
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
