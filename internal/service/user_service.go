package service

import (
	"context"
	"strings"
	"time"

	apperrors "focusmate/internal/errors"
	"focusmate/internal/model"
	"focusmate/internal/repository"
)

type UserService struct {
	repo *repository.UserRepository
}

func NewUserService(repo *repository.UserRepository) *UserService {
	return &UserService{repo: repo}
}

// UpdateProfileInput carries optional fields; blank values leave the
// stored value untouched.
type UpdateProfileInput struct {
	Name  *string
	Email *string
	Image *string
}

func (s *UserService) Get(ctx context.Context, userID string) (*model.User, *apperrors.APIError) {
	user, err := s.repo.GetByID(ctx, userID)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("user_not_found", "user not found")
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get user")
	}
	return user, nil
}

func (s *UserService) Update(ctx context.Context, userID string, input UpdateProfileInput) (*model.User, *apperrors.APIError) {
	user, apiErr := s.Get(ctx, userID)
	if apiErr != nil {
		return nil, apiErr
	}

	if value := trimmed(input.Name); value != "" {
		user.Name = value
	}
	if value := trimmed(input.Email); value != "" {
		email := strings.ToLower(value)
		if !isValidEmail(email) {
			return nil, apperrors.Validation(map[string]string{"email": "a valid email is required"})
		}
		user.Email = email
	}
	if value := trimmed(input.Image); value != "" {
		user.Image = value
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateProfile(ctx, user); err != nil {
		if err == repository.ErrDuplicate {
			return nil, apperrors.Conflict("email_exists", "email already registered", nil)
		}
		if err == repository.ErrNotFound {
			return nil, apperrors.NotFound("user_not_found", "user not found")
		}
		return nil, apperrors.Wrap(err, "failed to update user")
	}
	return user, nil
}

func trimmed(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}
