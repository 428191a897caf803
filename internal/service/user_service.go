// Package service holds the business logic between HTTP handlers and repositories.
package service

import (
	"context"
	"strings"

	"techfeed/internal/auth"
	"techfeed/internal/cache"
	"techfeed/internal/models"
	"techfeed/internal/repository"
	"techfeed/internal/validation"

	"gorm.io/gorm"
)

type UserService struct {
	userRepo repository.UserRepository
	db       *gorm.DB
}

type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UpdateProfileInput struct {
	UserID   uint
	Username string
	Email    string
	Password string
}

// NewUserService returns a user service. The db handle backs the
// multi-table delete transaction and may be nil in unit tests that do
// not exercise deletion.
func NewUserService(userRepo repository.UserRepository, db *gorm.DB) *UserService {
	return &UserService{userRepo: userRepo, db: db}
}

// Register validates the input, hashes the password and creates the user.
// The plaintext password never reaches the repository.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	if err := validation.ValidateUsername(in.Username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	hashed, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, models.NewStoreError(err)
	}

	user := &models.User{
		Username: in.Username,
		Email:    in.Email,
		Password: hashed,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate verifies the email/password pair. An unknown email and a
// wrong password return the same error so callers cannot probe for
// registered addresses.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, err
	}
	if user == nil || !auth.CheckPassword(password, user.Password) {
		return nil, models.NewUnauthorizedError("Invalid email or password")
	}
	return user, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *UserService) GetUserWithPosts(ctx context.Context, id uint, limit int) (*models.User, error) {
	return s.userRepo.GetByIDWithPosts(ctx, id, limit)
}

func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.userRepo.List(ctx, limit, offset)
}

func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.Username != "" {
		if err := validation.ValidateUsername(in.Username); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.Username = in.Username
	}
	if in.Email != "" {
		if err := validation.ValidateEmail(in.Email); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.Email = in.Email
	}
	if in.Password != "" {
		if err := validation.ValidatePassword(in.Password); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		hashed, err := auth.HashPassword(in.Password)
		if err != nil {
			return nil, models.NewStoreError(err)
		}
		user.Password = hashed
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser removes the user together with their votes, comments and
// posts in one transaction, so vote counts never reference a deleted user.
func (s *UserService) DeleteUser(ctx context.Context, id uint) error {
	if _, err := s.userRepo.GetByID(ctx, id); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.Vote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Post{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, id).Error
	})
	if err != nil {
		return models.NewStoreError(err)
	}

	cache.InvalidateUser(ctx, id)
	return nil
}
