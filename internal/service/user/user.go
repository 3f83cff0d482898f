package user

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nkiryanov/usermanagement/internal/models"
	"github.com/nkiryanov/usermanagement/internal/repository"
)

type UserService struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *UserService {
	return &UserService{storage: storage}
}

// Returns apperrors.ErrUserNotFound if user not exists
func (s *UserService) GetUser(ctx context.Context, userID uuid.UUID) (models.User, error) {
	return s.storage.User().GetUserByID(ctx, userID)
}

func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.storage.User().ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("can't list users. Err: %w", err)
	}

	return users, nil
}

// All refresh tokens of the user: active, expired and revoked ones not pruned yet
// Returns apperrors.ErrUserNotFound if user not exists
func (s *UserService) ListRefreshTokens(ctx context.Context, userID uuid.UUID) ([]models.RefreshToken, error) {
	if _, err := s.storage.User().GetUserByID(ctx, userID); err != nil {
		return nil, err
	}

	tokens, err := s.storage.Refresh().ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("can't list refresh tokens. Err: %w", err)
	}

	return tokens, nil
}
