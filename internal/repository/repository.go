package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/usermanagement/internal/models"
)

// Storage groups repositories that share one database handle
// Repositories returned from the Storage passed to InTx work inside that transaction
type Storage interface {
	User() UserRepo
	Role() RoleRepo
	Refresh() RefreshTokenRepo

	// Run fn in transaction: commit if fn returns nil, rollback otherwise
	// Nested calls are executed as savepoints
	InTx(ctx context.Context, fn func(Storage) error) error
}

// User repository interface
type UserRepo interface {
	// Create user with the role
	// If user with username exists already has to return error apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, username string, hashedPassword string, roleID uuid.UUID) (models.User, error)

	// Get user by it's id or username
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)

	// Users ordered by creation time
	ListUsers(ctx context.Context) ([]models.User, error)

	// Lock the user row till transaction ends
	// Every change of user refresh tokens must hold the lock
	// If user not found must return apperrors.ErrUserNotFound
	LockUser(ctx context.Context, userID uuid.UUID) (models.User, error)
}

type RoleRepo interface {
	// If role not found must return apperrors.ErrRoleNotFound
	GetRoleByName(ctx context.Context, name string) (models.Role, error)
}

// RefreshToken repository interface
type RefreshTokenRepo interface {
	// Create token in repository
	// Token value is unique across all users: on conflict must return apperrors.ErrRefreshTokenExists
	Create(ctx context.Context, token models.RefreshToken) error

	// Whether any user owns the token value
	Exists(ctx context.Context, tokenString string) (bool, error)

	// Return the token even if it is expired or revoked
	// If token not found must return apperrors.ErrRefreshTokenNotFound
	GetByToken(ctx context.Context, tokenString string) (models.RefreshToken, error)

	// All user tokens ordered from oldest to newest
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.RefreshToken, error)

	// Persist revocation fields (revoked_at, revoked_by_ip, revoke_reason, replaced_by)
	// If token not found must return apperrors.ErrRefreshTokenNotFound
	Update(ctx context.Context, token models.RefreshToken) error

	// Delete tokens by ids, unknown ids are ignored
	DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error)

	// Delete tokens of all users that are inactive at 'now' and created at or before 'createdBefore'
	DeleteInactive(ctx context.Context, createdBefore time.Time, now time.Time) (int64, error)
}
