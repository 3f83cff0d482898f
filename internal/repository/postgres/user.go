package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/usermanagement/internal/apperrors"
	"github.com/nkiryanov/usermanagement/internal/models"
)

type UserRepo struct {
	DB DBTX
}

const createUser = `-- name: CreateUser
WITH u AS (
	INSERT INTO users (id, username, password_hash, role_id)
	VALUES ($1, $2, $3, $4)
	RETURNING id, created_at, username, password_hash, role_id
)
SELECT u.id, u.created_at, u.username, u.password_hash, r.name
FROM u
JOIN roles r ON r.id = u.role_id
`

func (r *UserRepo) CreateUser(ctx context.Context, username string, hashedPassword string, roleID uuid.UUID) (models.User, error) {
	rows, _ := r.DB.Query(ctx, createUser, uuid.New(), username, hashedPassword, roleID)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	if err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation:
			return user, apperrors.ErrUserAlreadyExists
		case errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation:
			return user, apperrors.ErrRoleNotFound
		default:
			return user, fmt.Errorf("db error: %w", err)
		}
	}

	return user, nil
}

const getUserByID = `-- name: GetUserByID
SELECT u.id, u.created_at, u.username, u.password_hash, r.name
FROM users u
JOIN roles r ON r.id = u.role_id
WHERE u.id = $1
`

func (r *UserRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByID, userID)
	return collectUser(rows)
}

const getUserByUsername = `-- name: GetUserByUsername
SELECT u.id, u.created_at, u.username, u.password_hash, r.name
FROM users u
JOIN roles r ON r.id = u.role_id
WHERE u.username = $1
`

func (r *UserRepo) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByUsername, username)
	return collectUser(rows)
}

const lockUser = `-- name: LockUser
SELECT u.id, u.created_at, u.username, u.password_hash, r.name
FROM users u
JOIN roles r ON r.id = u.role_id
WHERE u.id = $1
FOR UPDATE OF u
`

// Concurrent transactions that lock the same user wait for each other
func (r *UserRepo) LockUser(ctx context.Context, userID uuid.UUID) (models.User, error) {
	rows, _ := r.DB.Query(ctx, lockUser, userID)
	return collectUser(rows)
}

const listUsers = `-- name: ListUsers
SELECT u.id, u.created_at, u.username, u.password_hash, r.name
FROM users u
JOIN roles r ON r.id = u.role_id
ORDER BY u.created_at, u.id
`

func (r *UserRepo) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, _ := r.DB.Query(ctx, listUsers)
	users, err := pgx.CollectRows(rows, rowToUser)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return users, nil
}

func collectUser(rows pgx.Rows) (models.User, error) {
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

func rowToUser(row pgx.CollectableRow) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.CreatedAt, &u.Username, &u.HashedPassword, &u.Role)
	return u, err
}
