package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/usermanagement/internal/apperrors"
	"github.com/nkiryanov/usermanagement/internal/models"
)

type RefreshTokenRepo struct {
	DB DBTX
}

// The unique index on token is the last word on uniqueness: the pre-check may race with concurrent issuing
const createToken = `-- name: CreateRefreshToken
INSERT INTO refresh_tokens (
	id, user_id, token, created_at, expires_at, created_by_ip,
	revoked_at, revoked_by_ip, revoke_reason, replaced_by
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (token) DO NOTHING
`

func (r *RefreshTokenRepo) Create(ctx context.Context, t models.RefreshToken) error {
	tag, err := r.DB.Exec(ctx, createToken,
		t.ID, t.UserID, t.Token, t.CreatedAt, t.ExpiresAt, t.CreatedByIP,
		t.RevokedAt, t.RevokedByIP, t.RevokeReason, t.ReplacedBy,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation:
			return fmt.Errorf("repo error: %w", apperrors.ErrUserNotFound)
		case errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation:
			return fmt.Errorf("repo error: %w", apperrors.ErrRefreshTokenExists)
		default:
			return fmt.Errorf("db error: %w", err)
		}
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo error: %w", apperrors.ErrRefreshTokenExists)
	}

	return nil
}

const existsToken = `-- name: RefreshTokenExists
SELECT EXISTS (SELECT 1 FROM refresh_tokens WHERE token = $1)
`

func (r *RefreshTokenRepo) Exists(ctx context.Context, tokenString string) (bool, error) {
	var exists bool
	err := r.DB.QueryRow(ctx, existsToken, tokenString).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	return exists, nil
}

const getToken = `-- name: GetRefreshToken by string itself
SELECT id, user_id, token, created_at, expires_at, created_by_ip,
	revoked_at, revoked_by_ip, revoke_reason, replaced_by
FROM refresh_tokens
WHERE token = $1
`

// Get token
// It should return result even it expired or revoked already
func (r *RefreshTokenRepo) GetByToken(ctx context.Context, tokenString string) (models.RefreshToken, error) {
	rows, _ := r.DB.Query(ctx, getToken, tokenString)
	token, err := pgx.CollectOneRow(rows, rowToRefreshToken)

	switch {
	case err == nil:
		return token, nil
	case errors.Is(err, pgx.ErrNoRows):
		return token, fmt.Errorf("repo error: %w", apperrors.ErrRefreshTokenNotFound)
	default:
		return token, fmt.Errorf("db error: %w", err)
	}
}

const listUserTokens = `-- name: ListUserRefreshTokens
SELECT id, user_id, token, created_at, expires_at, created_by_ip,
	revoked_at, revoked_by_ip, revoke_reason, replaced_by
FROM refresh_tokens
WHERE user_id = $1
ORDER BY created_at, id
`

func (r *RefreshTokenRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.RefreshToken, error) {
	rows, _ := r.DB.Query(ctx, listUserTokens, userID)
	tokens, err := pgx.CollectRows(rows, rowToRefreshToken)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return tokens, nil
}

const updateToken = `-- name: UpdateRefreshToken
UPDATE refresh_tokens
SET revoked_at = $2, revoked_by_ip = $3, revoke_reason = $4, replaced_by = $5
WHERE id = $1
`

func (r *RefreshTokenRepo) Update(ctx context.Context, t models.RefreshToken) error {
	tag, err := r.DB.Exec(ctx, updateToken, t.ID, t.RevokedAt, t.RevokedByIP, t.RevokeReason, t.ReplacedBy)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo error: %w", apperrors.ErrRefreshTokenNotFound)
	}

	return nil
}

const deleteTokens = `-- name: DeleteRefreshTokens
DELETE FROM refresh_tokens
WHERE id = ANY($1)
`

func (r *RefreshTokenRepo) DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	tag, err := r.DB.Exec(ctx, deleteTokens, ids)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return tag.RowsAffected(), nil
}

const deleteInactiveTokens = `-- name: DeleteInactiveRefreshTokens
DELETE FROM refresh_tokens
WHERE created_at <= $1
	AND (revoked_at IS NOT NULL OR expires_at <= $2)
`

func (r *RefreshTokenRepo) DeleteInactive(ctx context.Context, createdBefore time.Time, now time.Time) (int64, error) {
	tag, err := r.DB.Exec(ctx, deleteInactiveTokens, createdBefore, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return tag.RowsAffected(), nil
}

func rowToRefreshToken(row pgx.CollectableRow) (models.RefreshToken, error) {
	var t models.RefreshToken
	err := row.Scan(
		&t.ID, &t.UserID, &t.Token, &t.CreatedAt, &t.ExpiresAt, &t.CreatedByIP,
		&t.RevokedAt, &t.RevokedByIP, &t.RevokeReason, &t.ReplacedBy,
	)
	return t, err
}
