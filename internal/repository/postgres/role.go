package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/usermanagement/internal/apperrors"
	"github.com/nkiryanov/usermanagement/internal/models"
)

type RoleRepo struct {
	DB DBTX
}

func (r *RoleRepo) GetRoleByName(ctx context.Context, name string) (models.Role, error) {
	const getRoleByName = `SELECT id, name FROM roles WHERE name = $1`

	rows, _ := r.DB.Query(ctx, getRoleByName, name)
	role, err := pgx.CollectOneRow(rows, func(row pgx.CollectableRow) (models.Role, error) {
		var role models.Role
		err := row.Scan(&role.ID, &role.Name)
		return role, err
	})

	switch {
	case err == nil:
		return role, nil
	case errors.Is(err, pgx.ErrNoRows):
		return role, apperrors.ErrRoleNotFound
	default:
		return role, fmt.Errorf("db error: %w", err)
	}
}
