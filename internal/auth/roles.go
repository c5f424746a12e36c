package auth

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

const RoleAdmin = "admin"

type RoleRepo struct{ DB *pgxpool.Pool }

func (r *RoleRepo) HasRole(ctx context.Context, userID, role string) (bool, error) {
	var n int
	err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM user_roles WHERE user_id=$1 AND role=$2`,
		userID, role).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
