package authz

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository loads actors and their effective permissions.
type Repository interface {
	GetActor(ctx context.Context, id uuid.UUID) (Actor, error)
	EffectivePermissions(ctx context.Context, actorID uuid.UUID) ([]string, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns the pgx-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) GetActor(ctx context.Context, id uuid.UUID) (Actor, error) {
	var a Actor
	err := r.pool.QueryRow(ctx, `SELECT id, name, api_key_hash, is_active, created_at FROM actors WHERE id=$1`, id).
		Scan(&a.ID, &a.Name, &a.APIKeyHash, &a.IsActive, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Actor{}, ErrBadCredentials
		}
		return Actor{}, err
	}
	return a, nil
}

func (r *repository) EffectivePermissions(ctx context.Context, actorID uuid.UUID) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT rp.permission
FROM actor_roles ar
JOIN role_permissions rp ON rp.role_id = ar.role_id
WHERE ar.actor_id = $1`, actorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var perms []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}
