// Package repository provides the member directory view over the accounts
// table. It never touches credentials; those belong to the auth module.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"timebank_backend/internal/tenancy"
	"timebank_backend/platform/apperr"
	"timebank_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Member is the public profile of an account within its community.
type Member struct {
	ID          uuid.UUID `db:"id"`
	DisplayName string    `db:"display_name"`
	Bio         *string   `db:"bio"`
	Skills      []string  `db:"skills"`
	Role        string    `db:"role"`
	IsActive    bool      `db:"is_active"`
	CreatedAt   time.Time `db:"created_at"`
}

// TenantTable marks Member as tenant-scoped for the isolation guard.
func (Member) TenantTable() string { return "accounts" }

const profileColumns = "id, display_name, bio, skills, role, is_active, created_at"

type Repository struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

func New(pool *pgxpool.Pool, log *logger.Logger) *Repository {
	return &Repository{pool: pool, log: log}
}

func (r *Repository) guard(ctx context.Context) *tenancy.Guard {
	return tenancy.NewGuard(r.pool, ctx, r.log)
}

// List returns active member profiles in the caller's community, optionally
// filtered by a name or skill search term.
func (r *Repository) List(ctx context.Context, search string, limit, offset int) ([]Member, error) {
	cond := "is_active = TRUE"
	args := []any{}
	if search != "" {
		cond = "is_active = TRUE AND (display_name ILIKE '%' || $1 || '%' OR $1 = ANY(skills))"
		args = append(args, search)
	}

	rows, err := r.guard(ctx).Select(ctx, Member{}.TenantTable(), profileColumns, cond,
		listSuffix(limit, offset), args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByNameLax[Member])
}

// GetByID returns one member profile from the caller's community.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Member, error) {
	rows, err := r.guard(ctx).Select(ctx, Member{}.TenantTable(), profileColumns, "id = $1", "", id)
	if err != nil {
		return Member{}, err
	}
	member, err := pgx.CollectOneRow(rows, pgx.RowToStructByNameLax[Member])
	if errors.Is(err, pgx.ErrNoRows) {
		return Member{}, apperr.NotFound("member not found")
	}
	return member, err
}

// Exists reports whether an active member with the given id exists in the
// caller's community.
func (r *Repository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return tenancy.Exists[Member](ctx, r.guard(ctx), "id = $1 AND is_active = TRUE", id)
}

// UpdateProfile changes a member's own profile fields.
func (r *Repository) UpdateProfile(ctx context.Context, id uuid.UUID, displayName string, bio *string, skills []string) error {
	rows, err := r.guard(ctx).Update(ctx, Member{}.TenantTable(),
		"display_name = $1, bio = $2, skills = $3, updated_at = now()",
		"id = $4", displayName, bio, skills, id)
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperr.NotFound("member not found")
	}
	return nil
}

func listSuffix(limit, offset int) string {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return fmt.Sprintf("ORDER BY display_name ASC LIMIT %d OFFSET %d", limit, offset)
}
