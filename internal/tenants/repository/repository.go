// Package repository provides storage access for tenant records.
// The tenants table is the one table that is not tenant-scoped: it is the
// scope itself, so access here does not go through the isolation guard.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"timebank_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

// Tenant is an isolated community whose data must never be visible to
// another tenant.
type Tenant struct {
	ID        uuid.UUID `db:"id"`
	Slug      string    `db:"slug"`
	Name      string    `db:"name"`
	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Create(ctx context.Context, slug, name string) (Tenant, error) {
	rows, err := r.pool.Query(ctx, `
		INSERT INTO tenants (slug, name)
		VALUES ($1, $2)
		RETURNING *
	`, slug, name)
	if err != nil {
		return Tenant{}, err
	}

	tenant, err := pgx.CollectOneRow(rows, pgx.RowToStructByNameLax[Tenant])
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return Tenant{}, apperr.Conflict(fmt.Sprintf("tenant slug %q already exists", slug))
		}
		return Tenant{}, err
	}
	return tenant, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Tenant, error) {
	rows, err := r.pool.Query(ctx, `SELECT * FROM tenants WHERE id = $1`, id)
	if err != nil {
		return Tenant{}, err
	}
	tenant, err := pgx.CollectOneRow(rows, pgx.RowToStructByNameLax[Tenant])
	if errors.Is(err, pgx.ErrNoRows) {
		return Tenant{}, apperr.NotFound("tenant not found")
	}
	return tenant, err
}

func (r *Repository) GetBySlug(ctx context.Context, slug string) (Tenant, error) {
	rows, err := r.pool.Query(ctx, `SELECT * FROM tenants WHERE slug = $1`, slug)
	if err != nil {
		return Tenant{}, err
	}
	tenant, err := pgx.CollectOneRow(rows, pgx.RowToStructByNameLax[Tenant])
	if errors.Is(err, pgx.ErrNoRows) {
		return Tenant{}, apperr.NotFound("tenant not found")
	}
	return tenant, err
}

func (r *Repository) List(ctx context.Context) ([]Tenant, error) {
	rows, err := r.pool.Query(ctx, `SELECT * FROM tenants ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByNameLax[Tenant])
}

func (r *Repository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE tenants SET is_active = $2, updated_at = now()
		WHERE id = $1
	`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("tenant not found")
	}
	return nil
}
