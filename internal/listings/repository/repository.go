// Package repository provides storage access for marketplace listings.
package repository

import (
	"context"
	"fmt"
	"time"

	"timebank_backend/internal/tenancy"
	"timebank_backend/platform/apperr"
	"timebank_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Listing is an offer of help or a request for help posted by a member.
type Listing struct {
	ID          uuid.UUID `db:"id"`
	TenantID    uuid.UUID `db:"tenant_id"`
	OwnerID     uuid.UUID `db:"owner_id"`
	Kind        string    `db:"kind"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	Category    string    `db:"category"`
	Status      string    `db:"status"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// TenantTable marks Listing as tenant-scoped for the isolation guard.
func (Listing) TenantTable() string { return "listings" }

const (
	KindOffer   = "offer"
	KindRequest = "request"

	StatusActive = "active"
	StatusClosed = "closed"
)

// Filter narrows a listing search.
type Filter struct {
	Kind     string
	Category string
	Search   string
	OwnerID  *uuid.UUID
	Limit    int
	Offset   int
}

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

// Create inserts a listing owned by the caller into the resolved tenant.
func (r *Repository) Create(ctx context.Context, ownerID uuid.UUID, kind, title, description, category string) (Listing, error) {
	return tenancy.InsertOne[Listing](ctx, r.guard(ctx),
		[]string{"owner_id", "kind", "title", "description", "category", "status"},
		[]any{ownerID, kind, title, description, category, StatusActive},
	)
}

// GetByID loads one listing from the caller's community.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Listing, error) {
	return tenancy.GetByID[Listing](ctx, r.guard(ctx), id)
}

// List returns listings matching the filter, newest first.
func (r *Repository) List(ctx context.Context, f Filter) ([]Listing, error) {
	cond := "status = $1"
	args := []any{StatusActive}

	if f.Kind != "" {
		args = append(args, f.Kind)
		cond += fmt.Sprintf(" AND kind = $%d", len(args))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		cond += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if f.Search != "" {
		args = append(args, f.Search)
		cond += fmt.Sprintf(" AND (title ILIKE '%%' || $%d || '%%' OR description ILIKE '%%' || $%d || '%%')", len(args), len(args))
	}
	if f.OwnerID != nil {
		args = append(args, *f.OwnerID)
		cond += fmt.Sprintf(" AND owner_id = $%d", len(args))
	}

	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	suffix := fmt.Sprintf("ORDER BY created_at DESC LIMIT %d OFFSET %d", limit, offset)

	return tenancy.List[Listing](ctx, r.guard(ctx), cond, suffix, args...)
}

// Update changes a listing's editable fields. Only the owner's rows match.
func (r *Repository) Update(ctx context.Context, id, ownerID uuid.UUID, title, description, category string) error {
	rows, err := r.guard(ctx).Update(ctx, Listing{}.TenantTable(),
		"title = $1, description = $2, category = $3, updated_at = now()",
		"id = $4 AND owner_id = $5", title, description, category, id, ownerID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperr.NotFound("listing not found")
	}
	return nil
}

// SetStatus moves a listing between active and closed. Only the owner's rows
// match.
func (r *Repository) SetStatus(ctx context.Context, id, ownerID uuid.UUID, status string) error {
	rows, err := r.guard(ctx).Update(ctx, Listing{}.TenantTable(),
		"status = $1, updated_at = now()",
		"id = $2 AND owner_id = $3", status, id, ownerID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperr.NotFound("listing not found")
	}
	return nil
}
