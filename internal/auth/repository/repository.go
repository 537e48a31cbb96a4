// Package repository provides storage access for member accounts. Accounts
// are tenant-scoped: every read and write goes through the tenancy guard,
// which applies the tenant predicate and stamps inserts.
package repository

import (
	"context"
	"errors"
	"time"

	"timebank_backend/internal/tenancy"
	"timebank_backend/platform/apperr"
	"timebank_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

// Account is a member of exactly one tenant. The tenant_id is assigned at
// creation and never changes; email is unique within the tenant, not globally.
type Account struct {
	ID           uuid.UUID `db:"id"`
	TenantID     uuid.UUID `db:"tenant_id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	DisplayName  string    `db:"display_name"`
	Bio          *string   `db:"bio"`
	Skills       []string  `db:"skills"`
	Role         string    `db:"role"`
	IsActive     bool      `db:"is_active"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// TenantTable marks Account as tenant-scoped for the isolation guard.
func (Account) TenantTable() string { return "accounts" }

const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

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

// Create inserts a new account into the resolved tenant. A duplicate email
// within the tenant fails with a conflict.
func (r *Repository) Create(ctx context.Context, email, passwordHash, displayName string) (Account, error) {
	account, err := tenancy.InsertOne[Account](ctx, r.guard(ctx),
		[]string{"email", "password_hash", "display_name", "role"},
		[]any{email, passwordHash, displayName, RoleMember},
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return Account{}, apperr.Conflict("email already registered")
		}
		return Account{}, err
	}
	return account, nil
}

// GetByEmail finds an account by email within the resolved tenant.
func (r *Repository) GetByEmail(ctx context.Context, email string) (Account, error) {
	return tenancy.One[Account](ctx, r.guard(ctx), "lower(email) = lower($1)", email)
}

// GetByID finds an account by id within the resolved tenant. An account in
// another tenant is indistinguishable from a missing one.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Account, error) {
	return tenancy.GetByID[Account](ctx, r.guard(ctx), id)
}

// UpdatePassword replaces the password hash of an account in the resolved tenant.
func (r *Repository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	rows, err := r.guard(ctx).Update(ctx, Account{}.TenantTable(),
		"password_hash = $1, updated_at = now()", "id = $2", passwordHash, id)
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperr.NotFound("account not found")
	}
	return nil
}
