// Package repository provides storage access for in-app notifications.
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

// Notification is one in-app notification for a member.
type Notification struct {
	ID        uuid.UUID  `db:"id"`
	TenantID  uuid.UUID  `db:"tenant_id"`
	AccountID uuid.UUID  `db:"account_id"`
	Kind      string     `db:"kind"`
	Title     string     `db:"title"`
	Body      string     `db:"body"`
	RefID     *uuid.UUID `db:"ref_id"`
	ReadAt    *time.Time `db:"read_at"`
	CreatedAt time.Time  `db:"created_at"`
}

// TenantTable marks Notification as tenant-scoped for the isolation guard.
func (Notification) TenantTable() string { return "notifications" }

const (
	KindTransferReceived = "transfer_received"
	KindTransferSent     = "transfer_sent"
	KindMessageReceived  = "message_received"
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

// Create stores a notification for a member.
func (r *Repository) Create(ctx context.Context, accountID uuid.UUID, kind, title, body string, refID *uuid.UUID) (Notification, error) {
	return tenancy.InsertOne[Notification](ctx, r.guard(ctx),
		[]string{"account_id", "kind", "title", "body", "ref_id"},
		[]any{accountID, kind, title, body, refID},
	)
}

// List returns a member's notifications, newest first. unreadOnly narrows to
// unread ones.
func (r *Repository) List(ctx context.Context, accountID uuid.UUID, unreadOnly bool, limit, offset int) ([]Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	cond := "account_id = $1"
	if unreadOnly {
		cond += " AND read_at IS NULL"
	}
	return tenancy.List[Notification](ctx, r.guard(ctx), cond,
		fmt.Sprintf("ORDER BY created_at DESC LIMIT %d OFFSET %d", limit, offset),
		accountID,
	)
}

// UnreadCount returns the number of unread notifications for a member.
func (r *Repository) UnreadCount(ctx context.Context, accountID uuid.UUID) (int, error) {
	return tenancy.Count[Notification](ctx, r.guard(ctx),
		"account_id = $1 AND read_at IS NULL", accountID)
}

// MarkRead marks one of the member's notifications as read.
func (r *Repository) MarkRead(ctx context.Context, id, accountID uuid.UUID) error {
	rows, err := r.guard(ctx).Update(ctx, Notification{}.TenantTable(),
		"read_at = now()", "id = $1 AND account_id = $2 AND read_at IS NULL", id, accountID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperr.NotFound("notification not found")
	}
	return nil
}

// MarkAllRead marks all of the member's notifications as read.
func (r *Repository) MarkAllRead(ctx context.Context, accountID uuid.UUID) error {
	_, err := r.guard(ctx).Update(ctx, Notification{}.TenantTable(),
		"read_at = now()", "account_id = $1 AND read_at IS NULL", accountID)
	return err
}
