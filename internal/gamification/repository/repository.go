// Package repository provides storage access for XP awards.
package repository

import (
	"context"
	"fmt"

	"time"

	"timebank_backend/internal/tenancy"
	"timebank_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Award is one XP grant to a member for activity in their community.
type Award struct {
	ID        uuid.UUID  `db:"id"`
	TenantID  uuid.UUID  `db:"tenant_id"`
	AccountID uuid.UUID  `db:"account_id"`
	Points    int        `db:"points"`
	Reason    string     `db:"reason"`
	RefID     *uuid.UUID `db:"ref_id"`
	CreatedAt time.Time  `db:"created_at"`
}

// TenantTable marks Award as tenant-scoped for the isolation guard.
func (Award) TenantTable() string { return "xp_awards" }

// LeaderboardRow is one aggregated leaderboard line.
type LeaderboardRow struct {
	AccountID uuid.UUID `db:"account_id"`
	Points    int64     `db:"points"`
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

// Grant records an XP award.
func (r *Repository) Grant(ctx context.Context, accountID uuid.UUID, points int, reason string, refID *uuid.UUID) (Award, error) {
	return tenancy.InsertOne[Award](ctx, r.guard(ctx),
		[]string{"account_id", "points", "reason", "ref_id"},
		[]any{accountID, points, reason, refID},
	)
}

// TotalFor sums a member's XP.
func (r *Repository) TotalFor(ctx context.Context, accountID uuid.UUID) (int64, error) {
	var total int64
	err := r.guard(ctx).QueryRow(ctx, Award{}.TenantTable(),
		"COALESCE(SUM(points), 0)", "account_id = $1", accountID).Scan(&total)
	return total, err
}

// Recent returns a member's latest awards.
func (r *Repository) Recent(ctx context.Context, accountID uuid.UUID, limit int) ([]Award, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return tenancy.List[Award](ctx, r.guard(ctx),
		"account_id = $1",
		fmt.Sprintf("ORDER BY created_at DESC LIMIT %d", limit),
		accountID,
	)
}

// Leaderboard returns the community's top members by total XP.
func (r *Repository) Leaderboard(ctx context.Context, limit int) ([]LeaderboardRow, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	rows, err := r.guard(ctx).Select(ctx, Award{}.TenantTable(),
		"account_id, COALESCE(SUM(points), 0) AS points", "",
		fmt.Sprintf("GROUP BY account_id ORDER BY points DESC LIMIT %d", limit))
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[LeaderboardRow])
}
