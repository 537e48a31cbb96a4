// Package repository provides storage for the wallet ledger. Balances are
// never stored: the ledger of completed entries is the single source of
// truth and a balance is always recomputed from it.
package repository

import (
	"context"
	"fmt"
	"time"

	"timebank_backend/internal/tenancy"
	"timebank_backend/platform/config"
	"timebank_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Entry is one immutable ledger line: amount moves from sender to receiver.
// Entries are append-only; a correction is a new compensating entry.
type Entry struct {
	ID         uuid.UUID       `db:"id"`
	TenantID   uuid.UUID       `db:"tenant_id"`
	SenderID   uuid.UUID       `db:"sender_id"`
	ReceiverID uuid.UUID       `db:"receiver_id"`
	Amount     decimal.Decimal `db:"amount"`
	Status     string          `db:"status"`
	ListingID  *uuid.UUID      `db:"listing_id"`
	Note       *string         `db:"note"`
	CreatedAt  time.Time       `db:"created_at"`
}

// TenantTable marks Entry as tenant-scoped for the isolation guard.
func (Entry) TenantTable() string { return "wallet_entries" }

// StatusCompleted is the only status that contributes to balances.
const StatusCompleted = "completed"

type Repository struct {
	pool *pgxpool.Pool
	cfg  config.WalletConfig
	log  *logger.Logger
}

func New(pool *pgxpool.Pool, cfg config.WalletConfig, log *logger.Logger) *Repository {
	return &Repository{pool: pool, cfg: cfg, log: log}
}

func (r *Repository) guard(ctx context.Context) *tenancy.Guard {
	return tenancy.NewGuard(r.pool, ctx, r.log)
}

// BalanceOf recomputes an account's balance from its completed ledger entries.
func (r *Repository) BalanceOf(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	return r.BalanceWith(ctx, r.guard(ctx), accountID)
}

// BalanceWith recomputes a balance through the given guard. Inside a transfer
// transaction the guard is bound to the transaction, so the sum reads the
// same snapshot the new entry will be appended to.
func (r *Repository) BalanceWith(ctx context.Context, g *tenancy.Guard, accountID uuid.UUID) (decimal.Decimal, error) {
	row := g.QueryRow(ctx, Entry{}.TenantTable(),
		"COALESCE(SUM(CASE WHEN receiver_id = $1 THEN amount ELSE -amount END), 0)",
		"(sender_id = $1 OR receiver_id = $1) AND status = $2",
		accountID, StatusCompleted,
	)

	var balance decimal.Decimal
	if err := row.Scan(&balance); err != nil {
		return decimal.Zero, fmt.Errorf("compute balance: %w", err)
	}
	return balance, nil
}

// AppendCompleted writes a completed ledger entry through the guard, which
// stamps the tenant.
func (r *Repository) AppendCompleted(ctx context.Context, g *tenancy.Guard, senderID, receiverID uuid.UUID, amount decimal.Decimal, listingID *uuid.UUID, note *string) (Entry, error) {
	return tenancy.InsertOne[Entry](ctx, g,
		[]string{"sender_id", "receiver_id", "amount", "status", "listing_id", "note"},
		[]any{senderID, receiverID, amount, StatusCompleted, listingID, note},
	)
}

// History lists an account's ledger entries, newest first.
func (r *Repository) History(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]Entry, error) {
	return tenancy.List[Entry](ctx, r.guard(ctx),
		"(sender_id = $1 OR receiver_id = $1)",
		fmt.Sprintf("ORDER BY created_at DESC LIMIT %d OFFSET %d", limit, offset),
		accountID,
	)
}

// TransferTx runs fn inside the transfer transaction protocol: serializable
// isolation, transaction-local timeouts, and an advisory lock on the sender
// held until commit. The lock serializes concurrent spends from one account
// so each sees the balance left by the previous one.
func (r *Repository) TransferTx(ctx context.Context, senderID uuid.UUID, fn func(g *tenancy.Guard) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("begin transfer tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// SET LOCAL does not accept bind parameters; the values come from
	// configuration, not request input.
	lockTimeout := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.cfg.GetTransferLockTimeout().Milliseconds())
	if _, err := tx.Exec(ctx, lockTimeout); err != nil {
		return fmt.Errorf("set lock timeout: %w", err)
	}
	stmtTimeout := fmt.Sprintf("SET LOCAL statement_timeout = '%dms'", r.cfg.GetTransferStatementTimeout().Milliseconds())
	if _, err := tx.Exec(ctx, stmtTimeout); err != nil {
		return fmt.Errorf("set statement timeout: %w", err)
	}

	if _, err := tx.Exec(ctx,
		"SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))",
		senderID.String(),
	); err != nil {
		return fmt.Errorf("acquire sender lock: %w", err)
	}

	if err := fn(tenancy.NewGuard(tx, ctx, r.log)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transfer: %w", err)
	}
	return nil
}
