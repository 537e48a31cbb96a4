// Package service implements the wallet ledger operations. The transfer path
// is the concurrency-critical core: a transfer only commits if the sender's
// recomputed balance covers it at commit time.
package service

import (
	"context"
	"errors"

	"timebank_backend/internal/events"
	"timebank_backend/internal/tenancy"
	"timebank_backend/internal/wallet/repository"
	"timebank_backend/internal/wallet/transport"
	"timebank_backend/platform/apperr"
	"timebank_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// Retryable SQLSTATEs: serialization failure, deadlock, lock timeout and
// statement cancel all mean "another transfer got there first".
var retryableSQLStates = map[string]struct{}{
	"40001": {}, // serialization_failure
	"40P01": {}, // deadlock_detected
	"55P03": {}, // lock_not_available
	"57014": {}, // query_canceled
}

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// LedgerStore is the ledger persistence the service needs.
type LedgerStore interface {
	BalanceOf(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error)
	BalanceWith(ctx context.Context, g *tenancy.Guard, accountID uuid.UUID) (decimal.Decimal, error)
	AppendCompleted(ctx context.Context, g *tenancy.Guard, senderID, receiverID uuid.UUID, amount decimal.Decimal, listingID *uuid.UUID, note *string) (repository.Entry, error)
	History(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]repository.Entry, error)
	TransferTx(ctx context.Context, senderID uuid.UUID, fn func(g *tenancy.Guard) error) error
}

// MemberDirectory answers whether an account exists in the caller's tenant.
type MemberDirectory interface {
	MemberExists(ctx context.Context, accountID uuid.UUID) (bool, error)
}

// ReceiptEnqueuer queues the post-transfer receipt email. Enqueue failures
// never affect the committed transfer.
type ReceiptEnqueuer interface {
	EnqueueTransferReceipt(ctx context.Context, tenantID, entryID, senderID, receiverID uuid.UUID, amount decimal.Decimal) error
}

// Service provides wallet operations.
type Service struct {
	store    LedgerStore
	members  MemberDirectory
	bus      events.Bus
	receipts ReceiptEnqueuer
	log      *logger.Logger
}

// New creates a wallet service. receipts may be nil when no worker is deployed.
func New(store LedgerStore, members MemberDirectory, bus events.Bus, receipts ReceiptEnqueuer, log *logger.Logger) *Service {
	return &Service{store: store, members: members, bus: bus, receipts: receipts, log: log}
}

// Transfer moves credits from the sender to a receiver in the same community.
// Validation happens before any transaction is opened; the balance check and
// the ledger append happen atomically inside one serializable transaction
// holding a per-sender lock.
func (s *Service) Transfer(ctx context.Context, senderID uuid.UUID, req transport.TransferRequest) (transport.TransferResponse, error) {
	amount, receiverID, listingID, err := s.parseTransfer(senderID, req)
	if err != nil {
		return transport.TransferResponse{}, err
	}

	exists, err := s.members.MemberExists(ctx, receiverID)
	if err != nil {
		return transport.TransferResponse{}, err
	}
	if !exists {
		return transport.TransferResponse{}, apperr.NotFound("receiver not found")
	}

	var (
		entry      repository.Entry
		newBalance decimal.Decimal
	)
	err = s.store.TransferTx(ctx, senderID, func(g *tenancy.Guard) error {
		balance, err := s.store.BalanceWith(ctx, g, senderID)
		if err != nil {
			return err
		}
		if balance.LessThan(amount) {
			return apperr.Unprocessable("insufficient balance").
				WithDetails(transport.InsufficientBalanceDetails{Balance: balance, Requested: amount})
		}

		entry, err = s.store.AppendCompleted(ctx, g, senderID, receiverID, amount, listingID, req.Note)
		if err != nil {
			return err
		}
		newBalance = balance.Sub(amount)
		return nil
	})
	if err != nil {
		return transport.TransferResponse{}, s.mapTransferError(ctx, err, senderID, receiverID, amount)
	}

	s.afterCommit(ctx, entry)

	return transport.TransferResponse{
		EntryID:          entry.ID,
		Amount:           entry.Amount,
		NewSenderBalance: newBalance,
		CreatedAt:        entry.CreatedAt.Format(timeFormat),
	}, nil
}

// Balance returns the caller's current derived balance.
func (s *Service) Balance(ctx context.Context, accountID uuid.UUID) (transport.BalanceResponse, error) {
	balance, err := s.store.BalanceOf(ctx, accountID)
	if err != nil {
		return transport.BalanceResponse{}, storageError("could not compute balance", err)
	}
	return transport.BalanceResponse{Balance: balance}, nil
}

// History returns a page of the caller's ledger entries, newest first.
func (s *Service) History(ctx context.Context, accountID uuid.UUID, limit, offset int) (transport.HistoryResponse, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}

	entries, err := s.store.History(ctx, accountID, limit, offset)
	if err != nil {
		return transport.HistoryResponse{}, storageError("could not load transfer history", err)
	}

	items := make([]transport.EntryResponse, len(entries))
	for i, e := range entries {
		direction := "incoming"
		if e.SenderID == accountID {
			direction = "outgoing"
		}
		items[i] = transport.EntryResponse{
			ID:         e.ID,
			SenderID:   e.SenderID,
			ReceiverID: e.ReceiverID,
			Amount:     e.Amount,
			Direction:  direction,
			ListingID:  e.ListingID,
			Note:       e.Note,
			CreatedAt:  e.CreatedAt.Format(timeFormat),
		}
	}
	return transport.HistoryResponse{Items: items, Total: len(items)}, nil
}

func (s *Service) parseTransfer(senderID uuid.UUID, req transport.TransferRequest) (decimal.Decimal, uuid.UUID, *uuid.UUID, error) {
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return decimal.Zero, uuid.Nil, nil, apperr.Validation("amount must be a decimal number")
	}
	if !amount.IsPositive() {
		return decimal.Zero, uuid.Nil, nil, apperr.Validation("amount must be positive")
	}
	if amount.Exponent() < -2 {
		return decimal.Zero, uuid.Nil, nil, apperr.Validation("amount supports at most two decimal places")
	}

	receiverID, err := uuid.Parse(req.ReceiverID)
	if err != nil {
		return decimal.Zero, uuid.Nil, nil, apperr.Validation("receiverId must be a valid id")
	}
	if receiverID == senderID {
		return decimal.Zero, uuid.Nil, nil, apperr.Validation("cannot transfer to yourself")
	}

	var listingID *uuid.UUID
	if req.ListingID != nil {
		id, err := uuid.Parse(*req.ListingID)
		if err != nil {
			return decimal.Zero, uuid.Nil, nil, apperr.Validation("listingId must be a valid id")
		}
		listingID = &id
	}
	return amount, receiverID, listingID, nil
}

// storageError passes typed domain errors through and hides everything else
// behind an opaque internal error, so driver details never reach a client.
func storageError(message string, err error) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperr.Wrap(apperr.KindInternal, message, err)
}

// mapTransferError turns storage failures into the caller-facing taxonomy.
// Domain errors pass through; retryable SQLSTATEs become a conflict the
// client may retry; everything else is an opaque internal error.
func (s *Service) mapTransferError(ctx context.Context, err error, senderID, receiverID uuid.UUID, amount decimal.Decimal) error {
	tenant, _ := tenancy.ResolvedTenant(ctx)
	tenantID := tenant.String()

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		if appErr.Kind == apperr.KindUnprocessable {
			s.log.TransferEvent("insufficient_balance", tenantID, senderID.String(), receiverID.String(), amount.String())
		}
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if _, retryable := retryableSQLStates[pgErr.Code]; retryable {
			s.log.TransferEvent("conflict", tenantID, senderID.String(), receiverID.String(), amount.String())
			return apperr.Conflict("transfer conflicted with concurrent activity, please retry")
		}
	}

	s.log.TransferEvent("failed", tenantID, senderID.String(), receiverID.String(), amount.String())
	return apperr.Wrap(apperr.KindInternal, "transfer could not be completed", err)
}

// afterCommit runs the best-effort side effects of a committed transfer.
// Failures here are logged and swallowed: the ledger entry already exists.
func (s *Service) afterCommit(ctx context.Context, entry repository.Entry) {
	s.log.TransferEvent("completed", entry.TenantID.String(), entry.SenderID.String(), entry.ReceiverID.String(), entry.Amount.String())

	s.bus.Publish(ctx, events.TransferCompleted{
		BaseEvent:  events.NewBaseEvent(),
		TenantID:   entry.TenantID,
		EntryID:    entry.ID,
		SenderID:   entry.SenderID,
		ReceiverID: entry.ReceiverID,
		Amount:     entry.Amount,
		ListingID:  entry.ListingID,
	})

	if s.receipts != nil {
		if err := s.receipts.EnqueueTransferReceipt(ctx, entry.TenantID, entry.ID, entry.SenderID, entry.ReceiverID, entry.Amount); err != nil {
			s.log.SideEffectFailure("transfer receipt enqueue", err)
		}
	}
}

const timeFormat = "2006-01-02T15:04:05Z07:00"
