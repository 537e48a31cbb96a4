package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

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

// fakeStore backs the service with an in-memory ledger. TransferTx serializes
// callbacks through a mutex the way the per-sender advisory lock does; txErr,
// if set, replaces the whole transaction outcome to simulate storage failures.
type fakeStore struct {
	mu         sync.Mutex
	balance    decimal.Decimal
	entries    []repository.Entry
	txErr      error
	balanceErr error
	historyErr error
	txCalls    int
}

func (f *fakeStore) BalanceOf(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	if f.balanceErr != nil {
		return decimal.Zero, f.balanceErr
	}
	return f.balance, nil
}

func (f *fakeStore) BalanceWith(ctx context.Context, g *tenancy.Guard, accountID uuid.UUID) (decimal.Decimal, error) {
	return f.balance, nil
}

func (f *fakeStore) AppendCompleted(ctx context.Context, g *tenancy.Guard, senderID, receiverID uuid.UUID, amount decimal.Decimal, listingID *uuid.UUID, note *string) (repository.Entry, error) {
	tenantID, _ := tenancy.ResolvedTenant(ctx)
	entry := repository.Entry{
		ID:         uuid.New(),
		TenantID:   tenantID,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Amount:     amount,
		Status:     repository.StatusCompleted,
		ListingID:  listingID,
		Note:       note,
		CreatedAt:  time.Now(),
	}
	f.entries = append(f.entries, entry)
	return entry, nil
}

func (f *fakeStore) History(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]repository.Entry, error) {
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return f.entries, nil
}

func (f *fakeStore) TransferTx(ctx context.Context, senderID uuid.UUID, fn func(g *tenancy.Guard) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.txCalls++
	if f.txErr != nil {
		return f.txErr
	}
	if err := fn(nil); err != nil {
		return err
	}
	f.balance = f.balance.Sub(f.entries[len(f.entries)-1].Amount)
	return nil
}

type fakeMembers struct {
	exists bool
}

func (f fakeMembers) MemberExists(ctx context.Context, accountID uuid.UUID) (bool, error) {
	return f.exists, nil
}

type fakeBus struct {
	mu        sync.Mutex
	published []events.Event
}

func (f *fakeBus) Publish(ctx context.Context, event events.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, event)
}

func (f *fakeBus) PublishSync(ctx context.Context, event events.Event) error {
	f.Publish(ctx, event)
	return nil
}

func (f *fakeBus) Subscribe(eventName string, handler events.Handler) {}

type fakeReceipts struct {
	mu       sync.Mutex
	enqueued int
	err      error
}

func (f *fakeReceipts) EnqueueTransferReceipt(ctx context.Context, tenantID, entryID, senderID, receiverID uuid.UUID, amount decimal.Decimal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enqueued++
	return f.err
}

func tenantCtx(t *testing.T) context.Context {
	t.Helper()
	tc := tenancy.NewContext()
	if err := tc.Set(uuid.New()); err != nil {
		t.Fatal(err)
	}
	return tenancy.WithContext(context.Background(), tc)
}

func newTestService(store *fakeStore, members fakeMembers, bus *fakeBus, receipts *fakeReceipts) *Service {
	return New(store, members, bus, receipts, logger.New("test"))
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestTransferSucceeds(t *testing.T) {
	store := &fakeStore{balance: dec(t, "10")}
	bus := &fakeBus{}
	receipts := &fakeReceipts{}
	svc := newTestService(store, fakeMembers{exists: true}, bus, receipts)

	sender := uuid.New()
	resp, err := svc.Transfer(tenantCtx(t), sender, transport.TransferRequest{
		ReceiverID: uuid.New().String(),
		Amount:     "2.50",
	})
	if err != nil {
		t.Fatal(err)
	}

	if !resp.Amount.Equal(dec(t, "2.50")) {
		t.Fatalf("amount = %s, want 2.50", resp.Amount)
	}
	if !resp.NewSenderBalance.Equal(dec(t, "7.50")) {
		t.Fatalf("newSenderBalance = %s, want 7.50", resp.NewSenderBalance)
	}
	if len(store.entries) != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", len(store.entries))
	}
	if len(bus.published) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(bus.published))
	}
	if bus.published[0].EventName() != "wallet.transfer.completed" {
		t.Fatalf("unexpected event %s", bus.published[0].EventName())
	}
	if receipts.enqueued != 1 {
		t.Fatalf("expected 1 receipt enqueue, got %d", receipts.enqueued)
	}
}

func TestTransferInsufficientBalance(t *testing.T) {
	store := &fakeStore{balance: dec(t, "2")}
	bus := &fakeBus{}
	svc := newTestService(store, fakeMembers{exists: true}, bus, &fakeReceipts{})

	_, err := svc.Transfer(tenantCtx(t), uuid.New(), transport.TransferRequest{
		ReceiverID: uuid.New().String(),
		Amount:     "5",
	})

	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindUnprocessable {
		t.Fatalf("expected unprocessable error, got %v", err)
	}
	details, ok := appErr.Details.(transport.InsufficientBalanceDetails)
	if !ok {
		t.Fatalf("expected balance details, got %T", appErr.Details)
	}
	if !details.Balance.Equal(dec(t, "2")) || !details.Requested.Equal(dec(t, "5")) {
		t.Fatalf("details = %+v", details)
	}
	if len(store.entries) != 0 {
		t.Fatal("no ledger entry may exist after a declined transfer")
	}
	if len(bus.published) != 0 {
		t.Fatal("no event may be published for a declined transfer")
	}
}

func TestTransferValidationShortCircuits(t *testing.T) {
	sender := uuid.New()
	cases := []struct {
		name string
		req  transport.TransferRequest
	}{
		{"zero amount", transport.TransferRequest{ReceiverID: uuid.New().String(), Amount: "0"}},
		{"negative amount", transport.TransferRequest{ReceiverID: uuid.New().String(), Amount: "-1"}},
		{"not a number", transport.TransferRequest{ReceiverID: uuid.New().String(), Amount: "ten"}},
		{"too many decimals", transport.TransferRequest{ReceiverID: uuid.New().String(), Amount: "1.999"}},
		{"self transfer", transport.TransferRequest{ReceiverID: sender.String(), Amount: "1"}},
		{"bad receiver", transport.TransferRequest{ReceiverID: "not-a-uuid", Amount: "1"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &fakeStore{balance: dec(t, "100")}
			svc := newTestService(store, fakeMembers{exists: true}, &fakeBus{}, &fakeReceipts{})

			_, err := svc.Transfer(tenantCtx(t), sender, tc.req)

			var appErr *apperr.Error
			if !errors.As(err, &appErr) || appErr.Kind != apperr.KindValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
			if store.txCalls != 0 {
				t.Fatal("validation failures must not open a transaction")
			}
		})
	}
}

func TestTransferUnknownReceiver(t *testing.T) {
	store := &fakeStore{balance: dec(t, "100")}
	svc := newTestService(store, fakeMembers{exists: false}, &fakeBus{}, &fakeReceipts{})

	_, err := svc.Transfer(tenantCtx(t), uuid.New(), transport.TransferRequest{
		ReceiverID: uuid.New().String(),
		Amount:     "1",
	})

	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	if store.txCalls != 0 {
		t.Fatal("unknown receiver must not open a transaction")
	}
}

func TestTransferRetryableConflicts(t *testing.T) {
	for _, code := range []string{"40001", "40P01", "55P03", "57014"} {
		t.Run(code, func(t *testing.T) {
			store := &fakeStore{balance: dec(t, "100"), txErr: &pgconn.PgError{Code: code}}
			svc := newTestService(store, fakeMembers{exists: true}, &fakeBus{}, &fakeReceipts{})

			_, err := svc.Transfer(tenantCtx(t), uuid.New(), transport.TransferRequest{
				ReceiverID: uuid.New().String(),
				Amount:     "1",
			})

			var appErr *apperr.Error
			if !errors.As(err, &appErr) || appErr.Kind != apperr.KindConflict {
				t.Fatalf("SQLSTATE %s should map to conflict, got %v", code, err)
			}
		})
	}
}

func TestTransferUnknownFailureIsInternal(t *testing.T) {
	store := &fakeStore{balance: dec(t, "100"), txErr: errors.New("connection reset")}
	svc := newTestService(store, fakeMembers{exists: true}, &fakeBus{}, &fakeReceipts{})

	_, err := svc.Transfer(tenantCtx(t), uuid.New(), transport.TransferRequest{
		ReceiverID: uuid.New().String(),
		Amount:     "1",
	})

	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindInternal {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestReceiptFailureDoesNotFailTransfer(t *testing.T) {
	store := &fakeStore{balance: dec(t, "10")}
	receipts := &fakeReceipts{err: errors.New("queue down")}
	svc := newTestService(store, fakeMembers{exists: true}, &fakeBus{}, receipts)

	_, err := svc.Transfer(tenantCtx(t), uuid.New(), transport.TransferRequest{
		ReceiverID: uuid.New().String(),
		Amount:     "1",
	})
	if err != nil {
		t.Fatalf("receipt failure must not fail the transfer: %v", err)
	}
}

func TestTransferConcurrentNoOverdraft(t *testing.T) {
	store := &fakeStore{balance: dec(t, "5")}
	svc := newTestService(store, fakeMembers{exists: true}, &fakeBus{}, &fakeReceipts{})
	ctx := tenantCtx(t)
	sender := uuid.New()
	receiver := uuid.New().String()

	// Two 3.00 transfers race over a 5.00 balance: whichever recomputes the
	// balance second must be declined inside its own transaction.
	results := make([]error, 2)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.Transfer(ctx, sender, transport.TransferRequest{
				ReceiverID: receiver,
				Amount:     "3",
			})
		}(i)
	}
	wg.Wait()

	var succeeded, declined int
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		var appErr *apperr.Error
		if !errors.As(err, &appErr) || appErr.Kind != apperr.KindUnprocessable {
			t.Fatalf("loser must fail with insufficient balance, got %v", err)
		}
		declined++
	}
	if succeeded != 1 || declined != 1 {
		t.Fatalf("succeeded=%d declined=%d, want exactly one of each", succeeded, declined)
	}
	if len(store.entries) != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", len(store.entries))
	}
	if !store.balance.Equal(dec(t, "2")) {
		t.Fatalf("final balance = %s, want 2", store.balance)
	}
}

func TestTransferConcurrentAdmitsOnlyCoveredAmount(t *testing.T) {
	store := &fakeStore{balance: dec(t, "5")}
	svc := newTestService(store, fakeMembers{exists: true}, &fakeBus{}, &fakeReceipts{})
	ctx := tenantCtx(t)
	sender := uuid.New()
	receiver := uuid.New().String()

	const workers = 5
	results := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.Transfer(ctx, sender, transport.TransferRequest{
				ReceiverID: receiver,
				Amount:     "2",
			})
		}(i)
	}
	wg.Wait()

	var succeeded int
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		var appErr *apperr.Error
		if !errors.As(err, &appErr) || appErr.Kind != apperr.KindUnprocessable {
			t.Fatalf("declined transfer must be unprocessable, got %v", err)
		}
	}
	// 5.00 covers two 2.00 transfers, never a third.
	if succeeded != 2 {
		t.Fatalf("succeeded=%d, want 2", succeeded)
	}
	if !store.balance.Equal(dec(t, "1")) {
		t.Fatalf("final balance = %s, want 1", store.balance)
	}
}

func TestTransferRepeatedRequestAppendsTwice(t *testing.T) {
	store := &fakeStore{balance: dec(t, "10")}
	svc := newTestService(store, fakeMembers{exists: true}, &fakeBus{}, &fakeReceipts{})
	ctx := tenantCtx(t)
	sender := uuid.New()
	req := transport.TransferRequest{ReceiverID: uuid.New().String(), Amount: "2"}

	// Transfers are not idempotent: an identical resubmission moves credits
	// again. Deduplication belongs to the client.
	for i := 0; i < 2; i++ {
		if _, err := svc.Transfer(ctx, sender, req); err != nil {
			t.Fatalf("transfer %d: %v", i+1, err)
		}
	}

	if len(store.entries) != 2 {
		t.Fatalf("expected 2 ledger entries, got %d", len(store.entries))
	}
	if !store.balance.Equal(dec(t, "6")) {
		t.Fatalf("final balance = %s, want 6", store.balance)
	}
}

func TestBalanceFailureIsOpaque(t *testing.T) {
	store := &fakeStore{balanceErr: errors.New("connect: host=db.internal user=timebank")}
	svc := newTestService(store, fakeMembers{exists: true}, &fakeBus{}, &fakeReceipts{})

	_, err := svc.Balance(tenantCtx(t), uuid.New())

	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindInternal {
		t.Fatalf("expected internal error, got %v", err)
	}
	if appErr.Message != "could not compute balance" {
		t.Fatalf("storage detail must not reach the caller, got %q", appErr.Message)
	}
}

func TestHistoryFailureIsOpaque(t *testing.T) {
	store := &fakeStore{historyErr: errors.New("connect: host=db.internal user=timebank")}
	svc := newTestService(store, fakeMembers{exists: true}, &fakeBus{}, &fakeReceipts{})

	_, err := svc.History(tenantCtx(t), uuid.New(), 0, 0)

	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindInternal {
		t.Fatalf("expected internal error, got %v", err)
	}
	if appErr.Message != "could not load transfer history" {
		t.Fatalf("storage detail must not reach the caller, got %q", appErr.Message)
	}
}

func TestHistoryDirections(t *testing.T) {
	me := uuid.New()
	other := uuid.New()
	store := &fakeStore{entries: []repository.Entry{
		{ID: uuid.New(), SenderID: me, ReceiverID: other, Amount: dec(t, "3"), CreatedAt: time.Now()},
		{ID: uuid.New(), SenderID: other, ReceiverID: me, Amount: dec(t, "4"), CreatedAt: time.Now()},
	}}
	svc := newTestService(store, fakeMembers{exists: true}, &fakeBus{}, &fakeReceipts{})

	resp, err := svc.History(tenantCtx(t), me, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Items[0].Direction != "outgoing" || resp.Items[1].Direction != "incoming" {
		t.Fatalf("directions = %s, %s", resp.Items[0].Direction, resp.Items[1].Direction)
	}
}
