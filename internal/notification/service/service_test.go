package service

import (
	"context"
	"testing"

	"timebank_backend/internal/events"
	"timebank_backend/internal/notification/repository"
	"timebank_backend/internal/tenancy"
	"timebank_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type createCall struct {
	accountID uuid.UUID
	kind      string
	tenantID  uuid.UUID
}

type fakeStore struct {
	creates []createCall
}

func (f *fakeStore) Create(ctx context.Context, accountID uuid.UUID, kind, title, body string, refID *uuid.UUID) (repository.Notification, error) {
	tenantID, _ := tenancy.ResolvedTenant(ctx)
	f.creates = append(f.creates, createCall{accountID: accountID, kind: kind, tenantID: tenantID})
	return repository.Notification{ID: uuid.New()}, nil
}

func (f *fakeStore) List(ctx context.Context, accountID uuid.UUID, unreadOnly bool, limit, offset int) ([]repository.Notification, error) {
	return nil, nil
}

func (f *fakeStore) UnreadCount(ctx context.Context, accountID uuid.UUID) (int, error) {
	return 0, nil
}

func (f *fakeStore) MarkRead(ctx context.Context, id, accountID uuid.UUID) error { return nil }

func (f *fakeStore) MarkAllRead(ctx context.Context, accountID uuid.UUID) error { return nil }

func TestTransferCompletedNotifiesBothParties(t *testing.T) {
	store := &fakeStore{}
	svc := New(store, logger.New("test"))

	tenantID := uuid.New()
	sender := uuid.New()
	receiver := uuid.New()

	err := svc.onTransferCompleted(context.Background(), events.TransferCompleted{
		BaseEvent:  events.NewBaseEvent(),
		TenantID:   tenantID,
		EntryID:    uuid.New(),
		SenderID:   sender,
		ReceiverID: receiver,
		Amount:     decimal.NewFromInt(3),
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(store.creates) != 2 {
		t.Fatalf("expected notifications for both parties, got %d", len(store.creates))
	}
	if store.creates[0].accountID != receiver || store.creates[0].kind != repository.KindTransferReceived {
		t.Fatalf("receiver notification = %+v", store.creates[0])
	}
	if store.creates[1].accountID != sender || store.creates[1].kind != repository.KindTransferSent {
		t.Fatalf("sender notification = %+v", store.creates[1])
	}
	for _, call := range store.creates {
		if call.tenantID != tenantID {
			t.Fatalf("notification written outside the event's tenant scope: %+v", call)
		}
	}
}
