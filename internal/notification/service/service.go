// Package service provides in-app notification logic, fed by domain events.
package service

import (
	"context"
	"fmt"
	"time"

	"timebank_backend/internal/events"
	"timebank_backend/internal/notification/repository"
	"timebank_backend/internal/notification/transport"
	"timebank_backend/internal/tenancy"
	"timebank_backend/platform/logger"

	"github.com/google/uuid"
)

// Store is the notification persistence the service needs.
type Store interface {
	Create(ctx context.Context, accountID uuid.UUID, kind, title, body string, refID *uuid.UUID) (repository.Notification, error)
	List(ctx context.Context, accountID uuid.UUID, unreadOnly bool, limit, offset int) ([]repository.Notification, error)
	UnreadCount(ctx context.Context, accountID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, id, accountID uuid.UUID) error
	MarkAllRead(ctx context.Context, accountID uuid.UUID) error
}

// Service provides notification operations and the subscribers that feed them.
type Service struct {
	repo Store
	log  *logger.Logger
}

func New(repo Store, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Subscribe registers the notification handlers on the bus.
func (s *Service) Subscribe(bus events.Bus) {
	bus.Subscribe(events.TransferCompleted{}.EventName(), events.HandlerFunc(s.onTransferCompleted))
	bus.Subscribe(events.MessagePosted{}.EventName(), events.HandlerFunc(s.onMessagePosted))
}

// List returns a page of the caller's notifications plus the unread count.
func (s *Service) List(ctx context.Context, accountID uuid.UUID, unreadOnly bool, limit, offset int) (transport.NotificationListResponse, error) {
	notifications, err := s.repo.List(ctx, accountID, unreadOnly, limit, offset)
	if err != nil {
		return transport.NotificationListResponse{}, err
	}
	unread, err := s.repo.UnreadCount(ctx, accountID)
	if err != nil {
		return transport.NotificationListResponse{}, err
	}

	items := make([]transport.NotificationResponse, len(notifications))
	for i, n := range notifications {
		items[i] = transport.NotificationResponse{
			ID:        n.ID,
			Kind:      n.Kind,
			Title:     n.Title,
			Body:      n.Body,
			RefID:     n.RefID,
			Read:      n.ReadAt != nil,
			CreatedAt: n.CreatedAt.Format(time.RFC3339),
		}
	}
	return transport.NotificationListResponse{Items: items, Unread: unread, Total: len(items)}, nil
}

// MarkRead marks one notification as read.
func (s *Service) MarkRead(ctx context.Context, id, accountID uuid.UUID) error {
	return s.repo.MarkRead(ctx, id, accountID)
}

// MarkAllRead marks all the caller's notifications as read.
func (s *Service) MarkAllRead(ctx context.Context, accountID uuid.UUID) error {
	return s.repo.MarkAllRead(ctx, accountID)
}

// Event handlers run on the bus's detached context, so the tenant scope is
// rebuilt from the event before any guarded storage access.

func (s *Service) onTransferCompleted(ctx context.Context, event events.Event) error {
	e, ok := event.(events.TransferCompleted)
	if !ok {
		return nil
	}
	ctx, err := scopeTo(ctx, e.TenantID)
	if err != nil {
		return err
	}

	// Both parties get a record of the movement.
	if _, err := s.repo.Create(ctx, e.ReceiverID, repository.KindTransferReceived,
		"You received time credits",
		fmt.Sprintf("A neighbour sent you %s credits.", e.Amount.String()),
		&e.EntryID); err != nil {
		return err
	}
	_, err = s.repo.Create(ctx, e.SenderID, repository.KindTransferSent,
		"Your transfer went through",
		fmt.Sprintf("You sent %s credits.", e.Amount.String()),
		&e.EntryID)
	return err
}

func (s *Service) onMessagePosted(ctx context.Context, event events.Event) error {
	e, ok := event.(events.MessagePosted)
	if !ok {
		return nil
	}
	ctx, err := scopeTo(ctx, e.TenantID)
	if err != nil {
		return err
	}

	_, err = s.repo.Create(ctx, e.RecipientID, repository.KindMessageReceived,
		"New message", "You have a new message in one of your conversations.",
		&e.ConversationID)
	return err
}

func scopeTo(ctx context.Context, tenantID uuid.UUID) (context.Context, error) {
	tc := tenancy.NewContext()
	if err := tc.Set(tenantID); err != nil {
		return ctx, err
	}
	return tenancy.WithContext(ctx, tc), nil
}
