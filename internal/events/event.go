// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"timebank_backend/platform/events"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Tenant Domain Events
// =============================================================================

// TenantProvisioned is published when a new tenant community is created.
type TenantProvisioned struct {
	BaseEvent
	TenantID uuid.UUID `json:"tenantId"`
	Slug     string    `json:"slug"`
	Name     string    `json:"name"`
}

func (e TenantProvisioned) EventName() string { return "tenants.provisioned" }

// =============================================================================
// Auth Domain Events
// =============================================================================

// MemberSignedUp is published when a new member registers within a tenant.
type MemberSignedUp struct {
	BaseEvent
	TenantID  uuid.UUID `json:"tenantId"`
	AccountID uuid.UUID `json:"accountId"`
	Email     string    `json:"email"`
}

func (e MemberSignedUp) EventName() string { return "auth.member.signed_up" }

// =============================================================================
// Listings Domain Events
// =============================================================================

// ListingCreated is published when a member posts a new offer or request.
type ListingCreated struct {
	BaseEvent
	TenantID  uuid.UUID `json:"tenantId"`
	ListingID uuid.UUID `json:"listingId"`
	OwnerID   uuid.UUID `json:"ownerId"`
	Kind      string    `json:"kind"`
}

func (e ListingCreated) EventName() string { return "listings.created" }

// =============================================================================
// Wallet Domain Events
// =============================================================================

// TransferCompleted is published after a transfer transaction commits.
// Subscribers (gamification, notifications) are best-effort: their failures
// are logged and never unwind the committed transfer.
type TransferCompleted struct {
	BaseEvent
	TenantID   uuid.UUID       `json:"tenantId"`
	EntryID    uuid.UUID       `json:"entryId"`
	SenderID   uuid.UUID       `json:"senderId"`
	ReceiverID uuid.UUID       `json:"receiverId"`
	Amount     decimal.Decimal `json:"amount"`
	ListingID  *uuid.UUID      `json:"listingId,omitempty"`
}

func (e TransferCompleted) EventName() string { return "wallet.transfer.completed" }

// =============================================================================
// Messaging Domain Events
// =============================================================================

// MessagePosted is published when a member posts a message in a conversation.
type MessagePosted struct {
	BaseEvent
	TenantID       uuid.UUID `json:"tenantId"`
	ConversationID uuid.UUID `json:"conversationId"`
	MessageID      uuid.UUID `json:"messageId"`
	SenderID       uuid.UUID `json:"senderId"`
	RecipientID    uuid.UUID `json:"recipientId"`
}

func (e MessagePosted) EventName() string { return "messaging.message.posted" }
