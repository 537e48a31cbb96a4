// Package repository provides storage access for member conversations.
package repository

import (
	"context"
	"fmt"
	"time"

	"timebank_backend/internal/tenancy"
	"timebank_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Conversation is a two-party message thread, optionally about a listing.
// Participants are stored in canonical order so one pair maps to one thread.
type Conversation struct {
	ID           uuid.UUID  `db:"id"`
	TenantID     uuid.UUID  `db:"tenant_id"`
	ParticipantA uuid.UUID  `db:"participant_a"`
	ParticipantB uuid.UUID  `db:"participant_b"`
	ListingID    *uuid.UUID `db:"listing_id"`
	CreatedAt    time.Time  `db:"created_at"`
}

// TenantTable marks Conversation as tenant-scoped for the isolation guard.
func (Conversation) TenantTable() string { return "conversations" }

// Message is one line in a conversation.
type Message struct {
	ID             uuid.UUID `db:"id"`
	TenantID       uuid.UUID `db:"tenant_id"`
	ConversationID uuid.UUID `db:"conversation_id"`
	SenderID       uuid.UUID `db:"sender_id"`
	Body           string    `db:"body"`
	CreatedAt      time.Time `db:"created_at"`
}

// TenantTable marks Message as tenant-scoped for the isolation guard.
func (Message) TenantTable() string { return "messages" }

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

// canonical orders a participant pair so (a,b) and (b,a) name the same thread.
func canonical(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if a.String() > b.String() {
		return b, a
	}
	return a, b
}

// FindConversation looks up the thread between two members about an optional
// listing.
func (r *Repository) FindConversation(ctx context.Context, memberA, memberB uuid.UUID, listingID *uuid.UUID) (Conversation, error) {
	a, b := canonical(memberA, memberB)
	if listingID != nil {
		return tenancy.One[Conversation](ctx, r.guard(ctx),
			"participant_a = $1 AND participant_b = $2 AND listing_id = $3", a, b, *listingID)
	}
	return tenancy.One[Conversation](ctx, r.guard(ctx),
		"participant_a = $1 AND participant_b = $2 AND listing_id IS NULL", a, b)
}

// CreateConversation starts a thread between two members.
func (r *Repository) CreateConversation(ctx context.Context, memberA, memberB uuid.UUID, listingID *uuid.UUID) (Conversation, error) {
	a, b := canonical(memberA, memberB)
	return tenancy.InsertOne[Conversation](ctx, r.guard(ctx),
		[]string{"participant_a", "participant_b", "listing_id"},
		[]any{a, b, listingID},
	)
}

// GetConversation loads one thread the given member participates in. Threads
// of other members, like threads of other tenants, do not exist for the caller.
func (r *Repository) GetConversation(ctx context.Context, id, memberID uuid.UUID) (Conversation, error) {
	return tenancy.One[Conversation](ctx, r.guard(ctx),
		"id = $1 AND (participant_a = $2 OR participant_b = $2)", id, memberID)
}

// ListConversations returns the member's threads, most recent first.
func (r *Repository) ListConversations(ctx context.Context, memberID uuid.UUID, limit, offset int) ([]Conversation, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return tenancy.List[Conversation](ctx, r.guard(ctx),
		"participant_a = $1 OR participant_b = $1",
		fmt.Sprintf("ORDER BY created_at DESC LIMIT %d OFFSET %d", limit, offset),
		memberID,
	)
}

// AppendMessage writes a message into a thread.
func (r *Repository) AppendMessage(ctx context.Context, conversationID, senderID uuid.UUID, body string) (Message, error) {
	return tenancy.InsertOne[Message](ctx, r.guard(ctx),
		[]string{"conversation_id", "sender_id", "body"},
		[]any{conversationID, senderID, body},
	)
}

// ListMessages returns a page of a thread's messages, oldest first.
func (r *Repository) ListMessages(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]Message, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return tenancy.List[Message](ctx, r.guard(ctx),
		"conversation_id = $1",
		fmt.Sprintf("ORDER BY created_at ASC LIMIT %d OFFSET %d", limit, offset),
		conversationID,
	)
}
