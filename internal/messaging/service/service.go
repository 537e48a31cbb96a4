// Package service provides conversation and messaging business logic.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"timebank_backend/internal/events"
	"timebank_backend/internal/messaging/repository"
	"timebank_backend/internal/messaging/transport"
	"timebank_backend/platform/apperr"
	"timebank_backend/platform/logger"

	"github.com/google/uuid"
)

// MemberDirectory answers whether an account exists in the caller's tenant.
type MemberDirectory interface {
	MemberExists(ctx context.Context, accountID uuid.UUID) (bool, error)
}

// Service provides messaging operations.
type Service struct {
	repo    *repository.Repository
	members MemberDirectory
	bus     events.Bus
	log     *logger.Logger
}

func New(repo *repository.Repository, members MemberDirectory, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, members: members, bus: bus, log: log}
}

// StartConversation opens a thread with another member, or returns the
// existing one for the same pair and listing.
func (s *Service) StartConversation(ctx context.Context, callerID uuid.UUID, req transport.StartConversationRequest) (transport.ConversationResponse, error) {
	peerID, err := uuid.Parse(req.PeerID)
	if err != nil {
		return transport.ConversationResponse{}, apperr.Validation("peerId must be a valid id")
	}
	if peerID == callerID {
		return transport.ConversationResponse{}, apperr.Validation("cannot start a conversation with yourself")
	}

	var listingID *uuid.UUID
	if req.ListingID != nil {
		id, err := uuid.Parse(*req.ListingID)
		if err != nil {
			return transport.ConversationResponse{}, apperr.Validation("listingId must be a valid id")
		}
		listingID = &id
	}

	exists, err := s.members.MemberExists(ctx, peerID)
	if err != nil {
		return transport.ConversationResponse{}, err
	}
	if !exists {
		return transport.ConversationResponse{}, apperr.NotFound("member not found")
	}

	conversation, err := s.repo.FindConversation(ctx, callerID, peerID, listingID)
	if err != nil {
		var appErr *apperr.Error
		if !errors.As(err, &appErr) || appErr.Kind != apperr.KindNotFound {
			return transport.ConversationResponse{}, err
		}
		conversation, err = s.repo.CreateConversation(ctx, callerID, peerID, listingID)
		if err != nil {
			return transport.ConversationResponse{}, err
		}
	}

	return toConversationResponse(conversation, callerID), nil
}

// ListConversations returns the caller's threads.
func (s *Service) ListConversations(ctx context.Context, callerID uuid.UUID, limit, offset int) (transport.ConversationListResponse, error) {
	conversations, err := s.repo.ListConversations(ctx, callerID, limit, offset)
	if err != nil {
		return transport.ConversationListResponse{}, err
	}

	items := make([]transport.ConversationResponse, len(conversations))
	for i, c := range conversations {
		items[i] = toConversationResponse(c, callerID)
	}
	return transport.ConversationListResponse{Items: items, Total: len(items)}, nil
}

// SendMessage posts a message into a thread the caller participates in and
// publishes MessagePosted.
func (s *Service) SendMessage(ctx context.Context, conversationID, callerID uuid.UUID, req transport.SendMessageRequest) (transport.MessageResponse, error) {
	conversation, err := s.repo.GetConversation(ctx, conversationID, callerID)
	if err != nil {
		return transport.MessageResponse{}, err
	}

	message, err := s.repo.AppendMessage(ctx, conversation.ID, callerID, strings.TrimSpace(req.Body))
	if err != nil {
		return transport.MessageResponse{}, err
	}

	recipient := conversation.ParticipantA
	if recipient == callerID {
		recipient = conversation.ParticipantB
	}
	s.bus.Publish(ctx, events.MessagePosted{
		BaseEvent:      events.NewBaseEvent(),
		TenantID:       message.TenantID,
		ConversationID: conversation.ID,
		MessageID:      message.ID,
		SenderID:       callerID,
		RecipientID:    recipient,
	})

	return toMessageResponse(message), nil
}

// ListMessages returns a page of a thread the caller participates in.
func (s *Service) ListMessages(ctx context.Context, conversationID, callerID uuid.UUID, limit, offset int) (transport.MessageListResponse, error) {
	conversation, err := s.repo.GetConversation(ctx, conversationID, callerID)
	if err != nil {
		return transport.MessageListResponse{}, err
	}

	messages, err := s.repo.ListMessages(ctx, conversation.ID, limit, offset)
	if err != nil {
		return transport.MessageListResponse{}, err
	}

	items := make([]transport.MessageResponse, len(messages))
	for i, m := range messages {
		items[i] = toMessageResponse(m)
	}
	return transport.MessageListResponse{Items: items, Total: len(items)}, nil
}

func toConversationResponse(c repository.Conversation, callerID uuid.UUID) transport.ConversationResponse {
	peer := c.ParticipantA
	if peer == callerID {
		peer = c.ParticipantB
	}
	return transport.ConversationResponse{
		ID:        c.ID,
		PeerID:    peer,
		ListingID: c.ListingID,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
	}
}

func toMessageResponse(m repository.Message) transport.MessageResponse {
	return transport.MessageResponse{
		ID:        m.ID,
		SenderID:  m.SenderID,
		Body:      m.Body,
		CreatedAt: m.CreatedAt.Format(time.RFC3339),
	}
}
