package transport

import "github.com/google/uuid"

// StartConversationRequest opens (or reuses) a thread with another member.
type StartConversationRequest struct {
	PeerID    string  `json:"peerId" validate:"required,uuid4"`
	ListingID *string `json:"listingId,omitempty" validate:"omitempty,uuid4"`
}

// SendMessageRequest posts a message into a thread.
type SendMessageRequest struct {
	Body string `json:"body" validate:"required,min=1,max=5000"`
}

// ConversationResponse represents a thread in API responses.
type ConversationResponse struct {
	ID        uuid.UUID  `json:"id"`
	PeerID    uuid.UUID  `json:"peerId"`
	ListingID *uuid.UUID `json:"listingId,omitempty"`
	CreatedAt string     `json:"createdAt"`
}

// ConversationListResponse wraps the caller's threads.
type ConversationListResponse struct {
	Items []ConversationResponse `json:"items"`
	Total int                    `json:"total"`
}

// MessageResponse represents one message.
type MessageResponse struct {
	ID        uuid.UUID `json:"id"`
	SenderID  uuid.UUID `json:"senderId"`
	Body      string    `json:"body"`
	CreatedAt string    `json:"createdAt"`
}

// MessageListResponse wraps a page of messages.
type MessageListResponse struct {
	Items []MessageResponse `json:"items"`
	Total int               `json:"total"`
}
