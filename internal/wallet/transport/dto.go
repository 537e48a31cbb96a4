package transport

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransferRequest moves credits from the authenticated sender to a receiver
// in the same community. Amount is a decimal string to avoid float rounding
// on the wire.
type TransferRequest struct {
	ReceiverID string  `json:"receiverId" validate:"required,uuid4"`
	Amount     string  `json:"amount" validate:"required"`
	ListingID  *string `json:"listingId,omitempty" validate:"omitempty,uuid4"`
	Note       *string `json:"note,omitempty" validate:"omitempty,max=500"`
}

// TransferResponse confirms a completed transfer.
type TransferResponse struct {
	EntryID          uuid.UUID       `json:"entryId"`
	Amount           decimal.Decimal `json:"amount"`
	NewSenderBalance decimal.Decimal `json:"newSenderBalance"`
	CreatedAt        string          `json:"createdAt"`
}

// BalanceResponse carries an account's current derived balance.
type BalanceResponse struct {
	Balance decimal.Decimal `json:"balance"`
}

// EntryResponse is one ledger entry as seen by a member.
type EntryResponse struct {
	ID         uuid.UUID       `json:"id"`
	SenderID   uuid.UUID       `json:"senderId"`
	ReceiverID uuid.UUID       `json:"receiverId"`
	Amount     decimal.Decimal `json:"amount"`
	Direction  string          `json:"direction"`
	ListingID  *uuid.UUID      `json:"listingId,omitempty"`
	Note       *string         `json:"note,omitempty"`
	CreatedAt  string          `json:"createdAt"`
}

// HistoryResponse wraps a page of ledger entries.
type HistoryResponse struct {
	Items []EntryResponse `json:"items"`
	Total int             `json:"total"`
}

// InsufficientBalanceDetails is attached to the insufficient-balance error so
// clients can show what was available against what was asked.
type InsufficientBalanceDetails struct {
	Balance   decimal.Decimal `json:"balance"`
	Requested decimal.Decimal `json:"requested"`
}
