package transport

import "github.com/google/uuid"

// CreateListingRequest posts a new offer or request.
type CreateListingRequest struct {
	Kind        string `json:"kind" validate:"required,oneof=offer request"`
	Title       string `json:"title" validate:"required,min=3,max=150"`
	Description string `json:"description" validate:"required,min=10,max=5000"`
	Category    string `json:"category" validate:"required,min=2,max=50"`
}

// UpdateListingRequest edits a listing's content.
type UpdateListingRequest struct {
	Title       string `json:"title" validate:"required,min=3,max=150"`
	Description string `json:"description" validate:"required,min=10,max=5000"`
	Category    string `json:"category" validate:"required,min=2,max=50"`
}

// ListingResponse represents a listing in API responses.
type ListingResponse struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"ownerId"`
	Kind        string    `json:"kind"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Status      string    `json:"status"`
	CreatedAt   string    `json:"createdAt"`
}

// ListingListResponse wraps a page of listings.
type ListingListResponse struct {
	Items []ListingResponse `json:"items"`
	Total int               `json:"total"`
}
