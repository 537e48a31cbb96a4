// Package service provides marketplace listing business logic.
package service

import (
	"context"
	"strings"
	"time"

	"timebank_backend/internal/events"
	"timebank_backend/internal/listings/repository"
	"timebank_backend/internal/listings/transport"
	"timebank_backend/platform/logger"

	"github.com/google/uuid"
)

// Service provides listing operations.
type Service struct {
	repo *repository.Repository
	bus  events.Bus
	log  *logger.Logger
}

func New(repo *repository.Repository, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log}
}

// Create posts a new listing and publishes ListingCreated.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, req transport.CreateListingRequest) (transport.ListingResponse, error) {
	listing, err := s.repo.Create(ctx, ownerID, req.Kind,
		strings.TrimSpace(req.Title), strings.TrimSpace(req.Description), normalizeCategory(req.Category))
	if err != nil {
		return transport.ListingResponse{}, err
	}

	s.bus.Publish(ctx, events.ListingCreated{
		BaseEvent: events.NewBaseEvent(),
		TenantID:  listing.TenantID,
		ListingID: listing.ID,
		OwnerID:   listing.OwnerID,
		Kind:      listing.Kind,
	})

	return toResponse(listing), nil
}

// Get returns one listing from the caller's community.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (transport.ListingResponse, error) {
	listing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.ListingResponse{}, err
	}
	return toResponse(listing), nil
}

// List returns active listings matching the filter.
func (s *Service) List(ctx context.Context, f repository.Filter) (transport.ListingListResponse, error) {
	f.Search = strings.TrimSpace(f.Search)
	f.Category = normalizeCategory(f.Category)

	listings, err := s.repo.List(ctx, f)
	if err != nil {
		return transport.ListingListResponse{}, err
	}

	items := make([]transport.ListingResponse, len(listings))
	for i, l := range listings {
		items[i] = toResponse(l)
	}
	return transport.ListingListResponse{Items: items, Total: len(items)}, nil
}

// Update edits the caller's own listing.
func (s *Service) Update(ctx context.Context, id, ownerID uuid.UUID, req transport.UpdateListingRequest) (transport.ListingResponse, error) {
	err := s.repo.Update(ctx, id, ownerID,
		strings.TrimSpace(req.Title), strings.TrimSpace(req.Description), normalizeCategory(req.Category))
	if err != nil {
		return transport.ListingResponse{}, err
	}
	return s.Get(ctx, id)
}

// Close marks the caller's own listing as closed.
func (s *Service) Close(ctx context.Context, id, ownerID uuid.UUID) error {
	return s.repo.SetStatus(ctx, id, ownerID, repository.StatusClosed)
}

func normalizeCategory(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}

func toResponse(l repository.Listing) transport.ListingResponse {
	return transport.ListingResponse{
		ID:          l.ID,
		OwnerID:     l.OwnerID,
		Kind:        l.Kind,
		Title:       l.Title,
		Description: l.Description,
		Category:    l.Category,
		Status:      l.Status,
		CreatedAt:   l.CreatedAt.Format(time.RFC3339),
	}
}
