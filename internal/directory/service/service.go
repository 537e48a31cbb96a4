// Package service provides the member directory business logic.
package service

import (
	"context"
	"strings"
	"time"

	"timebank_backend/internal/directory/repository"
	"timebank_backend/internal/directory/transport"
	"timebank_backend/platform/logger"

	"github.com/google/uuid"
)

// Service provides directory operations. It also answers member existence
// checks for other modules, notably the wallet's receiver validation.
type Service struct {
	repo *repository.Repository
	log  *logger.Logger
}

func New(repo *repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// List returns member profiles in the caller's community.
func (s *Service) List(ctx context.Context, search string, limit, offset int) (transport.MemberListResponse, error) {
	members, err := s.repo.List(ctx, strings.TrimSpace(search), limit, offset)
	if err != nil {
		return transport.MemberListResponse{}, err
	}

	items := make([]transport.MemberResponse, len(members))
	for i, m := range members {
		items[i] = toResponse(m)
	}
	return transport.MemberListResponse{Items: items, Total: len(items)}, nil
}

// Get returns one member profile.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (transport.MemberResponse, error) {
	member, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.MemberResponse{}, err
	}
	return toResponse(member), nil
}

// UpdateProfile changes the caller's own profile.
func (s *Service) UpdateProfile(ctx context.Context, accountID uuid.UUID, req transport.UpdateProfileRequest) (transport.MemberResponse, error) {
	skills := make([]string, 0, len(req.Skills))
	for _, skill := range req.Skills {
		if trimmed := strings.TrimSpace(skill); trimmed != "" {
			skills = append(skills, trimmed)
		}
	}

	if err := s.repo.UpdateProfile(ctx, accountID, strings.TrimSpace(req.DisplayName), req.Bio, skills); err != nil {
		return transport.MemberResponse{}, err
	}
	return s.Get(ctx, accountID)
}

// MemberExists reports whether an active member exists in the caller's
// community. Implements the wallet's MemberDirectory.
func (s *Service) MemberExists(ctx context.Context, accountID uuid.UUID) (bool, error) {
	return s.repo.Exists(ctx, accountID)
}

func toResponse(m repository.Member) transport.MemberResponse {
	return transport.MemberResponse{
		ID:          m.ID,
		DisplayName: m.DisplayName,
		Bio:         m.Bio,
		Skills:      m.Skills,
		Role:        m.Role,
		MemberSince: m.CreatedAt.Format(time.RFC3339),
	}
}
