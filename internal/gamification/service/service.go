// Package service provides XP accounting. Awards are granted by event
// subscribers reacting to activity elsewhere in the system; they are
// best-effort and never block the triggering operation.
package service

import (
	"context"
	"time"

	"timebank_backend/internal/events"
	"timebank_backend/internal/gamification/repository"
	"timebank_backend/internal/gamification/transport"
	"timebank_backend/internal/tenancy"
	"timebank_backend/platform/logger"

	"github.com/google/uuid"
)

// XP grants per activity.
const (
	pointsSignup          = 25
	pointsListingCreated  = 5
	pointsTransferSent    = 2
	pointsHelpCompensated = 10
)

// Service provides XP operations and the event subscribers that feed them.
type Service struct {
	repo *repository.Repository
	log  *logger.Logger
}

func New(repo *repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Subscribe registers the XP award handlers on the bus.
func (s *Service) Subscribe(bus events.Bus) {
	bus.Subscribe(events.MemberSignedUp{}.EventName(), events.HandlerFunc(s.onMemberSignedUp))
	bus.Subscribe(events.ListingCreated{}.EventName(), events.HandlerFunc(s.onListingCreated))
	bus.Subscribe(events.TransferCompleted{}.EventName(), events.HandlerFunc(s.onTransferCompleted))
}

// Progress returns the caller's XP total, level and recent awards.
func (s *Service) Progress(ctx context.Context, accountID uuid.UUID) (transport.ProgressResponse, error) {
	total, err := s.repo.TotalFor(ctx, accountID)
	if err != nil {
		return transport.ProgressResponse{}, err
	}
	recent, err := s.repo.Recent(ctx, accountID, 20)
	if err != nil {
		return transport.ProgressResponse{}, err
	}

	items := make([]transport.AwardResponse, len(recent))
	for i, a := range recent {
		items[i] = transport.AwardResponse{
			ID:        a.ID,
			Points:    a.Points,
			Reason:    a.Reason,
			CreatedAt: a.CreatedAt.Format(time.RFC3339),
		}
	}
	return transport.ProgressResponse{TotalXP: total, Level: levelFor(total), Recent: items}, nil
}

// Leaderboard returns the community's top members by XP.
func (s *Service) Leaderboard(ctx context.Context, limit int) (transport.LeaderboardResponse, error) {
	rows, err := s.repo.Leaderboard(ctx, limit)
	if err != nil {
		return transport.LeaderboardResponse{}, err
	}

	entries := make([]transport.LeaderboardEntry, len(rows))
	for i, row := range rows {
		entries[i] = transport.LeaderboardEntry{AccountID: row.AccountID, Points: row.Points, Rank: i + 1}
	}
	return transport.LeaderboardResponse{Entries: entries}, nil
}

// levelFor maps total XP onto a level: 100 XP per level, level 1 at zero.
func levelFor(total int64) int {
	return int(total/100) + 1
}

// Event handlers run on the bus's detached context, so the tenant scope is
// rebuilt from the event before any guarded storage access.

func (s *Service) onMemberSignedUp(ctx context.Context, event events.Event) error {
	e, ok := event.(events.MemberSignedUp)
	if !ok {
		return nil
	}
	ctx, err := scopeTo(ctx, e.TenantID)
	if err != nil {
		return err
	}
	_, err = s.repo.Grant(ctx, e.AccountID, pointsSignup, "joined the community", nil)
	return err
}

func (s *Service) onListingCreated(ctx context.Context, event events.Event) error {
	e, ok := event.(events.ListingCreated)
	if !ok {
		return nil
	}
	ctx, err := scopeTo(ctx, e.TenantID)
	if err != nil {
		return err
	}
	_, err = s.repo.Grant(ctx, e.OwnerID, pointsListingCreated, "posted a listing", &e.ListingID)
	return err
}

func (s *Service) onTransferCompleted(ctx context.Context, event events.Event) error {
	e, ok := event.(events.TransferCompleted)
	if !ok {
		return nil
	}
	ctx, err := scopeTo(ctx, e.TenantID)
	if err != nil {
		return err
	}

	if _, err := s.repo.Grant(ctx, e.ReceiverID, pointsHelpCompensated, "helped a neighbour", &e.EntryID); err != nil {
		return err
	}
	_, err = s.repo.Grant(ctx, e.SenderID, pointsTransferSent, "compensated help received", &e.EntryID)
	return err
}

func scopeTo(ctx context.Context, tenantID uuid.UUID) (context.Context, error) {
	tc := tenancy.NewContext()
	if err := tc.Set(tenantID); err != nil {
		return ctx, err
	}
	return tenancy.WithContext(ctx, tc), nil
}
