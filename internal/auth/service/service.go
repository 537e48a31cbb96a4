// Package service implements member authentication: signup, login with a
// tenant slug, token refresh and password rotation.
package service

import (
	"context"
	"strings"

	"timebank_backend/internal/auth/repository"
	"timebank_backend/internal/auth/token"
	"timebank_backend/internal/auth/transport"
	"timebank_backend/internal/events"
	"timebank_backend/internal/tenancy"
	"timebank_backend/platform/apperr"
	"timebank_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

// Service provides authentication operations. Login and register receive the
// tenant through the request payload; the resolver binds it to the request
// context before any account rows are touched.
type Service struct {
	repo     *repository.Repository
	tokens   *token.Manager
	resolver *tenancy.Resolver
	bus      events.Bus
	log      *logger.Logger
}

func New(repo *repository.Repository, tokens *token.Manager, resolver *tenancy.Resolver, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, tokens: tokens, resolver: resolver, bus: bus, log: log}
}

// Register creates a member account in the community named by the slug and
// signs the member in.
func (s *Service) Register(ctx context.Context, req transport.RegisterRequest) (transport.TokenResponse, error) {
	tenantID, err := s.resolver.ResolveSlug(ctx, req.TenantSlug)
	if err != nil {
		return transport.TokenResponse{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return transport.TokenResponse{}, apperr.Wrap(apperr.KindInternal, "could not process registration", err)
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	account, err := s.repo.Create(ctx, email, string(hash), strings.TrimSpace(req.DisplayName))
	if err != nil {
		return transport.TokenResponse{}, err
	}

	s.log.AuthEvent("register", account.Email, true, "")
	s.bus.Publish(ctx, events.MemberSignedUp{
		BaseEvent: events.NewBaseEvent(),
		TenantID:  tenantID,
		AccountID: account.ID,
		Email:     account.Email,
	})

	return s.issue(account)
}

// Login authenticates a member of the community named by the slug. Unknown
// tenant, unknown email and wrong password are indistinguishable to the
// caller.
func (s *Service) Login(ctx context.Context, req transport.LoginRequest) (transport.TokenResponse, error) {
	if _, err := s.resolver.ResolveSlug(ctx, req.TenantSlug); err != nil {
		s.log.AuthEvent("login", req.Email, false, "unknown tenant")
		return transport.TokenResponse{}, apperr.Unauthorized("invalid credentials")
	}

	account, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		s.log.AuthEvent("login", req.Email, false, "unknown account")
		return transport.TokenResponse{}, apperr.Unauthorized("invalid credentials")
	}
	if !account.IsActive {
		s.log.AuthEvent("login", account.Email, false, "account disabled")
		return transport.TokenResponse{}, apperr.Unauthorized("invalid credentials")
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)) != nil {
		s.log.AuthEvent("login", account.Email, false, "wrong password")
		return transport.TokenResponse{}, apperr.Unauthorized("invalid credentials")
	}

	s.log.AuthEvent("login", account.Email, true, "")
	return s.issue(account)
}

// Refresh exchanges a valid refresh token for a new pair. The tenant bound at
// login carries over; refresh can never move a session across tenants.
func (s *Service) Refresh(ctx context.Context, req transport.RefreshRequest) (transport.TokenResponse, error) {
	accountID, tenantID, err := s.tokens.VerifyRefresh(req.RefreshToken)
	if err != nil {
		return transport.TokenResponse{}, err
	}

	tc := tenancy.NewContext()
	if err := tc.Set(tenantID); err != nil {
		return transport.TokenResponse{}, apperr.Unauthorized("malformed credential")
	}
	ctx = tenancy.WithContext(ctx, tc)

	account, err := s.repo.GetByID(ctx, accountID)
	if err != nil || !account.IsActive {
		return transport.TokenResponse{}, apperr.Unauthorized("invalid refresh token")
	}
	return s.issue(account)
}

// Me returns the authenticated member's profile.
func (s *Service) Me(ctx context.Context, accountID uuid.UUID) (transport.MeResponse, error) {
	account, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		return transport.MeResponse{}, err
	}
	return transport.MeResponse{
		ID:          account.ID.String(),
		Email:       account.Email,
		DisplayName: account.DisplayName,
		Role:        account.Role,
		Bio:         account.Bio,
		Skills:      account.Skills,
	}, nil
}

// ChangePassword rotates the caller's password after verifying the current one.
func (s *Service) ChangePassword(ctx context.Context, accountID uuid.UUID, req transport.ChangePasswordRequest) error {
	account, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.CurrentPassword)) != nil {
		return apperr.Unauthorized("current password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcryptCost)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "could not process password change", err)
	}
	return s.repo.UpdatePassword(ctx, accountID, string(hash))
}

func (s *Service) issue(account repository.Account) (transport.TokenResponse, error) {
	pair, err := s.tokens.Issue(account.ID, account.TenantID, account.Role)
	if err != nil {
		return transport.TokenResponse{}, apperr.Wrap(apperr.KindInternal, "could not issue tokens", err)
	}
	return transport.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	}, nil
}
