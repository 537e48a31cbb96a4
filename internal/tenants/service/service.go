// Package service provides business logic for tenant provisioning and lookup.
package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"timebank_backend/internal/events"
	"timebank_backend/internal/tenants/repository"
	"timebank_backend/internal/tenants/slugcache"
	"timebank_backend/internal/tenants/transport"
	"timebank_backend/platform/apperr"
	"timebank_backend/platform/logger"

	"github.com/google/uuid"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Service provides tenant provisioning and slug resolution. It implements
// tenancy.SlugDirectory for the resolver.
type Service struct {
	repo  *repository.Repository
	cache *slugcache.Cache
	bus   events.Bus
	log   *logger.Logger
}

// New creates a new tenants service.
func New(repo *repository.Repository, cache *slugcache.Cache, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, cache: cache, bus: bus, log: log}
}

// Provision creates a new tenant community and publishes TenantProvisioned.
func (s *Service) Provision(ctx context.Context, req transport.ProvisionTenantRequest) (transport.TenantResponse, error) {
	slug := strings.ToLower(strings.TrimSpace(req.Slug))
	if !slugPattern.MatchString(slug) {
		return transport.TenantResponse{}, apperr.Validation("slug must be lowercase letters, digits and hyphens")
	}

	tenant, err := s.repo.Create(ctx, slug, strings.TrimSpace(req.Name))
	if err != nil {
		return transport.TenantResponse{}, err
	}

	s.log.Info("tenant provisioned", "id", tenant.ID, "slug", tenant.Slug)
	s.bus.Publish(ctx, events.TenantProvisioned{
		BaseEvent: events.NewBaseEvent(),
		TenantID:  tenant.ID,
		Slug:      tenant.Slug,
		Name:      tenant.Name,
	})

	return toResponse(tenant), nil
}

// List returns all tenants (operator view).
func (s *Service) List(ctx context.Context) (transport.TenantListResponse, error) {
	tenants, err := s.repo.List(ctx)
	if err != nil {
		return transport.TenantListResponse{}, err
	}

	items := make([]transport.TenantResponse, len(tenants))
	for i, t := range tenants {
		items[i] = toResponse(t)
	}
	return transport.TenantListResponse{Items: items, Total: len(items)}, nil
}

// GetBySlug returns a tenant by its public slug.
func (s *Service) GetBySlug(ctx context.Context, slug string) (transport.TenantResponse, error) {
	tenant, err := s.repo.GetBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		return transport.TenantResponse{}, err
	}
	return toResponse(tenant), nil
}

// Deactivate disables a tenant and drops its slug cache entry so logins stop
// resolving immediately.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	tenant, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return err
	}
	if err := s.cache.Invalidate(ctx, tenant.Slug); err != nil {
		s.log.SideEffectFailure("tenant slug cache invalidation", err)
	}

	s.log.Info("tenant deactivated", "id", id, "slug", tenant.Slug)
	return nil
}

// TenantIDBySlug resolves an active tenant's id from its slug, cache-aside.
// Inactive tenants resolve like unknown ones.
func (s *Service) TenantIDBySlug(ctx context.Context, slug string) (uuid.UUID, error) {
	if id, ok := s.cache.Get(ctx, slug); ok {
		return id, nil
	}

	tenant, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return uuid.Nil, err
	}
	if !tenant.IsActive {
		return uuid.Nil, apperr.NotFound("tenant not found")
	}

	s.cache.Set(ctx, slug, tenant.ID)
	return tenant.ID, nil
}

func toResponse(t repository.Tenant) transport.TenantResponse {
	return transport.TenantResponse{
		ID:        t.ID,
		Slug:      t.Slug,
		Name:      t.Name,
		IsActive:  t.IsActive,
		CreatedAt: t.CreatedAt.Format(time.RFC3339),
	}
}
