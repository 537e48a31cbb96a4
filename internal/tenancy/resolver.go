package tenancy

import (
	"context"
	"net/http"
	"strings"

	"timebank_backend/platform/apperr"
	"timebank_backend/platform/config"
	"timebank_backend/platform/httpkit"
	"timebank_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TenantHintHeader is the client-supplied tenant hint. It is honored only
// for unauthenticated requests in non-production deployments; everywhere
// else it is ignored (and logged when it conflicts with a credential).
const TenantHintHeader = "X-Tenant"

// Typed resolution failures, distinguished so the HTTP layer can tell an
// anonymous caller apart from a corrupt or forged credential.
var (
	ErrTenantRequired      = apperr.Unauthorized("tenant required")
	ErrMalformedCredential = apperr.Unauthorized("malformed credential")
	ErrUnknownTenant       = apperr.Unauthorized("unknown tenant")
)

// SlugDirectory resolves a tenant slug to its id. Implemented by the tenants
// module (with its Redis cache) and consumed here to keep the resolver free
// of storage concerns.
type SlugDirectory interface {
	TenantIDBySlug(ctx context.Context, slug string) (uuid.UUID, error)
}

// Resolver determines the trusted tenant for an inbound request and writes
// it into the request's tenant Context exactly once.
type Resolver struct {
	cfg   config.TenancyConfig
	slugs SlugDirectory
	log   *logger.Logger
}

// NewResolver creates a tenant resolver.
func NewResolver(cfg config.TenancyConfig, slugs SlugDirectory, log *logger.Logger) *Resolver {
	return &Resolver{cfg: cfg, slugs: slugs, log: log}
}

// Middleware attaches a fresh tenant context to the request and resolves it
// from the authenticated principal's claim or, for unauthenticated requests
// in permissive deployments, from the tenant hint header. It never fails the
// request by itself; routes that need a tenant add RequireTenant after it.
func (r *Resolver) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tc := NewContext()
		c.Request = c.Request.WithContext(WithContext(c.Request.Context(), tc))

		hint := strings.TrimSpace(c.GetHeader(TenantHintHeader))

		identity := httpkit.GetIdentity(c)
		if identity.IsAuthenticated() {
			claim := identity.TenantID()
			if claim == uuid.Nil {
				// AuthRequired already rejects tokens without a tenant
				// claim; hitting this means the middleware chain is
				// miswired, which must not fall through to unscoped access.
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": ErrMalformedCredential.Message})
				return
			}
			if hint != "" && hint != claim.String() {
				r.log.TenantSpoofAttempt(claim.String(), hint, c.ClientIP(), c.Request.URL.Path)
			}
			if err := tc.Set(claim); err != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "tenant resolution failed"})
				return
			}
			c.Next()
			return
		}

		if hint != "" && r.cfg.IsTenantHintAllowed() {
			tenantID, err := r.resolveHint(c.Request.Context(), hint)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": ErrUnknownTenant.Message})
				return
			}
			if err := tc.Set(tenantID); err != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "tenant resolution failed"})
				return
			}
		}

		c.Next()
	}
}

// RequireTenant rejects requests whose tenant context is still unresolved.
func RequireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := ResolvedTenant(c.Request.Context()); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": ErrTenantRequired.Message})
			return
		}
		c.Next()
	}
}

// ResolveSlug resolves a tenant from request content (e.g., the slug in a
// login payload) and writes it into the request's tenant context. This is
// the production path for unauthenticated flows that need a tenant.
func (r *Resolver) ResolveSlug(ctx context.Context, slug string) (uuid.UUID, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return uuid.Nil, ErrTenantRequired
	}

	tenantID, err := r.slugs.TenantIDBySlug(ctx, slug)
	if err != nil {
		return uuid.Nil, err
	}

	if tc, ok := FromContext(ctx); ok {
		if err := tc.Set(tenantID); err != nil {
			return uuid.Nil, apperr.Wrap(apperr.KindInternal, "tenant resolution failed", err)
		}
	}

	return tenantID, nil
}

// resolveHint accepts either a raw tenant id or a slug in the hint header.
func (r *Resolver) resolveHint(ctx context.Context, hint string) (uuid.UUID, error) {
	if id, err := uuid.Parse(hint); err == nil {
		return id, nil
	}
	if r.slugs == nil {
		return uuid.Nil, ErrUnknownTenant
	}
	return r.slugs.TenantIDBySlug(ctx, strings.ToLower(hint))
}
