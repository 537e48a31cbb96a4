package tenancy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"timebank_backend/platform/apperr"
	"timebank_backend/platform/httpkit"
	"timebank_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type hintConfig struct {
	allowed bool
}

func (c hintConfig) IsTenantHintAllowed() bool            { return c.allowed }
func (c hintConfig) GetTenantSlugCacheTTL() time.Duration { return time.Minute }

type staticSlugs map[string]uuid.UUID

func (s staticSlugs) TenantIDBySlug(_ context.Context, slug string) (uuid.UUID, error) {
	id, ok := s[slug]
	if !ok {
		return uuid.Nil, apperr.NotFound("tenant not found")
	}
	return id, nil
}

func newResolverRouter(allowed bool, slugs SlugDirectory, authed func(*gin.Context)) (*gin.Engine, *Resolver, *captureTenant) {
	gin.SetMode(gin.TestMode)
	res := NewResolver(hintConfig{allowed: allowed}, slugs, logger.New("development"))
	capture := &captureTenant{}

	engine := gin.New()
	if authed != nil {
		engine.Use(authed)
	}
	engine.Use(res.Middleware())
	engine.GET("/probe", func(c *gin.Context) {
		capture.tenantID, capture.resolved = ResolvedTenant(c.Request.Context())
		c.Status(http.StatusNoContent)
	})
	engine.GET("/guarded", RequireTenant(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return engine, res, capture
}

type captureTenant struct {
	tenantID uuid.UUID
	resolved bool
}

func authenticatedAs(accountID, tenantID uuid.UUID) func(*gin.Context) {
	return func(c *gin.Context) {
		c.Set(httpkit.ContextAccountIDKey, accountID)
		c.Set(httpkit.ContextTenantIDKey, tenantID)
		c.Next()
	}
}

func TestClaimWinsOverConflictingHint(t *testing.T) {
	claim := uuid.New()
	spoofed := uuid.New()
	engine, _, capture := newResolverRouter(true, staticSlugs{}, authenticatedAs(uuid.New(), claim))

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set(TenantHintHeader, spoofed.String())
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected request to proceed, got %d", rec.Code)
	}
	if !capture.resolved || capture.tenantID != claim {
		t.Fatalf("claim must win over hint: resolved=%v tenant=%s", capture.resolved, capture.tenantID)
	}
}

func TestUnauthenticatedHintHonoredWhenAllowed(t *testing.T) {
	tenant := uuid.New()
	engine, _, capture := newResolverRouter(true, staticSlugs{"riverside": tenant}, nil)

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set(TenantHintHeader, "riverside")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected request to proceed, got %d", rec.Code)
	}
	if !capture.resolved || capture.tenantID != tenant {
		t.Fatalf("hint should resolve tenant in permissive mode, got %s", capture.tenantID)
	}
}

func TestUnauthenticatedHintIgnoredInProductionMode(t *testing.T) {
	tenant := uuid.New()
	engine, _, capture := newResolverRouter(false, staticSlugs{"riverside": tenant}, nil)

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set(TenantHintHeader, "riverside")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("probe route needs no tenant, got %d", rec.Code)
	}
	if capture.resolved {
		t.Fatal("hint must not resolve a tenant when disallowed")
	}
}

func TestRequireTenantRejectsUnresolved(t *testing.T) {
	engine, _, _ := newResolverRouter(false, staticSlugs{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for missing tenant, got %d", rec.Code)
	}
}

func TestResolveSlugSetsRequestContext(t *testing.T) {
	tenant := uuid.New()
	res := NewResolver(hintConfig{}, staticSlugs{"riverside": tenant}, logger.New("development"))

	tc := NewContext()
	ctx := WithContext(context.Background(), tc)

	got, err := res.ResolveSlug(ctx, " Riverside ")
	if err != nil {
		t.Fatal(err)
	}
	if got != tenant {
		t.Fatalf("expected %s, got %s", tenant, got)
	}
	resolved, ok := tc.TenantID()
	if !ok || resolved != tenant {
		t.Fatal("ResolveSlug must resolve the request's tenant context")
	}

	// A second content-based resolution within the same request is the
	// double-set condition and must abort, not silently rebind.
	if _, err := res.ResolveSlug(ctx, "riverside"); err == nil {
		t.Fatal("second resolution in one request must fail")
	}
}

func TestResolveSlugUnknownTenant(t *testing.T) {
	res := NewResolver(hintConfig{}, staticSlugs{}, logger.New("development"))
	if _, err := res.ResolveSlug(context.Background(), "ghost"); err == nil {
		t.Fatal("unknown slug must fail resolution")
	}
}
