// Package tenants provides the tenant provisioning bounded context module.
// It owns the tenants table and the slug directory other modules resolve
// tenants through.
package tenants

import (
	"timebank_backend/internal/events"
	apphttp "timebank_backend/internal/http"
	"timebank_backend/internal/tenants/handler"
	"timebank_backend/internal/tenants/repository"
	"timebank_backend/internal/tenants/service"
	"timebank_backend/internal/tenants/slugcache"
	"timebank_backend/platform/config"
	"timebank_backend/platform/logger"
	"timebank_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Module is the tenants bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the tenants module with all its dependencies.
// redisClient may be nil; slug lookups then skip the cache.
func NewModule(pool *pgxpool.Pool, redisClient redis.UniversalClient, cfg config.TenancyConfig, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)

	var cache *slugcache.Cache
	if redisClient != nil {
		cache = slugcache.New(redisClient, cfg.GetTenantSlugCacheTTL())
	}

	svc := service.New(repo, cache, bus, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "tenants"
}

// Service returns the service layer; it doubles as the tenancy.SlugDirectory.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts tenant routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Public lookup for the login screen
	ctx.Public.GET("/tenants/:slug", m.handler.GetBySlug)

	adminGroup := ctx.Admin.Group("/tenants")
	adminGroup.POST("", m.handler.Provision)
	adminGroup.GET("", m.handler.List)
	adminGroup.PATCH("/:id/deactivate", m.handler.Deactivate)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
