// Package auth provides the member authentication bounded context module.
package auth

import (
	"timebank_backend/internal/auth/handler"
	"timebank_backend/internal/auth/repository"
	"timebank_backend/internal/auth/service"
	"timebank_backend/internal/auth/token"
	"timebank_backend/internal/events"
	apphttp "timebank_backend/internal/http"
	"timebank_backend/internal/tenancy"
	"timebank_backend/platform/config"
	"timebank_backend/platform/logger"
	"timebank_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the auth bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule creates and initializes the auth module with all its dependencies.
func NewModule(pool *pgxpool.Pool, cfg config.AuthServiceConfig, resolver *tenancy.Resolver, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool, log)
	tokens := token.NewManager(cfg)
	svc := service.New(repo, tokens, resolver, bus, log)
	h := handler.New(svc, val)

	return &Module{handler: h}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "auth"
}

// RegisterRoutes mounts auth routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	public := ctx.Public.Group("/auth")
	public.Use(ctx.AuthRateLimiter.RateLimit())
	public.POST("/register", m.handler.Register)
	public.POST("/login", m.handler.Login)
	public.POST("/refresh", m.handler.Refresh)

	protected := ctx.Protected.Group("/auth")
	protected.GET("/me", m.handler.Me)
	protected.POST("/change-password", m.handler.ChangePassword)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
