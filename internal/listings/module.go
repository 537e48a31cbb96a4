// Package listings provides the marketplace listings bounded context module.
package listings

import (
	"timebank_backend/internal/events"
	apphttp "timebank_backend/internal/http"
	"timebank_backend/internal/listings/handler"
	"timebank_backend/internal/listings/repository"
	"timebank_backend/internal/listings/service"
	"timebank_backend/platform/logger"
	"timebank_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the listings bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule creates and initializes the listings module.
func NewModule(pool *pgxpool.Pool, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool, log)
	svc := service.New(repo, bus, log)
	h := handler.New(svc, val)

	return &Module{handler: h}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "listings"
}

// RegisterRoutes mounts listing routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/listings")
	group.POST("", m.handler.Create)
	group.GET("", m.handler.List)
	group.GET("/:id", m.handler.Get)
	group.PUT("/:id", m.handler.Update)
	group.PATCH("/:id/close", m.handler.Close)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
