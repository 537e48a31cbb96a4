// Package directory provides the member directory bounded context module.
package directory

import (
	"timebank_backend/internal/directory/handler"
	"timebank_backend/internal/directory/repository"
	"timebank_backend/internal/directory/service"
	apphttp "timebank_backend/internal/http"
	"timebank_backend/platform/logger"
	"timebank_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the directory bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the directory module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool, log)
	svc := service.New(repo, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "directory"
}

// Service returns the service layer; other modules use it for member lookups.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts directory routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/members")
	group.GET("", m.handler.List)
	group.PATCH("/me", m.handler.UpdateProfile)
	group.GET("/:id", m.handler.Get)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
