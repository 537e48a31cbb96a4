// Package messaging provides the member messaging bounded context module.
package messaging

import (
	"timebank_backend/internal/events"
	apphttp "timebank_backend/internal/http"
	"timebank_backend/internal/messaging/handler"
	"timebank_backend/internal/messaging/repository"
	"timebank_backend/internal/messaging/service"
	"timebank_backend/platform/logger"
	"timebank_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the messaging bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule creates and initializes the messaging module.
func NewModule(pool *pgxpool.Pool, members service.MemberDirectory, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool, log)
	svc := service.New(repo, members, bus, log)
	h := handler.New(svc, val)

	return &Module{handler: h}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "messaging"
}

// RegisterRoutes mounts messaging routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/conversations")
	group.POST("", m.handler.Start)
	group.GET("", m.handler.List)
	group.POST("/:id/messages", m.handler.Send)
	group.GET("/:id/messages", m.handler.Messages)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
