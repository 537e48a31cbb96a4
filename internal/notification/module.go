// Package notification provides the in-app notification bounded context
// module, fed by events from the other modules.
package notification

import (
	"timebank_backend/internal/events"
	apphttp "timebank_backend/internal/http"
	"timebank_backend/internal/notification/handler"
	"timebank_backend/internal/notification/repository"
	"timebank_backend/internal/notification/service"
	"timebank_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the notification bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule creates the notification module and subscribes its handlers on
// the bus.
func NewModule(pool *pgxpool.Pool, bus events.Bus, log *logger.Logger) *Module {
	repo := repository.New(pool, log)
	svc := service.New(repo, log)
	svc.Subscribe(bus)
	h := handler.New(svc)

	return &Module{handler: h}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "notification"
}

// RegisterRoutes mounts notification routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/notifications")
	group.GET("", m.handler.List)
	group.PATCH("/:id/read", m.handler.MarkRead)
	group.POST("/read-all", m.handler.MarkAllRead)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
