// Package gamification provides the XP and leaderboard bounded context
// module. It is fed by events from the other modules.
package gamification

import (
	"timebank_backend/internal/events"
	"timebank_backend/internal/gamification/handler"
	"timebank_backend/internal/gamification/repository"
	"timebank_backend/internal/gamification/service"
	apphttp "timebank_backend/internal/http"
	"timebank_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the gamification bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule creates the gamification module and subscribes its XP award
// handlers on the bus.
func NewModule(pool *pgxpool.Pool, bus events.Bus, log *logger.Logger) *Module {
	repo := repository.New(pool, log)
	svc := service.New(repo, log)
	svc.Subscribe(bus)
	h := handler.New(svc)

	return &Module{handler: h}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "gamification"
}

// RegisterRoutes mounts gamification routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/gamification")
	group.GET("/me", m.handler.Progress)
	group.GET("/leaderboard", m.handler.Leaderboard)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
