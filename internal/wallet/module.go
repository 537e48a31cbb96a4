// Package wallet provides the time-credit ledger bounded context module.
package wallet

import (
	"timebank_backend/internal/events"
	apphttp "timebank_backend/internal/http"
	"timebank_backend/internal/wallet/handler"
	"timebank_backend/internal/wallet/repository"
	"timebank_backend/internal/wallet/service"
	"timebank_backend/platform/config"
	"timebank_backend/platform/logger"
	"timebank_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the wallet bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the wallet module with all its
// dependencies. members resolves receivers in the caller's tenant; receipts
// may be nil when no job worker is deployed.
func NewModule(pool *pgxpool.Pool, cfg config.WalletConfig, members service.MemberDirectory, bus events.Bus, receipts service.ReceiptEnqueuer, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool, cfg, log)
	svc := service.New(repo, members, bus, receipts, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "wallet"
}

// RegisterRoutes mounts wallet routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/wallet")
	group.POST("/transfers", m.handler.Transfer)
	group.GET("/balance", m.handler.Balance)
	group.GET("/entries", m.handler.History)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
