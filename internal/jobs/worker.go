package jobs

import (
	"context"
	"fmt"

	authrepo "timebank_backend/internal/auth/repository"
	"timebank_backend/internal/email"
	"timebank_backend/internal/tenancy"
	tenantsrepo "timebank_backend/internal/tenants/repository"
	"timebank_backend/platform/config"
	"timebank_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Worker processes queued tasks. Task payloads carry only identifiers; all
// state is reloaded through tenant-scoped repositories, so the worker
// rebuilds the tenant scope from each payload before touching storage.
type Worker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	accounts *authrepo.Repository
	tenants  *tenantsrepo.Repository
	sender   email.Sender
	log      *logger.Logger
}

// NewWorker creates the background worker from the jobs configuration.
func NewWorker(cfg config.JobsConfig, pool *pgxpool.Pool, sender email.Sender, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:   server,
		mux:      mux,
		accounts: authrepo.New(pool, log),
		tenants:  tenantsrepo.New(pool),
		sender:   sender,
		log:      log,
	}

	mux.HandleFunc(TaskTransferReceipt, w.handleTransferReceipt)
	mux.HandleFunc(TaskWelcomeEmail, w.handleWelcomeEmail)

	return w, nil
}

// Run serves tasks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("jobs worker stopped", "error", err)
	}
}

func (w *Worker) handleTransferReceipt(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseTransferReceiptPayload(task)
	if err != nil {
		return err
	}

	ctx, err = scopedContext(ctx, payload.TenantID)
	if err != nil {
		return err
	}

	senderID, err := uuid.Parse(payload.SenderID)
	if err != nil {
		return err
	}
	receiverID, err := uuid.Parse(payload.ReceiverID)
	if err != nil {
		return err
	}

	sender, err := w.accounts.GetByID(ctx, senderID)
	if err != nil {
		return fmt.Errorf("load sender: %w", err)
	}
	receiver, err := w.accounts.GetByID(ctx, receiverID)
	if err != nil {
		return fmt.Errorf("load receiver: %w", err)
	}

	if err := w.sender.SendTransferReceipt(ctx, sender.Email, email.TransferReceipt{
		CounterpartyName: receiver.DisplayName,
		Amount:           payload.Amount,
		EntryID:          payload.EntryID,
		Incoming:         false,
	}); err != nil {
		return fmt.Errorf("receipt to sender: %w", err)
	}

	if err := w.sender.SendTransferReceipt(ctx, receiver.Email, email.TransferReceipt{
		CounterpartyName: sender.DisplayName,
		Amount:           payload.Amount,
		EntryID:          payload.EntryID,
		Incoming:         true,
	}); err != nil {
		return fmt.Errorf("receipt to receiver: %w", err)
	}

	return nil
}

func (w *Worker) handleWelcomeEmail(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseWelcomeEmailPayload(task)
	if err != nil {
		return err
	}

	ctx, err = scopedContext(ctx, payload.TenantID)
	if err != nil {
		return err
	}

	accountID, err := uuid.Parse(payload.AccountID)
	if err != nil {
		return err
	}
	tenantID, err := uuid.Parse(payload.TenantID)
	if err != nil {
		return err
	}

	account, err := w.accounts.GetByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("load account: %w", err)
	}
	tenant, err := w.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("load tenant: %w", err)
	}

	return w.sender.SendWelcomeEmail(ctx, account.Email, account.DisplayName, tenant.Name)
}

func scopedContext(ctx context.Context, rawTenantID string) (context.Context, error) {
	tenantID, err := uuid.Parse(rawTenantID)
	if err != nil {
		return ctx, fmt.Errorf("parse tenant id: %w", err)
	}

	tc := tenancy.NewContext()
	if err := tc.Set(tenantID); err != nil {
		return ctx, err
	}
	return tenancy.WithContext(ctx, tc), nil
}
