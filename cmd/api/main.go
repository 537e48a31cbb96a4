package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"timebank_backend/internal/auth"
	"timebank_backend/internal/directory"
	"timebank_backend/internal/events"
	"timebank_backend/internal/gamification"
	apphttp "timebank_backend/internal/http"
	"timebank_backend/internal/http/router"
	"timebank_backend/internal/jobs"
	"timebank_backend/internal/listings"
	"timebank_backend/internal/messaging"
	"timebank_backend/internal/notification"
	"timebank_backend/internal/tenancy"
	"timebank_backend/internal/tenants"
	"timebank_backend/internal/wallet"
	walletservice "timebank_backend/internal/wallet/service"
	"timebank_backend/migrations"
	"timebank_backend/platform/config"
	"timebank_backend/platform/db"
	"timebank_backend/platform/logger"
	"timebank_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Redis backs the tenant slug cache and the task queue; both degrade
	// gracefully when it is absent.
	var redisClient redis.UniversalClient
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Error("invalid REDIS_URL", "error", err)
			panic("invalid REDIS_URL: " + err.Error())
		}
		redisClient = redis.NewClient(opt)
		defer redisClient.Close()
	} else {
		log.Warn("REDIS_URL not configured; slug cache and background jobs disabled")
	}

	jobsClient := initJobsClient(cfg, log)
	if jobsClient != nil {
		defer jobsClient.Close()
	}

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	tenantsModule := tenants.NewModule(pool, redisClient, cfg, eventBus, val, log)

	// The tenant resolver is shared by the router middleware and the auth
	// module's slug-based login flow.
	resolver := tenancy.NewResolver(cfg, tenantsModule.Service(), log)

	authModule := auth.NewModule(pool, cfg, resolver, eventBus, val, log)
	directoryModule := directory.NewModule(pool, val, log)
	listingsModule := listings.NewModule(pool, eventBus, val, log)
	messagingModule := messaging.NewModule(pool, directoryModule.Service(), eventBus, val, log)

	var receipts walletservice.ReceiptEnqueuer
	if jobsClient != nil {
		receipts = jobsClient
	}
	walletModule := wallet.NewModule(pool, cfg, directoryModule.Service(), eventBus, receipts, val, log)

	// Subscriber-driven modules
	gamificationModule := gamification.NewModule(pool, eventBus, log)
	notificationModule := notification.NewModule(pool, eventBus, log)

	if jobsClient != nil {
		jobs.NewRelay(jobsClient, log).Subscribe(eventBus)
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:         cfg,
		Logger:         log,
		Health:         pool,
		TenantResolver: resolver,
		Modules: []apphttp.Module{
			tenantsModule,
			authModule,
			directoryModule,
			listingsModule,
			messagingModule,
			walletModule,
			gamificationModule,
			notificationModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initJobsClient(cfg *config.Config, log *logger.Logger) *jobs.Client {
	if cfg.RedisURL == "" {
		return nil
	}

	client, err := jobs.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize jobs client", "error", err)
		return nil
	}
	return client
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
