package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/approval-service/internal/api/http"
	"github.com/spec-kit/approval-service/internal/api/http/handlers"
	"github.com/spec-kit/approval-service/internal/auth"
	"github.com/spec-kit/approval-service/internal/config"
	"github.com/spec-kit/approval-service/internal/events"
	"github.com/spec-kit/approval-service/internal/notify"
	"github.com/spec-kit/approval-service/internal/observability"
	"github.com/spec-kit/approval-service/internal/persistence"
	"github.com/spec-kit/approval-service/internal/repository"
	"github.com/spec-kit/approval-service/internal/runtime"
	"github.com/spec-kit/approval-service/internal/service"
	"github.com/spec-kit/approval-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var pg *persistence.Postgres
	var store repository.TicketStore

	switch cfg.Store.Driver {
	case "postgres":
		pg, err = persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		defer pg.Close()

		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		store = repository.NewPostgresStore(pg.PoolHandle())
	default:
		// An unreadable snapshot is fatal: refusing to serve beats running
		// on a partially loaded store.
		store, err = repository.NewFileStore(cfg.Store.FilePath)
		if err != nil {
			logger.Fatal("failed to open ticket store", zap.Error(err))
		}
	}
	defer store.Close()

	var redis *persistence.Redis
	if cfg.Store.StatusCache {
		redis = persistence.NewRedis(cfg.Redis, logger)
		defer redis.Close()
		store = repository.NewCachedStore(store, redis.Client, logger)
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	mailer := notify.NewMailer(cfg.SMTP, logger)
	tokens := auth.NewCallbackTokenManager(cfg.Callback.TokenSecret, cfg.Callback.TokenTTLMinutes)

	approvalService := service.NewApprovalService(service.ApprovalDependencies{
		Store:      store,
		Claims:     repository.NewSeededClaimRepository(),
		Mailer:     mailer,
		Tokens:     tokens,
		Dispatcher: dispatcher,
		Logger:     logger,
		Metrics:    metrics,
		Callback:   cfg.Callback,
		Runtime:    cfg.Runtime,
	})

	resumptionService := service.NewResumptionService(runtime.NewClient(cfg.Runtime, logger), logger, metrics)
	resumptionService.RegisterHandlers(dispatcher)

	expiryWorker := worker.NewExpiryWorker(store, dispatcher, logger, cfg.Expiry)
	if err := expiryWorker.Start(); err != nil {
		logger.Fatal("failed to start expiry worker", zap.Error(err))
	}
	defer expiryWorker.Stop()

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:    handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Approvals: handlers.NewApprovalsHandler(approvalService),
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
