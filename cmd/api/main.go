package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/techsupport-manager/internal/api/http"
	"github.com/spec-kit/techsupport-manager/internal/api/http/handlers"
	"github.com/spec-kit/techsupport-manager/internal/auth"
	"github.com/spec-kit/techsupport-manager/internal/config"
	"github.com/spec-kit/techsupport-manager/internal/events"
	"github.com/spec-kit/techsupport-manager/internal/observability"
	"github.com/spec-kit/techsupport-manager/internal/persistence"
	"github.com/spec-kit/techsupport-manager/internal/repository"
	"github.com/spec-kit/techsupport-manager/internal/service"
	"github.com/spec-kit/techsupport-manager/internal/uow"
	"github.com/spec-kit/techsupport-manager/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App.Env)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	rds := persistence.NewRedis(cfg.Redis, logger)
	defer rds.Close()

	metrics := observability.NewMetrics()

	// Committed events fan out to the in-process dispatcher (notifications)
	// and the Redis stream (external consumers).
	dispatcher := events.NewInMemoryDispatcher()
	streamPublisher := events.NewStreamPublisher(rds.Client, cfg.Redis.Stream, logger)
	publisher := observability.CountPublishes(events.Fanout(dispatcher, streamPublisher), metrics)

	var (
		ticketRepo  repository.TicketRepository
		accountRepo repository.AccountRepository
		eventStore  events.Store
		uowFactory  uow.Factory
	)
	if pool := pg.PoolHandle(); pool != nil {
		ticketRepo = repository.NewTicketRepository(pool)
		accountRepo = repository.NewAccountRepository(pool)
		eventStore = repository.NewEventStore(pool)
		uowFactory = uow.NewPostgresFactory(pool, eventStore, publisher, logger)
	} else {
		ticketRepo = repository.NewMemoryTicketRepository()
		accountRepo = repository.NewMemoryAccountRepository()
		eventStore = events.NewMemoryStore()
		uowFactory = uow.NewMemoryFactory(eventStore, publisher, logger)
	}

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: ticketRepo,
		UnitOfWork: uowFactory,
		Logger:     logger,
	})
	authService := service.NewAuthService(cfg.Auth, accountRepo)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	notificationService.RegisterHandlers()

	slaMonitor := service.NewSLAMonitor(ticketRepo, publisher, logger)
	slaWorker := worker.NewSLAWorker(slaMonitor, cfg.Worker.SLAScanSchedule, logger)
	if err := slaWorker.Start(ctx); err != nil {
		logger.Fatal("failed to start sla worker", zap.Error(err))
	}
	defer slaWorker.Stop()

	authMiddleware := auth.NewMiddleware(authService.TokenManager(), accountRepo)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, rds),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
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
