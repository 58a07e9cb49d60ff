package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/incident-desk/internal/api/http"
	"github.com/spec-kit/incident-desk/internal/api/http/handlers"
	"github.com/spec-kit/incident-desk/internal/config"
	"github.com/spec-kit/incident-desk/internal/events"
	"github.com/spec-kit/incident-desk/internal/observability"
	"github.com/spec-kit/incident-desk/internal/persistence"
	"github.com/spec-kit/incident-desk/internal/repository"
	"github.com/spec-kit/incident-desk/internal/service"
	"github.com/spec-kit/incident-desk/internal/worker"
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

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	counterRepo := repository.NewCounterRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	sequenceService := service.NewSequenceService(service.SequenceDependencies{
		CounterRepo: counterRepo,
		TicketRepo:  ticketRepo,
		UserRepo:    userRepo,
		SeedFloor:   cfg.Allocator.SeedFloor,
		Logger:      logger,
	})
	assignmentService := service.NewAssignmentService(counterRepo, metrics, logger)
	reconcileService := service.NewReconcileService(service.ReconcileDependencies{
		TicketRepo: ticketRepo,
		UserRepo:   userRepo,
		Allocator:  assignmentService,
		Metrics:    metrics,
		Logger:     logger,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: ticketRepo,
		UserRepo:   userRepo,
		Sequences:  sequenceService,
		Allocator:  assignmentService,
		Reconciler: reconcileService,
		Dispatcher: dispatcher,
	})
	userService := service.NewUserService(userRepo, sequenceService, logger)
	dashboardService := service.NewDashboardService(ticketRepo, redis.ClientHandle(), cfg.Dashboard.CacheTTL(), logger)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: cfg.App.Env == "production",
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:    handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Tickets:   handlers.NewTicketsHandler(ticketService),
		Users:     handlers.NewUsersHandler(userService),
		Dashboard: handlers.NewDashboardHandler(dashboardService),
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
