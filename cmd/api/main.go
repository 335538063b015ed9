package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/helpme/helpdesk-service/internal/api/http"
	"github.com/helpme/helpdesk-service/internal/api/http/handlers"
	"github.com/helpme/helpdesk-service/internal/auth"
	"github.com/helpme/helpdesk-service/internal/config"
	"github.com/helpme/helpdesk-service/internal/events"
	"github.com/helpme/helpdesk-service/internal/observability"
	"github.com/helpme/helpdesk-service/internal/persistence"
	"github.com/helpme/helpdesk-service/internal/repository"
	"github.com/helpme/helpdesk-service/internal/service"
	"github.com/helpme/helpdesk-service/internal/storage"
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

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer func() { _ = redis.Close() }()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	replyRepo := repository.NewReplyRepository(pool)
	statsRepo := repository.NewStatsRepository(pool)

	mediaStore := storage.NewMediaClient(cfg.Storage, logger)
	dispatcher := events.NewInMemoryDispatcher()
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)

	authService := service.NewAuthService(service.AuthDependencies{
		UserRepo: userRepo,
		Tokens:   tokens,
		Storage:  mediaStore,
		Logger:   logger,
		Config:   cfg.Auth,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:        ticketRepo,
		ReplyRepo:         replyRepo,
		UserRepo:          userRepo,
		Storage:           mediaStore,
		Dispatcher:        dispatcher,
		Logger:            logger,
		StrictTransitions: cfg.Tickets.StrictTransitions,
	})
	replyService := service.NewReplyService(service.ReplyDependencies{
		ReplyRepo:  replyRepo,
		TicketRepo: ticketRepo,
		Storage:    mediaStore,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	statsService := service.NewStatsService(service.StatsDependencies{
		StatsRepo: statsRepo,
		Cache:     redis.Client,
		Logger:    logger,
		CacheTTL:  cfg.Tickets.StatsCacheTTL(),
		TrendDays: cfg.Tickets.TrendDays,
	})
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notify)
	notificationService.RegisterHandlers()

	authMiddleware := auth.NewAuthMiddleware(tokens, userRepo)
	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: int(cfg.Upload.MaxSizeBytes) + 1024*1024,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version,
			handlers.DependencyProbe{Name: "postgres", Check: pg.Ping},
			handlers.DependencyProbe{Name: "redis", Check: redis.Ping},
			handlers.DependencyProbe{Name: "media_store", Check: mediaStore.Ping},
		),
		Users:          handlers.NewUsersHandler(authService, mediaStore, cfg.Upload),
		Tickets:        handlers.NewTicketsHandler(ticketService, mediaStore, cfg.Upload),
		Replies:        handlers.NewRepliesHandler(replyService, mediaStore, cfg.Upload),
		Admin:          handlers.NewAdminHandler(statsService, metrics),
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
