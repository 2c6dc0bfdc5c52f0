package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/ticket-relay/internal/api/http"
	"github.com/spec-kit/ticket-relay/internal/api/http/handlers"
	"github.com/spec-kit/ticket-relay/internal/auth"
	"github.com/spec-kit/ticket-relay/internal/config"
	"github.com/spec-kit/ticket-relay/internal/discord"
	"github.com/spec-kit/ticket-relay/internal/events"
	"github.com/spec-kit/ticket-relay/internal/limiter"
	"github.com/spec-kit/ticket-relay/internal/llm"
	"github.com/spec-kit/ticket-relay/internal/observability"
	"github.com/spec-kit/ticket-relay/internal/persistence"
	"github.com/spec-kit/ticket-relay/internal/repository"
	"github.com/spec-kit/ticket-relay/internal/router"
	"github.com/spec-kit/ticket-relay/internal/service"
	"github.com/spec-kit/ticket-relay/internal/worker"
)

const (
	publishQueueSize = 256
	shutdownTimeout  = 10 * time.Second
)

func main() {
	var envFiles []string
	var migrateOnly bool
	flagSet := pflag.NewFlagSet("ticket-relay", pflag.ExitOnError)
	flagSet.StringSliceVar(&envFiles, "env-file", nil, "dotenv files to load before reading the environment (default: .env)")
	flagSet.BoolVar(&migrateOnly, "migrate-only", false, "apply database migrations and exit")
	_ = flagSet.Parse(os.Args[1:])

	cfg, err := config.Load(envFiles...)
	if err != nil {
		var verr *config.ValidationError
		if errors.As(err, &verr) {
			for _, p := range verr.Problems {
				log.Printf("config: %s %s", p.Key, p.Reason)
			}
			os.Exit(2)
		}
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing := observability.SetupTracing(ctx, cfg.Telemetry, cfg.App.Name, logger)
	metrics := observability.NewMetrics()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	ticketRepo, messageRepo := buildRepositories(pg)
	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.Pool(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}
	if migrateOnly {
		if !pg.Enabled() {
			logger.Fatal("--migrate-only requires POSTGRES_DSN")
		}
		if !cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.Pool(), cfg.Postgres.MigrationsDir, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		logger.Info("migrations applied")
		return
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	var locker service.Locker
	var aiLimiter router.RateLimiter
	if redis.Enabled() {
		locker = persistence.NewRedisLocker(redis.Client, cfg.App.Name+":lock:")
		if cfg.Limits.AIRequestsPerMinute > 0 {
			aiLimiter = limiter.NewFixedWindow(redis.Client, cfg.App.Name+":ai:", cfg.Limits.AIRequestsPerMinute, time.Minute)
		}
	}

	dispatcher := events.NewInMemoryDispatcher(logger)
	var publishWorker *worker.PublishWorker
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher, err := events.NewKafkaPublisher(cfg.Kafka, logger)
		if err != nil {
			logger.Fatal("failed to connect kafka", zap.Error(err))
		}
		publishWorker = worker.NewPublishWorker(kafkaPublisher, publishQueueSize, logger)
	}
	var publisher events.Publisher
	if publishWorker != nil {
		publisher = publishWorker
	}
	notificationService := service.NewNotificationService(dispatcher, publisher, logger)
	worker.StartNotificationWorker(notificationService, publishWorker)

	var completer service.Completer
	if cfg.Assist.AssistEnabled() {
		completer = llm.NewOpenAIClient(cfg.Assist)
	} else {
		logger.Warn("OPENAI_API_KEY not provided; AI assist will answer with a fallback message")
	}
	assistService := service.NewAssistService(completer, cfg.Assist, logger)

	session, err := discord.NewSession(cfg.Discord.Token)
	if err != nil {
		logger.Fatal("failed to create discord session", zap.Error(err))
	}
	gateway := discord.NewGateway(session, cfg.Discord)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  ticketRepo,
		MessageRepo: messageRepo,
		Channels:    gateway,
		Locker:      locker,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})

	messageRouter := router.New(router.Dependencies{
		Tickets:   ticketService,
		Assistant: assistService,
		Limiter:   aiLimiter,
		Gateway:   gateway,
		Options: router.Options{
			SupportGuildID: cfg.Discord.SupportGuildID,
			StaffRoleID:    cfg.Discord.StaffRoleID,
		},
		Logger:  logger,
		Metrics: metrics,
	})

	bot := discord.NewBot(session, messageRouter, cfg.Discord, logger)
	if err := bot.Start(ctx); err != nil {
		logger.Fatal("failed to start discord bot", zap.Error(err))
	}

	authService := service.NewAuthService(cfg.Auth, logger)
	routes := httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Metrics: handlers.NewMetricsHandler(metrics),
		Auth:    handlers.NewAuthHandler(authService),
	}
	if authService.Enabled() {
		routes.Tickets = handlers.NewTicketsHandler(ticketService)
		routes.AuthMiddleware = auth.NewAuthMiddleware(authService.TokenManager())
	} else {
		logger.Info("ops auth not configured; ticket lookup endpoint disabled")
	}

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	httptransport.RegisterMiddlewares(app, logger, metrics, 5*time.Second)
	httptransport.RegisterRoutes(app, routes)

	go func() {
		if err := app.Listen(cfg.App.HTTPAddr); err != nil {
			logger.Error("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := bot.Close(); err != nil {
		logger.Warn("discord close", zap.Error(err))
	}
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if publishWorker != nil {
		if err := publishWorker.Close(); err != nil {
			logger.Warn("event publisher close", zap.Error(err))
		}
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("tracing shutdown", zap.Error(err))
	}
}

func buildRepositories(pg *persistence.Postgres) (repository.TicketRepository, repository.TicketMessageRepository) {
	if pg.Enabled() {
		pool := pg.Pool()
		return repository.NewTicketRepository(pool), repository.NewTicketMessageRepository(pool)
	}
	store := repository.NewMemoryStore()
	return store.Tickets(), store.Messages()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
