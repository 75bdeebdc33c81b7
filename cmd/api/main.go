package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/callwise/voice-scheduler/internal/api/http"
	"github.com/callwise/voice-scheduler/internal/api/http/handlers"
	"github.com/callwise/voice-scheduler/internal/auth"
	"github.com/callwise/voice-scheduler/internal/config"
	"github.com/callwise/voice-scheduler/internal/crm"
	"github.com/callwise/voice-scheduler/internal/events"
	"github.com/callwise/voice-scheduler/internal/knowledge"
	"github.com/callwise/voice-scheduler/internal/observability"
	"github.com/callwise/voice-scheduler/internal/persistence"
	"github.com/callwise/voice-scheduler/internal/repository"
	"github.com/callwise/voice-scheduler/internal/scheduling"
	"github.com/callwise/voice-scheduler/internal/service"
	"github.com/callwise/voice-scheduler/internal/worker"
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
	appointmentRepo := repository.NewAppointmentRepository(pool)
	customerRepo := repository.NewCustomerRepository(pool)
	callRepo := repository.NewCallRepository(pool)
	knowledgeRepo := repository.NewKnowledgeRepository(pool)

	dispatcher := events.NewInMemoryDispatcherWithLogger(logger)
	crmClient := crm.New(cfg.CRM, logger)
	logger.Info("crm sync configured", zap.String("provider", crmClient.Name()))

	appointmentService := service.NewAppointmentService(service.AppointmentDependencies{
		AppointmentRepo: appointmentRepo,
		CustomerRepo:    customerRepo,
		Dispatcher:      dispatcher,
		CRM:             crmClient,
		Logger:          logger,
	})
	bookingService := service.NewBookingService(
		scheduling.NewExtractor(logger, nil),
		scheduling.NewNormalizer(logger, nil),
		appointmentService,
		customerRepo,
		logger,
	)
	knowledgeBase := knowledge.NewBase(knowledgeRepo, redis.Client, cfg.Knowledge, logger)
	callService := service.NewCallService(callRepo, customerRepo, knowledgeBase, logger)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewMiddleware(tokens, cfg.Auth.WebhookAPIKeyHash)

	metrics := observability.NewMetrics()
	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Appointments:   handlers.NewAppointmentsHandler(appointmentService, bookingService),
		Calls:          handlers.NewCallsHandler(callService),
		Knowledge:      handlers.NewKnowledgeHandler(knowledgeBase),
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
