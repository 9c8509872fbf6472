package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/case-workflow/internal/api/http"
	"github.com/spec-kit/case-workflow/internal/api/http/handlers"
	"github.com/spec-kit/case-workflow/internal/auth"
	"github.com/spec-kit/case-workflow/internal/config"
	"github.com/spec-kit/case-workflow/internal/directory"
	"github.com/spec-kit/case-workflow/internal/documents"
	"github.com/spec-kit/case-workflow/internal/events"
	"github.com/spec-kit/case-workflow/internal/lifecycle"
	"github.com/spec-kit/case-workflow/internal/locking"
	"github.com/spec-kit/case-workflow/internal/notify"
	"github.com/spec-kit/case-workflow/internal/observability"
	"github.com/spec-kit/case-workflow/internal/persistence"
	"github.com/spec-kit/case-workflow/internal/repository"
	"github.com/spec-kit/case-workflow/internal/service"
	"github.com/spec-kit/case-workflow/internal/worker"
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

	metrics := observability.NewMetrics()
	checks := map[string]handlers.Pinger{}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	var (
		caseRepo repository.CaseRepository
		noteRepo repository.NoteRepository
	)
	if pg.Enabled() {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		caseRepo = repository.NewCaseRepository(pg.PoolHandle())
		noteRepo = repository.NewNoteRepository(pg.PoolHandle())
		checks["postgres"] = pg
	} else {
		logger.Warn("POSTGRES_DSN not set; cases are kept in memory")
		caseRepo = repository.NewMemoryCaseRepository()
		noteRepo = repository.NewMemoryNoteRepository()
	}

	var locker locking.Locker
	switch cfg.Lock.Backend {
	case config.LockBackendRedis:
		redis := persistence.NewRedis(ctx, cfg.Redis, logger)
		defer redis.Close()
		locker = locking.NewRedisLocker(redis.Client, cfg.Lock.TTL(), cfg.Lock.Wait())
		checks["redis"] = redis
	default:
		locker = locking.NewLocalLocker(cfg.Lock.Wait())
	}

	offices, err := directory.Load(cfg.Directory.File)
	if err != nil {
		logger.Fatal("failed to load office directory", zap.String("file", cfg.Directory.File), zap.Error(err))
	}
	logger.Info("office directory loaded", zap.Strings("offices", offices.OfficeNames()))

	storage := documents.NewStorage(ctx, cfg.Storage, logger)
	renderer := documents.NewChromeRenderer(cfg.PDF.ChromePath, cfg.PDF.PageSize, cfg.PDF.Timeout())
	generator := documents.NewGenerator(renderer, storage, logger)

	bus := events.NewInMemoryDispatcher()
	notificationService := service.NewNotificationService(bus, offices, notify.New(cfg.Notification, logger), logger)
	worker.StartNotificationWorker(notificationService, logger)

	orchestrator := lifecycle.New()
	orchestrator.KnownOffice = offices.KnownOffice

	dispatcher := service.NewActionDispatcher(service.DispatcherDependencies{
		Orchestrator:    orchestrator,
		CaseRepo:        caseRepo,
		Locker:          locker,
		Documents:       generator,
		Events:          bus,
		Metrics:         metrics,
		Logger:          logger,
		DocumentTimeout: cfg.Dispatch.DocumentTimeout(),
		NotifyTimeout:   cfg.Dispatch.NotifyTimeout(),
	})
	caseService := service.NewCaseService(caseRepo, noteRepo, logger)
	noteService := service.NewNoteService(noteRepo, logger)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    cfg.App.BodyLimitMB * 1024 * 1024,
		ErrorHandler: httptransport.ErrorHandler(logger, metrics),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	routes := httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, checks, metrics),
		Actions:        handlers.NewActionsHandler(dispatcher),
		Cases:          handlers.NewCasesHandler(caseService),
		Notes:          handlers.NewNotesHandler(noteService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
	}
	if _, local := storage.(*documents.LocalStorage); local {
		routes.FilesPrefix = cfg.Storage.LocalMountPath()
		routes.FilesDir = cfg.Storage.LocalDir
	}
	httptransport.RegisterRoutes(app, routes)

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
