package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/prepstem/ieltsmock-backend/internal/catalog"
	"github.com/prepstem/ieltsmock-backend/internal/config"
	"github.com/prepstem/ieltsmock-backend/internal/database"
	"github.com/prepstem/ieltsmock-backend/internal/gate"
	"github.com/prepstem/ieltsmock-backend/internal/handler"
	"github.com/prepstem/ieltsmock-backend/internal/logger"
	"github.com/prepstem/ieltsmock-backend/internal/notify"
	"github.com/prepstem/ieltsmock-backend/internal/repository"
	"github.com/prepstem/ieltsmock-backend/internal/router"
	"github.com/prepstem/ieltsmock-backend/internal/service"
	"github.com/prepstem/ieltsmock-backend/internal/session"
	"github.com/prepstem/ieltsmock-backend/internal/validator"
	"github.com/prepstem/ieltsmock-backend/internal/worker"
)

const reaperInterval = 5 * time.Minute

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting IELTS Mock Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Load Test Catalog ─────────────────────────────────────────────
	cat, err := catalog.Load(cfg.CatalogDir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.CatalogDir).Msg("Failed to load test catalog")
	}
	log.Info().Int("sections", len(cat.List())).Msg("Test catalog loaded")

	// ─── Core Session Machinery ────────────────────────────────────────
	accessGate := gate.New(cfg.AccessCodeSalt)
	manager := session.NewManager(cfg.SessionRetention, log)
	manager.StartReaper(ctx, reaperInterval)

	notifier := notify.New(cfg.BotAPIURL, cfg.BotToken, cfg.AdminChatID, log)
	reporter := service.NewQueueReporter(rdb, log)

	// ─── Initialize Repositories ───────────────────────────────────────
	resultRepo := repository.NewResultRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg)
	sessionService := service.NewSessionService(cat, accessGate, manager, reporter, rdb, log)
	resultService := service.NewResultService(resultRepo)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Gate:    handler.NewGateHandler(sessionService, log),
		Session: handler.NewSessionHandler(sessionService, authService, log),
		Catalog: handler.NewCatalogHandler(cat, rdb, log),
		Webhook: handler.NewWebhookHandler(accessGate, notifier, log),
		Admin:   handler.NewAdminHandler(authService, resultService, log),
		WS:      handler.NewWSHandler(sessionService, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	resultWorker := worker.NewResultWorker(resultRepo, rdb, log)
	reportWorker := worker.NewReportWorker(notifier, rdb, log)

	go resultWorker.Start(workerCtx)
	go reportWorker.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop session clocks so no expiry fires mid-shutdown.
	manager.Shutdown()

	// 3. Stop background workers and wait for queues to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
