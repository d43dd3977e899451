// Copyright (c) 2026 VTES Biased. All rights reserved.
// Author: rulings@vtes-biased.org

// Command api is the entry point for the rulings HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Load the card catalog and the rulings git checkout.
//  7. Wire HTTP handlers.
//  8. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vtes-biased/rulings-website/internal/api"
	"github.com/vtes-biased/rulings-website/internal/catalog"
	"github.com/vtes-biased/rulings-website/internal/discord"
	"github.com/vtes-biased/rulings-website/internal/platform/config"
	"github.com/vtes-biased/rulings-website/internal/platform/constants"
	"github.com/vtes-biased/rulings-website/internal/platform/migration"
	pgstore "github.com/vtes-biased/rulings-website/internal/platform/postgres"
	redisstore "github.com/vtes-biased/rulings-website/internal/platform/redis"
	"github.com/vtes-biased/rulings-website/internal/platform/sec"
	"github.com/vtes-biased/rulings-website/internal/proposal"
	"github.com/vtes-biased/rulings-website/internal/repository"
	"github.com/vtes-biased/rulings-website/internal/scraper"
	"github.com/vtes-biased/rulings-website/internal/users/auth"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	log.Info("service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", constants.AppName))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Root context for startup. Use a 2 minute deadline so misconfiguration
	// is caught quickly rather than hanging indefinitely. The rulings clone
	// and the card catalog download dominate this budget.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Card Catalog & Rulings Checkout ────────────────────────────────
	cards := catalog.NewCardMap()
	must(log, cards.Load(startupCtx, cfg.CardsURL), "load card catalog")
	log.Info("card_catalog_loaded", slog.Int("cards", cards.Len()))

	repo, err := repository.Open(startupCtx, repository.Config{
		Remote:     cfg.RulingsGitRemote,
		Branch:     cfg.RulingsGitBranch,
		WorkDir:    cfg.RulingsWorkDir,
		SSHKeyPath: cfg.GitSSHKeyPath,
	})
	must(log, err, "open rulings repository")

	baseIndex, err := repo.LoadIndex(cards)
	must(log, err, "load rulings index")
	log.Info("rulings_index_loaded",
		slog.Int("references", len(baseIndex.References)),
		slog.Int("groups", len(baseIndex.Groups)),
	)

	// ── 7. Auth Service ───────────────────────────────────────────────────
	jwtSvc, err := sec.NewTokenService(cfg.JWTPrivKeyPath, cfg.JWTPubKeyPath, constants.AuthIssuer)
	must(log, err, "initialize jwt service")

	// ── 8. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckCache: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
	}, log)

	// ── 9. Domain Wiring ──────────────────────────────────────────────────
	userRepository := auth.NewUserRepository(pool)
	deniedTokens := auth.NewDeniedTokenRepository(rdb)
	veknClient := auth.NewVeknClient(cfg.VeknAPIURL)
	authService := auth.NewService(userRepository, deniedTokens, veknClient, jwtSvc)
	authHandler := auth.NewHandler(authService)

	proposalStore := proposal.NewPostgresStore(pool)
	notifier := discord.NewClient(cfg.DiscordWebhook, cfg.SiteURLBase, log)
	forumScraper := scraper.NewScraper(rdb)
	proposalService := proposal.NewService(cards, baseIndex, proposalStore, repo, notifier, forumScraper, log)
	proposalHandler := proposal.NewHandler(proposalService)

	// ── 10. HTTP Server ───────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      authHandler,
		Proposal:  proposalHandler,
	}

	serverCtx, serverCancel := context.WithCancel(context.Background())
	defer serverCancel()

	server := api.NewServer(serverCtx, cfg, log, authService, handlers)

	// ── 11. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
