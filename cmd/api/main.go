// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/carterperez-dev/crm-backend/internal/admin"
	"github.com/carterperez-dev/crm-backend/internal/auth"
	"github.com/carterperez-dev/crm-backend/internal/bulk"
	"github.com/carterperez-dev/crm-backend/internal/config"
	"github.com/carterperez-dev/crm-backend/internal/core"
	"github.com/carterperez-dev/crm-backend/internal/dashboard"
	"github.com/carterperez-dev/crm-backend/internal/filter"
	"github.com/carterperez-dev/crm-backend/internal/health"
	"github.com/carterperez-dev/crm-backend/internal/lead"
	"github.com/carterperez-dev/crm-backend/internal/ledger"
	"github.com/carterperez-dev/crm-backend/internal/middleware"
	"github.com/carterperez-dev/crm-backend/internal/reference"
	"github.com/carterperez-dev/crm-backend/internal/server"
	"github.com/carterperez-dev/crm-backend/internal/team"
	"github.com/carterperez-dev/crm-backend/internal/user"
	"github.com/carterperez-dev/crm-backend/internal/visibility"
)

const (
	drainDelay = 5 * time.Second
)

// Bulk endpoints get their own per-user, per-endpoint budget on top of the
// role limiter.
var bulkLimit = middleware.PerMinute(30, 10)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	core.RegisterMetrics(registry)

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	registry.MustRegister(collectors.NewDBStatsCollector(db.DB.DB, "crm"))
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	signer, err := auth.NewSigner(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", signer.KeyID(),
	)

	teamRepo := team.NewRepository(db.DB)
	resolver := visibility.NewResolver(teamRepo)

	userRepo := user.NewRepository(db.DB)
	userSvc := user.NewService(userRepo, resolver)
	userHandler := user.NewHandler(userSvc)

	sessions := auth.NewSessionStore(db.DB)
	authSvc := auth.NewService(sessions, signer, userSvc, core.NewDenylist(redis.Client))
	authHandler := auth.NewHandler(authSvc)

	teamSvc := team.NewService(teamRepo, userSvc)
	teamHandler := team.NewHandler(teamSvc)

	statusSvc := reference.NewService(
		reference.NewRepository(db.DB, reference.Statuses), reference.Statuses)
	sourceSvc := reference.NewService(
		reference.NewRepository(db.DB, reference.Sources), reference.Sources)
	statusHandler := reference.NewHandler(statusSvc, "/statuses")
	sourceHandler := reference.NewHandler(sourceSvc, "/sources")

	leadRepo := lead.NewRepository(db.DB)
	ledgerRepo := ledger.NewRepository(db.DB)

	leadSvc := lead.NewService(
		db,
		leadRepo,
		lead.NewNoteRepository(db.DB),
		ledgerRepo,
		statusSvc,
		sourceSvc,
		resolver,
		logger,
	)
	leadHandler := lead.NewHandler(leadSvc)

	ledgerSvc := ledger.NewService(ledgerRepo, leadSvc, userSvc, resolver, logger)
	ledgerHandler := ledger.NewHandler(ledgerSvc)

	bulkSvc := bulk.NewService(
		db,
		leadRepo,
		ledgerRepo,
		userSvc,
		statusSvc,
		sourceSvc,
		resolver,
		cfg.CRM.BulkChunkSize,
		logger,
	)
	bulkHandler := bulk.NewHandler(bulkSvc)

	dashboardSvc := dashboard.NewService(
		dashboard.NewRepository(db.DB),
		statusSvc,
		sourceSvc,
		teamSvc,
		resolver,
		cfg.CRM,
		logger,
	)
	dashboardHandler := dashboard.NewHandler(dashboardSvc)

	filterHandler := filter.NewHandler(
		filter.NewService(filter.NewRepository(db.DB)),
		leadSvc,
	)

	healthHandler := health.NewHandler(
		health.Dependency{Name: "database", Checker: db},
		health.Dependency{Name: "redis", Checker: redis},
	)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:     db.Stats,
		RedisStats:  redis.PoolStats,
		DBPing:      db.Ping,
		RedisPing:   redis.Ping,
		Leads:       leadSvc,
		Assignments: ledgerSvc,
		Teams:       teamSvc,
		Users:       userSvc,
		Sessions:    authSvc,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Metrics)
	router.Use(middleware.NewLimiter(redis.Client, middleware.ByIP(
		middleware.PerMinute(cfg.RateLimit.Requests, cfg.RateLimit.Burst),
	)).Handler)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		Registry: registry,
	}))
	router.Get("/.well-known/jwks.json", signer.JWKSHandler())

	authenticator := middleware.Authenticator(authSvc)
	adminOnly := middleware.RequireAdmin
	roleLimiter := middleware.NewLimiter(redis.Client,
		middleware.ByRole(middleware.DefaultRoleLimits)).Handler
	bulkLimiter := middleware.NewLimiter(redis.Client,
		middleware.ByUserEndpoint(bulkLimit)).Handler

	router.Route("/v1", func(r chi.Router) {
		authHandler.RegisterRoutes(r, authenticator)

		userHandler.RegisterRoutes(r, authenticator)
		userHandler.RegisterAdminRoutes(r, authenticator, adminOnly)
		teamHandler.RegisterRoutes(r, authenticator)
		statusHandler.RegisterRoutes(r, authenticator, adminOnly)
		sourceHandler.RegisterRoutes(r, authenticator, adminOnly)

		r.Route("/leads", func(r chi.Router) {
			r.Use(authenticator)
			r.Use(roleLimiter)

			bulkHandler.RegisterRoutes(r, bulkLimiter)
			leadHandler.RegisterRoutes(r)
			ledgerHandler.RegisterRoutes(r)
		})

		dashboardHandler.RegisterRoutes(r, authenticator)
		filterHandler.RegisterRoutes(r, authenticator)
		adminHandler.RegisterRoutes(r, authenticator, adminOnly)
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
