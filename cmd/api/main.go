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

	"sales-saas/internal/audit"
	"sales-saas/internal/auth"
	"sales-saas/internal/config"
	"sales-saas/internal/directory"
	"sales-saas/internal/httpapi"
	"sales-saas/internal/rbac"
	"sales-saas/internal/reporting"
	"sales-saas/internal/salescalls"
	"sales-saas/internal/views"
	"sales-saas/pkg/logger"
	"sales-saas/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.DB.AutoMigrate {
		if err := salescalls.Migrate(rootCtx, db); err != nil {
			log.Error("sales_calls migration failed", "err", err)
			os.Exit(1)
		}
		if err := audit.Migrate(rootCtx, db); err != nil {
			log.Error("audit_events migration failed", "err", err)
			os.Exit(1)
		}
		log.Info("schema applied")
	}

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	dir := directory.NewClient(cfg.Directory)
	invalidator := views.NewRedisInvalidator(rdb)

	calls := salescalls.NewService(salescalls.NewPostgresStore(db), salescalls.Options{
		ReadFailurePolicy: salescalls.ReadFailurePolicy(cfg.SalesCalls.ReadFailurePolicy),
		Identities:        dir,
		Views:             invalidator,
		Audit:             salescalls.AuditAdapter{Audit: audit.NewService(audit.NewPostgresRepo(db))},
	})

	h := httpapi.Handlers{
		Principals: rbac.NewDeriver(dir),
		SalesCalls: calls,
		Reporting:  reporting.NewService(calls),
		Views:      invalidator,
		Stale:      invalidator,
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, h, auth.Session(authManager), func(ctx context.Context) error {
		return utils.HealthCheck(ctx, db, 2*time.Second)
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env, "read_failure_policy", cfg.SalesCalls.ReadFailurePolicy)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
