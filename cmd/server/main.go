package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"capledger/internal/audit"
	auditHandler "capledger/internal/audit/handler"
	"capledger/internal/auth"
	authHandler "capledger/internal/auth/handler"
	"capledger/internal/ledger"
	ledgerHandler "capledger/internal/ledger/handler"
	"capledger/internal/platform/config"
	"capledger/internal/platform/httpserver"
	"capledger/internal/platform/logger"
	"capledger/internal/platform/metrics"
	"capledger/internal/platform/middleware"
	"capledger/internal/platform/postgres"
	redisclient "capledger/internal/platform/redis"
	"capledger/internal/shareholder"
	shareholderHandler "capledger/internal/shareholder/handler"
	"capledger/pkg/platform/httputil"
)

// main wires dependencies and owns the server lifecycle. Business logic lives
// in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	db, err := postgres.Open(cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redis, err := redisclient.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redis != nil {
		defer redis.Close()
	}

	m := metrics.New()
	txRunner := newPostgresTxRunner(db)

	trail := audit.NewTrail(audit.NewPostgres(db), m)

	jwtService := auth.NewJWTService(cfg.JWTSigningKey, cfg.TokenTTL)
	shareholderStore := shareholder.NewPostgres(db)
	summaryCache := ledger.NewSummaryCache(redis, log)

	// The auth and shareholder services reference each other: auth resolves
	// the shareholder binding at login, shareholders provision logins during
	// onboarding. The directory half is wired first.
	directory := shareholder.NewService(shareholderStore, nil, trail, txRunner, m, summaryCache)
	authService := auth.NewService(auth.NewPostgres(db), jwtService, directory, trail, txRunner, m)
	shareholderService := shareholder.NewService(shareholderStore, authService, trail, txRunner, m, summaryCache)

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if err := authService.EnsureAdmin(context.Background(), cfg.AdminEmail, cfg.AdminPassword); err != nil {
			log.Error("failed to bootstrap admin user", "error", err)
			os.Exit(1)
		}
	}

	validator := ledger.NewValidator(cfg.Issuance)
	ledgerService := ledger.NewService(ledger.NewPostgres(db), validator, shareholderService, trail, txRunner, m, summaryCache)

	ledgerH := ledgerHandler.New(ledgerService, ledgerHandler.NewCertificateRenderer(), log, cfg.CompanyName)

	router := chi.NewRouter()
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID)
	router.Use(middleware.RequestTime)
	router.Use(middleware.ClientMetadata)
	router.Use(middleware.Logger(log))

	router.Get("/healthz", handleHealth(db, redis))
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	authHandler.New(authService, log).Register(router)

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(jwtService, log))
		ledgerH.Register(r)
	})

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(jwtService, log))
		r.Use(middleware.RequireAdmin(log))
		shareholderHandler.New(shareholderService, log).Register(r)
		ledgerH.RegisterAdmin(r)
		auditHandler.New(trail, log).Register(r)
	})

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting capledger", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}

func handleHealth(db *sql.DB, redis *redisclient.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		status := map[string]string{"status": "ok", "database": "ok"}
		code := http.StatusOK

		if err := db.PingContext(ctx); err != nil {
			status["status"] = "degraded"
			status["database"] = "unreachable"
			code = http.StatusServiceUnavailable
		}
		if redis != nil {
			status["redis"] = "ok"
			if err := redis.Health(ctx); err != nil {
				status["status"] = "degraded"
				status["redis"] = "unreachable"
				code = http.StatusServiceUnavailable
			}
		}
		httputil.WriteJSON(w, code, status)
	}
}
