// @title           Group Ledger API
// @version         1.0
// @description     Shared expenses, settlements and pairwise balances for groups.
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/fkhayef/groupledger/docs"
	"github.com/fkhayef/groupledger/internal/auth"
	"github.com/fkhayef/groupledger/internal/balance"
	"github.com/fkhayef/groupledger/internal/config"
	"github.com/fkhayef/groupledger/internal/database"
	"github.com/fkhayef/groupledger/internal/events"
	"github.com/fkhayef/groupledger/internal/expense"
	expensesplit "github.com/fkhayef/groupledger/internal/expense/split"
	"github.com/fkhayef/groupledger/internal/group"
	"github.com/fkhayef/groupledger/internal/ledger"
	"github.com/fkhayef/groupledger/internal/metrics"
	"github.com/fkhayef/groupledger/internal/notification"
	"github.com/fkhayef/groupledger/internal/settlement"
	"github.com/fkhayef/groupledger/internal/storage"
	"github.com/fkhayef/groupledger/internal/storage/memory"
	"github.com/fkhayef/groupledger/internal/storage/postgres"
	"github.com/fkhayef/groupledger/internal/user"
	"github.com/fkhayef/groupledger/pkg/logging"
	mw "github.com/fkhayef/groupledger/pkg/middleware"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := config.Load()
	logger := logging.Setup(os.Stdout, cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	publisher, err := openPublisher(cfg, logger)
	if err != nil {
		return err
	}
	defer publisher.Close()

	balanceService, err := balance.NewService(store, cfg.BalanceCacheSize, m, logger)
	if err != nil {
		return err
	}
	writer := ledger.NewWriter(store, balanceService, publisher, m, logger, cfg.LedgerTxTimeout)

	var tokens *auth.JWTManager
	authenticate := mw.HeaderUserMiddleware
	if cfg.AuthMode == config.AuthJWT {
		tokens = auth.NewJWTManager(cfg.JWTSecret, 24*time.Hour)
		authenticate = mw.AuthMiddleware(tokens)
	} else {
		logger.Warn("header auth mode: callers are trusted by " + mw.UserIDHeader)
	}

	// Split Strategy Factory (Factory Pattern)
	splitFactory := expensesplit.NewSplitStrategyFactory()

	// User feature
	var issuer user.TokenIssuer
	if tokens != nil {
		issuer = tokens
	}
	userHandler := user.NewHandler(user.NewService(store, issuer, logger))

	// Ledger features
	groupHandler := group.NewHandler(group.NewService(writer))
	expenseHandler := expense.NewHandler(expense.NewService(writer, splitFactory))
	settlementHandler := settlement.NewHandler(settlement.NewService(writer))
	balanceHandler := balance.NewHandler(balanceService)
	notificationHandler := notification.NewHandler(notification.NewService(store))

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.RequestLogger(logger, m))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		w.Header().Set("Content-Type", "application/json")
		if err := store.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/users", userHandler.Routes(authenticate))

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Mount("/groups", groupHandler.Routes())
			r.Route("/expenses", func(r chi.Router) {
				expenseHandler.Register(r)
				settlementHandler.Register(r)
			})
			r.Mount("/user", balanceHandler.Routes())
			r.Mount("/notifications", notificationHandler.Routes())
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  2 * cfg.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Port, "storage", cfg.Storage, "auth", cfg.AuthMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed to start: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func openStore(cfg *config.Config, logger *slog.Logger) (storage.Store, error) {
	if cfg.Storage == config.StorageMemory {
		logger.Warn("using in-memory storage; data is lost on restart")
		return memory.New(), nil
	}

	if cfg.RunMigrations {
		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			return nil, err
		}
		logger.Info("migrations applied")
	}

	db, err := database.NewPostgresConnection(cfg.DatabaseURL, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	logger.Info("connected to database")
	return postgres.New(db), nil
}

func openPublisher(cfg *config.Config, logger *slog.Logger) (events.Publisher, error) {
	if cfg.AMQPURL == "" {
		return events.Nop{}, nil
	}
	p, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to AMQP: %w", err)
	}
	logger.Info("publishing ledger events", "exchange", cfg.AMQPExchange)
	return p, nil
}
