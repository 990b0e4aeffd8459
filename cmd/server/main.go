/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the gym settlement server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse configuration (env overrides flags)
  2. Build the zap logger at the configured level
  3. Initialize SQLite store
  4. Create API handler with the gym details printed on slips
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS / ENVIRONMENT:
  -a          RUN_ADDRESS      HTTP listen address (default: :8080)
  -db         DATABASE_PATH    SQLite database path (default: gym.db)
                               Use ":memory:" for in-memory database
  -log-level  LOG_LEVEL        debug, info, warn, error (default: info)
              GYM_NAME, GYM_ADDRESS, GYM_PHONE, CURRENCY_SYMBOL

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  ./server -db="./data/gym.db"
  GYM_NAME="Iron Temple" ./server -a=:3000

SEE ALSO:
  - config/config.go: Configuration
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/warp/gym-settlement/api"
	"github.com/warp/gym-settlement/config"
	"github.com/warp/gym-settlement/payroll"
	"github.com/warp/gym-settlement/store/sqlite"
)

func main() {
	cfg, err := config.Parse()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(2)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(2)
	}
	defer logger.Sync()

	store, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		logger.Fatal("database initialization error", zap.Error(err))
	}
	defer store.Close()

	handler := api.NewHandler(store, payroll.Gym{
		Name:           cfg.GymName,
		Address:        cfg.GymAddress,
		Phone:          cfg.GymPhone,
		CurrencySymbol: cfg.CurrencySymbol,
	}, logger)

	server := &http.Server{
		Addr:         cfg.RunAddress,
		Handler:      api.NewRouter(handler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting gym settlement server",
			zap.String("addr", cfg.RunAddress),
			zap.String("db", cfg.DatabasePath),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		logger.Info("server stopped")
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("application terminated with error", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	return cfg.Build()
}
