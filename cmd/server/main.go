/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the fee engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags, load config (.env + FEES_* environment)
  2. Build the zap logger
  3. Open the SQLite key-value store
  4. Load the identity store and ensure an admin exists
  5. Load the student roster, optionally seed demo data
  6. Configure HTTP router and the daily report job
  7. Start server with graceful shutdown

COMMAND-LINE FLAGS (override config):
  -port      HTTP server port
  -db        SQLite database path (":memory:" for in-memory)
  -env-file  dotenv file to load (default: .env, ignored when missing)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the report scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection

EXAMPLES:
  ./server -db="./data/fees.db"
  FEES_SEED_DEMO=true FEES_ADMIN_PASSWORD=change-me ./server -db=":memory:"

SEE ALSO:
  - config/config.go: Configuration keys
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Key-value store
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/warp/fee-engine/access"
	"github.com/warp/fee-engine/api"
	"github.com/warp/fee-engine/config"
	"github.com/warp/fee-engine/fees"
	"github.com/warp/fee-engine/logging"
	"github.com/warp/fee-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 0, "HTTP server port (overrides FEES_PORT)")
	dbPath := flag.String("db", "", "SQLite database path (overrides FEES_DB_PATH)")
	envFile := flag.String("env-file", ".env", "dotenv file to load")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx := context.Background()

	// Initialize store
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer store.Close()

	identity, err := access.NewIdentityStore(ctx, store,
		access.WithIdentityLogger(logger.Named("identity")),
		access.WithBcryptCost(cfg.BcryptCost))
	if err != nil {
		return fmt.Errorf("load accounts: %w", err)
	}
	if cfg.AdminPassword != "" {
		if _, err := identity.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			return fmt.Errorf("ensure admin: %w", err)
		}
	} else if len(identity.Users()) == 0 {
		logger.Warn("no accounts exist and admin_password is unset; nobody can sign in")
	}

	roster, err := fees.NewRoster(ctx, store, fees.WithLogger(logger.Named("roster")))
	if err != nil {
		return fmt.Errorf("load roster: %w", err)
	}
	if cfg.SeedDemo {
		if _, err := api.SeedDemoData(ctx, roster, logger); err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}
	}

	handler := api.NewHandler(identity, roster, access.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL), logger.Named("http"))
	router := api.NewRouter(handler, cfg.AllowedOrigins)

	job := api.NewDailyReportJob(roster, cfg.ExportDir, logger.Named("reports"))
	if cfg.ReportSchedule != "" {
		if err := job.Start(cfg.ReportSchedule); err != nil {
			return err
		}
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.Int("port", cfg.Port),
			zap.String("db", cfg.DBPath),
			zap.String("env", cfg.Env))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		job.Stop()
		return err
	}

	logger.Info("shutting down server")
	job.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
