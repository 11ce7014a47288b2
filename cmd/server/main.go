/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the rent status server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, environment, flags)
  2. Build the logger
  3. Initialize SQLite store
  4. Create calculator, classifier and API handler
  5. Configure HTTP router
  6. Start the portfolio digest scheduler
  7. Start server with graceful shutdown

COMMAND-LINE FLAGS (override the environment):
  -port    HTTP server port (env PORT, default 8080)
  -db      SQLite database path (env DB_PATH, default rent.db)
           Use ":memory:" for in-memory database

ENVIRONMENT:
  LOG_LEVEL, LOG_FORMAT, CORS_ALLOWED_ORIGINS, RENT_CREDIT_POLICY,
  SHUTDOWN_TIMEOUT, DIGEST_INTERVAL. See config/config.go.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (SHUTDOWN_TIMEOUT)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with in-memory database and readable logs
  LOG_FORMAT=text ./server -db=":memory:"

  # Clamp over-payment credit on partial months
  RENT_CREDIT_POLICY=clamp ./server -port=3000

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Environment variables
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/warp/rent-status/api"
	"github.com/warp/rent-status/config"
	"github.com/warp/rent-status/rent"
	"github.com/warp/rent-status/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	// Flags
	port := flag.Int("port", cfg.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	flag.Parse()

	logger := config.NewLogger(cfg.LogLevel, cfg.LogFormat)

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		logger.WithError(err).WithField("db", *dbPath).Fatal("Failed to initialize database")
	}
	defer store.Close()

	// Initialize engine and handler
	classifier := rent.NewClassifier(rent.NewCalculator(cfg.CreditPolicy), logger)
	handler := api.NewHandler(store, classifier, logger)

	// Create router
	router := api.NewRouter(handler, cfg.AllowedOrigins...)

	// Portfolio digest
	digest := api.NewDigestScheduler(store, classifier, logger)
	digest.Interval = cfg.DigestInterval
	digest.Start()
	defer digest.Stop()

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.WithFields(logrus.Fields{
			"port":          *port,
			"db":            *dbPath,
			"credit_policy": cfg.CreditPolicy,
		}).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
		return
	}

	logger.Info("Server stopped")
}
