// Command meddler runs the MCP transport broker: the dual-transport MCP
// endpoint, the worker relay, and the Postgres-backed storage layer behind
// them.
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

	"github.com/kandev/meddler/internal/config"
	"github.com/kandev/meddler/internal/dispatch"
	"github.com/kandev/meddler/internal/httpapi"
	"github.com/kandev/meddler/internal/logger"
	"github.com/kandev/meddler/internal/session"
	"github.com/kandev/meddler/internal/storage/postgres"
	"github.com/kandev/meddler/internal/telemetry"
	"github.com/kandev/meddler/internal/version"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		OutputPath: cfg.Logging.OutputPath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetDefault(log)

	log.Info("starting meddler", zap.String("version", version.Version))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := postgres.New(ctx, cfg.Database)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatal("failed to apply schema", zap.Error(err))
	}
	log.Info("database ready")

	sessions := session.NewManager()
	dispatcher := dispatch.New(store, store, store, sessions, log, version.Version)
	server := httpapi.NewServer(store, sessions, dispatcher, log)

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: server.Router(),
	}

	go func() {
		log.Info("http server listening", zap.String("addr", cfg.Server.Addr()))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	defer telemetry.Shutdown(context.Background())

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down meddler")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown error", zap.Error(err))
	}
}
