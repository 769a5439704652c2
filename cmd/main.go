/*
Package main is the entry point for the presence relay.

It loads configuration, initializes the global logger, optionally connects the presence
audit database, starts the hub, serves HTTP and WebSocket traffic, and shuts everything
down in order on SIGINT or SIGTERM.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/time/rate"

	"presencechat/internal/app/audit"
	"presencechat/internal/app/chat"
	"presencechat/internal/app/db"
	"presencechat/internal/configs"
	"presencechat/internal/handler"
	"presencechat/internal/pkg/logx"
)

const auditQueueSize = 1024

func main() {
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logx.InitGlobalLogger(cfg.IsDevelopment())
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Str("ws_path", cfg.WSPath).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Bool("audit_enabled", cfg.DatabaseDSN != "").
		Msg("Configuration loaded successfully")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		pool     *pgxpool.Pool
		recorder audit.Recorder = audit.Nop{}
	)
	if cfg.DatabaseDSN != "" {
		pool, err = db.NewPool(ctx, cfg.DatabaseDSN)
		if err != nil {
			logx.Fatal(err, "Failed to initialize presence audit database")
		}
		recorder = audit.NewAsyncRecorder(audit.NewPostgresStore(pool), auditQueueSize)
	}

	manager := chat.NewManager(recorder, chat.ClientOptions{
		SendQueueSize:   cfg.SendQueueSize,
		MaxMessageBytes: cfg.MaxMessageBytes,
		MessageRate:     rate.Limit(cfg.MessageRate),
		MessageBurst:    cfg.MessageBurst,
	})

	router, stopLimiters := handler.Router(&handler.AppDeps{
		Manager: manager,
		Config:  cfg,
	})
	defer stopLimiters()

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("Presence relay starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Server forced to shutdown")
	}

	manager.Shutdown()

	if pool != nil {
		pool.Close()
	}

	logx.Info("Server gracefully stopped.")
}
