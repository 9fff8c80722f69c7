package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/stockin/internal/api"
	"github.com/hyperengineering/stockin/internal/auth"
	"github.com/hyperengineering/stockin/internal/backup"
	"github.com/hyperengineering/stockin/internal/config"
	"github.com/hyperengineering/stockin/internal/news"
	"github.com/hyperengineering/stockin/internal/research"
	"github.com/hyperengineering/stockin/internal/store"
	"github.com/hyperengineering/stockin/internal/worker"
)

// Version is set at build time via ldflags: -ldflags "-X main.Version=1.0.0"
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "stockin",
	Short: "StockIn - Company Research Service",
	RunE:  run,
}

func run(cmd *cobra.Command, args []string) error {
	// Signal handling
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Initialize logger
	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)
	slog.Info("configuration loaded", "version", Version)

	// Initialize store (migrations, WAL mode)
	db, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return err
	}
	slog.Info("store initialized", "path", cfg.Database.Path)

	// Identity provider
	identity := auth.NewSupabaseClient(auth.Config{
		URL:       cfg.Supabase.URL,
		AnonKey:   cfg.Supabase.AnonKey,
		JWTSecret: cfg.Supabase.JWTSecret,
		Timeout:   time.Duration(cfg.Supabase.Timeout),
	})
	slog.Info("identity client initialized", "url", cfg.Supabase.URL)

	// Completion client
	completer := research.NewGroqClient(
		cfg.Research.APIKey,
		cfg.Research.Model,
		cfg.Research.BaseURL,
		time.Duration(cfg.Research.Timeout),
	)
	slog.Info("completion client initialized", "model", cfg.Research.Model)

	// News client
	newsClient := news.NewClient(cfg.News.APIKey, cfg.News.BaseURL, time.Duration(cfg.News.Timeout))

	// HTTP router
	handler := api.NewHandler(db, identity, completer, newsClient, cfg.Static.Dir)
	router := api.NewRouter(handler, identity)
	slog.Info("router initialized")

	// HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout),
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout),
	}

	// Background workers
	var wg sync.WaitGroup
	uploader, err := backup.NewUploader(cfg.Backup.Storage)
	if err != nil {
		return err
	}
	if _, isNoop := uploader.(*backup.NoopUploader); !isNoop {
		backupWorker := worker.NewBackupWorker(db, uploader, time.Duration(cfg.Backup.Interval))
		startWorker(ctx, &wg, "backup", backupWorker.Run)
	}

	// Start HTTP server in goroutine
	go func() {
		slog.Info("server starting", "address", addr)
		// ErrServerClosed is the expected error when Shutdown() is called
		// gracefully. Any other error indicates an actual server failure.
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	// Block until signal received
	<-ctx.Done()
	slog.Info("shutdown initiated")

	// Graceful shutdown sequence
	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout))
	defer shutdownCancel()

	// Stop HTTP server (drains in-flight requests)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	// Wait for workers to complete
	wg.Wait()

	// Close store
	if err := db.Close(); err != nil {
		slog.Error("store close error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// newLogger builds the process logger from the log configuration.
func newLogger(cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// startWorker launches a background worker goroutine that respects context
// cancellation. Workers are tracked via WaitGroup for graceful shutdown.
func startWorker(ctx context.Context, wg *sync.WaitGroup, name string, fn func(ctx context.Context)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		slog.Info("worker started", "worker", name)
		fn(ctx)
		slog.Info("worker stopped", "worker", name)
	}()
}
