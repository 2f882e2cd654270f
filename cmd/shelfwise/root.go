package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shelfwise/shelfwise/internal/api"
	"github.com/shelfwise/shelfwise/internal/completion"
	"github.com/shelfwise/shelfwise/internal/config"
	"github.com/shelfwise/shelfwise/internal/covers"
	"github.com/shelfwise/shelfwise/internal/recommend"
	"github.com/shelfwise/shelfwise/internal/store"
)

// Version is set at build time via ldflags: -ldflags "-X main.Version=1.0.0"
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "shelfwise",
	Short: "Shelfwise - Book Review and Recommendation Service",
	RunE:  run,
}

func run(cmd *cobra.Command, args []string) error {
	// 1. Signal handling
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	// 2. Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("configuration loaded")

	// 3. Initialize logger
	logger := slog.New(newLogHandler(os.Stdout, cfg.Log.Format, parseLogLevel(cfg.Log.Level)))
	slog.SetDefault(logger)
	slog.Info("logger initialized", "level", cfg.Log.Level, "format", cfg.Log.Format)

	// 4. Initialize store (migrations, WAL mode)
	db, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return err
	}
	slog.Info("store initialized", "path", cfg.Database.Path)

	// 5. Initialize completion client (throttled, retrying)
	svc := completion.NewOpenAI(cfg.Completion.APIKey, cfg.Completion.Model)
	completer := completion.NewClient(svc, completion.Policy{
		MinInterval:      time.Duration(cfg.Completion.MinInterval),
		MaxAttempts:      cfg.Completion.MaxAttempts,
		OverloadCooldown: time.Duration(cfg.Completion.OverloadCooldown),
		RetryBackoff:     time.Duration(cfg.Completion.RetryBackoff),
		FailFastAuth:     cfg.Completion.FailFastAuth,
	})
	slog.Info("completion client initialized", "model", cfg.Completion.Model)

	// 6. Initialize recommendation engine with in-memory cache
	cache := recommend.NewMemoryCache(time.Duration(cfg.Recommend.CacheTTL))
	engine := recommend.NewEngine(db, completer, cache, recommend.Config{
		MaxResults:      cfg.Recommend.MaxResults,
		MinAIResults:    cfg.Recommend.MinAIResults,
		PipelineTimeout: time.Duration(cfg.Recommend.PipelineTimeout),
	})
	slog.Info("recommendation engine initialized",
		"cache_ttl", time.Duration(cfg.Recommend.CacheTTL).String(),
		"max_results", cfg.Recommend.MaxResults,
	)

	// 7. Initialize cover storage (no-op when unconfigured)
	uploader, err := covers.NewUploader(cfg.Covers)
	if err != nil {
		return err
	}

	// 8. Initialize HTTP router
	handler := api.NewHandler(db, engine, uploader, completer.ModelName(), cfg.Auth.APIKey, Version)
	router := api.NewRouter(handler)
	slog.Info("router initialized")

	// 9. Configure HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout),
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout),
	}

	// 10. Start HTTP server in goroutine
	go func() {
		slog.Info("server starting", "address", addr)
		// ErrServerClosed is the expected error when Shutdown() is called gracefully.
		// Any other error indicates an actual server failure that should trigger shutdown.
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel() // Trigger shutdown on server failure
		}
	}()

	// 11. Block until signal received
	<-ctx.Done()
	slog.Info("shutdown initiated")

	// 12. Graceful shutdown sequence
	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout))
	defer shutdownCancel()

	// 12a. Stop HTTP server (drains in-flight requests)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	// 12b. Close store
	if err := db.Close(); err != nil {
		slog.Error("store close error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// newLogHandler selects the slog handler for the configured format.
// Anything other than "text" gets the JSON handler.
func newLogHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if format == "text" {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
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
