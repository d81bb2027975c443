package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/tabgate/api"
	"github.com/use-agent/tabgate/config"
	"github.com/use-agent/tabgate/extractor"
	"github.com/use-agent/tabgate/service"
	"github.com/use-agent/tabgate/session"
	"github.com/use-agent/tabgate/snapshot"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("tabgate starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"targets", cfg.Extract.TargetsFile,
	)

	// ── 3. Load extraction targets ──────────────────────────────────
	targets, err := config.LoadTargets(cfg.Extract.TargetsFile, cfg.Extract.OutputDir)
	if err != nil {
		slog.Error("failed to load targets file", "path", cfg.Extract.TargetsFile, "error", err)
		os.Exit(1)
	}
	slog.Info("targets loaded",
		"login_url", targets.LoginURL,
		"tables", len(targets.Tables),
	)

	// ── 4. Wire core components ─────────────────────────────────────
	// The browser is NOT launched here: it only starts on session/open,
	// because the operator must be present to complete login.
	manager := session.NewManager(cfg.Browser, cfg.Extract, targets)
	defer manager.Close()

	ex := extractor.New(cfg.Extract, cfg.Webhook)
	sn := snapshot.New()
	svc := service.New(manager, ex, sn, targets)

	// ── 5. Setup router ─────────────────────────────────────────────
	router := api.SetupRouter(cfg, svc)

	// ── 6. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 7. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// Give in-flight requests 5 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	// manager.Close() runs via defer — kills the browser if still open.
	slog.Info("tabgate stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
