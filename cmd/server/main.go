package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dlacroix/wmslite/internal/config"
	"github.com/dlacroix/wmslite/internal/ingest"
	"github.com/dlacroix/wmslite/internal/logging"
	"github.com/dlacroix/wmslite/internal/service"
	"github.com/dlacroix/wmslite/internal/store"
	"github.com/dlacroix/wmslite/internal/web"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"store_path", cfg.Store.Path,
		"threshold", cfg.Import.Threshold,
	)

	// Open the state store
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		slog.Error("failed to open store", "path", cfg.Store.Path, "error", err)
		os.Exit(1)
	}
	defer st.Close()

	// Load the synonym table, with optional extensions from file
	synonyms := ingest.DefaultSynonyms()
	if cfg.Import.SynonymsFile != "" {
		synonyms, err = config.LoadSynonyms(cfg.Import.SynonymsFile)
		if err != nil {
			slog.Error("failed to load synonyms file", "path", cfg.Import.SynonymsFile, "error", err)
			os.Exit(1)
		}
		slog.Info("loaded synonyms file", "path", cfg.Import.SynonymsFile)
	}

	svc := service.New(st, synonyms, cfg.Import.Threshold)
	server := web.NewServer(svc, *cfg)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && err != http.ErrServerClosed {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
