// Package main starts the scoring engine HTTP service.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MJE43/jokers-gambit/internal/api"
	"github.com/MJE43/jokers-gambit/internal/config"
	"github.com/MJE43/jokers-gambit/internal/joker"
	"github.com/MJE43/jokers-gambit/internal/logging"
	"github.com/MJE43/jokers-gambit/internal/scoring"
	"github.com/MJE43/jokers-gambit/internal/scripting"
	"github.com/MJE43/jokers-gambit/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger := logging.New(logging.Options{Level: cfg.LogLevel, JSON: cfg.LogJSON})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	registry := joker.NewCatalog(logger)
	if cfg.JokerScripts != "" {
		loaded, err := scripting.LoadDir(cfg.JokerScripts, registry, scripting.WithLogger(logger))
		if err != nil {
			return err
		}
		logger.Info("joker scripts loaded", "dir", cfg.JokerScripts, "count", len(loaded))
	}
	eng := scoring.New(registry, logger)

	db, err := store.NewSQLiteDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		return err
	}

	srv := api.NewServer(api.Options{
		DB:           db,
		Engine:       eng,
		Logger:       logger,
		ScanTimeout:  cfg.ScanTimeout,
		ScanMaxRange: cfg.ScanMaxRange,
	})

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr, "db", cfg.DBPath, "version", api.EngineVersion)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}
