package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"posebvh/internal/api"
	"posebvh/internal/export"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP export server",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using process environment")
	} else {
		slog.Info("loaded environment from .env")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close(context.Background())
	}
	notifier := openNotifier(cfg)
	defer notifier.Close()

	svc := export.NewService(cfg.BVHEncoder(),
		export.WithStore(db),
		export.WithNotifier(notifier),
		export.WithTempDir(cfg.Server.TempDir),
	)
	handler := api.NewHandler(svc, db, cfg.Server.MaxBodyBytes)

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.Routes(handler, cfg.Server.StaticDir),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		slog.Info("posebvh server listening",
			"addr", cfg.Server.Addr,
			"history", db != nil,
			"static_dir", cfg.Server.StaticDir,
		)
		errChan <- server.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		slog.Info("received shutdown signal")
	}

	timeout := time.Duration(cfg.Server.ShutdownTimeoutS) * time.Second
	slog.Info("shutting down gracefully", "timeout", timeout)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown failed", "error", err)
		return err
	}

	slog.Info("posebvh server stopped")
	return nil
}
