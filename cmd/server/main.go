package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/statstable/internal/config"
	"github.com/JonMunkholm/statstable/internal/csvtable"
	"github.com/JonMunkholm/statstable/internal/logging"
	"github.com/JonMunkholm/statstable/internal/web"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"addr", cfg.Server.Addr(),
		"source", cfg.Source.URL,
		"public_dir", cfg.Server.PublicDir,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)
	slog.Debug("effective configuration", "config", cfg.String())

	src, err := csvtable.NewSource(cfg.Source.URL, csvtable.SourceOptions{
		BaseURL:  cfg.ResolvedBaseURL(),
		Client:   &http.Client{Timeout: cfg.Source.Timeout},
		S3Region: cfg.Source.S3Region,
	})
	if err != nil {
		slog.Error("invalid source", "source", cfg.Source.URL, "error", err)
		os.Exit(1)
	}
	slog.Info("csv source", "location", src.String())

	service := csvtable.NewService(src, csvtable.Options{
		Timeout:  cfg.Source.Timeout,
		MaxBytes: cfg.Source.MaxBytes,
	})
	server := web.NewServer(service, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
