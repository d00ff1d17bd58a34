package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/pfcatalog/internal/config"
	"github.com/JonMunkholm/pfcatalog/internal/core"
	"github.com/JonMunkholm/pfcatalog/internal/logging"
	"github.com/JonMunkholm/pfcatalog/internal/playfab"
	"github.com/JonMunkholm/pfcatalog/internal/store"
	"github.com/JonMunkholm/pfcatalog/internal/web"
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
		"port", cfg.Server.Port,
		"catalog_version", cfg.Catalog.DefaultVersion,
		"db_max_conns", cfg.Database.MaxConns,
		"import_max_concurrent", cfg.Import.MaxConcurrent,
		"playfab_enabled", cfg.PlayFab.Enabled(),
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	ctx := context.Background()
	pool, err := store.Open(ctx, store.PoolConfig{
		URL:             cfg.Database.URL,
		MaxConns:        int32(cfg.Database.MaxConns),
		MinConns:        int32(cfg.Database.MinConns),
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
	})
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if u, err := url.Parse(cfg.Database.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}

	if err := store.Migrate(ctx, pool); err != nil {
		slog.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	// remote stays a nil interface when PlayFab is not configured.
	var remote core.Remote
	if cfg.PlayFab.Enabled() {
		client, err := playfab.NewClient(playfab.Options{
			TitleID:    cfg.PlayFab.TitleID,
			SecretKey:  cfg.PlayFab.SecretKey,
			BaseURL:    cfg.PlayFab.BaseURL,
			Timeout:    cfg.PlayFab.Timeout,
			MaxRetries: cfg.PlayFab.MaxRetries,
		})
		if err != nil {
			slog.Error("failed to create PlayFab client", "error", err)
			os.Exit(1)
		}
		remote = client
		slog.Info("PlayFab enabled", "title_id", client.TitleID())
	} else {
		slog.Warn("PlayFab credentials not set, push and remote compare are disabled")
	}

	service := core.NewService(pool, remote, core.Options{
		CatalogVersion:      cfg.Catalog.DefaultVersion,
		SetAsDefaultCatalog: cfg.Catalog.SetAsDefaultCatalog,
		MaxFileSize:         cfg.Import.MaxFileSize,
		ImportTimeout:       cfg.Import.Timeout,
		MaxConcurrent:       cfg.Import.MaxConcurrent,
		MaxWaitTime:         cfg.Import.MaxWaitTime,
		SessionTTL:          cfg.Diff.SessionTTL,
		MaxSessions:         cfg.Diff.MaxSessions,
	})

	server := web.NewServer(service, cfg)

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go service.StartImportPruner(jobCtx, core.PruneConfig{
		Retention:     cfg.Import.Retention,
		CheckInterval: cfg.Import.PruneInterval,
	})

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Let running imports and pushes finish first.
		if status := service.Limiter().Status(); status.Active > 0 {
			slog.Info("waiting for operations to complete", "active", status.Active)
			if err := service.Limiter().WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("operations did not complete in time", "error", err)
			} else {
				slog.Info("all operations completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}
