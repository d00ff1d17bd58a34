package core

// scheduler.go runs periodic maintenance:
//  1. delete import history older than the retention window
//  2. drop expired diff sessions
//
// Failures are logged and retried on the next tick; they never stop the
// server.

import (
	"context"
	"log/slog"
	"time"

	"github.com/JonMunkholm/pfcatalog/internal/store"
)

// PruneConfig holds settings for the import pruner.
type PruneConfig struct {
	Retention     time.Duration // import history age limit (default: 720h)
	CheckInterval time.Duration // how often to run (default: 24h)
}

func (c *PruneConfig) setDefaults() {
	if c.Retention <= 0 {
		c.Retention = 30 * 24 * time.Hour
	}
	if c.CheckInterval <= 0 {
		c.CheckInterval = 24 * time.Hour
	}
}

// StartImportPruner runs the maintenance job now and then every
// CheckInterval until ctx is cancelled. Run it in its own goroutine.
func (s *Service) StartImportPruner(ctx context.Context, cfg PruneConfig) {
	cfg.setDefaults()
	slog.Info("import pruner started",
		"retention", cfg.Retention.String(),
		"interval", cfg.CheckInterval.String(),
	)

	s.runPruneJob(ctx, cfg)

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("import pruner stopped")
			return
		case <-ticker.C:
			s.runPruneJob(ctx, cfg)
		}
	}
}

// runPruneJob performs one maintenance cycle.
func (s *Service) runPruneJob(ctx context.Context, cfg PruneConfig) {
	start := time.Now()

	cutoff := s.now().Add(-cfg.Retention)
	pruned, err := store.New(s.db).PruneImports(ctx, cutoff)
	if err != nil {
		slog.Error("prune imports failed", "error", err)
	} else {
		slog.Info("pruned import history",
			"imports_deleted", pruned,
			"cutoff", cutoff.Format(time.RFC3339),
		)
	}

	if n := s.ExpireSessions(); n > 0 {
		slog.Info("expired diff sessions", "sessions", n)
	}

	slog.Debug("prune job completed", "duration_ms", time.Since(start).Milliseconds())
}
