// Command anvild runs the anvil inspection daemon: an HTTP API over a live
// arena Manager and its SQLite dispatch-report store. With ANVIL_SIMULATE
// enabled it also drives a small synthetic workload so the API has data to
// show.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/seantiz/anvil"
	"github.com/seantiz/anvil/engine"
	"github.com/seantiz/anvil/internal/api"
	"github.com/seantiz/anvil/internal/config"
	"github.com/seantiz/anvil/internal/store"
)

const simulateInterval = 2 * time.Second

func main() {
	cfg := config.Load()
	logger := config.NewLogger(os.Stdout, cfg.LogLevel)

	logger.Info("anvild: starting",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"overrides", cfg.Overrides,
		"simulate", cfg.Simulate,
	)

	db, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	manager, err := anvil.New(
		anvil.WithEngine(engine.NewPoolEngine()),
		anvil.WithOverrides(cfg.Overrides),
		anvil.WithLogger(logger),
		anvil.WithSink(db),
	)
	if err != nil {
		log.Fatalf("failed to create manager: %v", err)
	}
	defer manager.Release()

	srv := api.NewServer(cfg.ListenAddr, manager, db, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Serve(ctx)
	})
	if cfg.Simulate {
		g.Go(func() error {
			simulate(ctx, manager, logger)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Fatalf("anvild: %v", err)
	}
}

// simulate issues periodic demo dispatches until ctx is canceled.
func simulate(ctx context.Context, m *anvil.Manager, logger *slog.Logger) {
	ticker := time.NewTicker(simulateInterval)
	defer ticker.Stop()

	arenas := []struct {
		name  string
		items int
	}{
		{"demo_small", 64},
		{"demo_large", 4096},
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		for _, a := range arenas {
			err := m.ParallelFor(a.name, 0, a.items, func(i int) error {
				// Burn a little CPU per item so dispatch durations are
				// visible in the metrics.
				acc := i
				for n := 0; n < 100; n++ {
					acc = acc*31 + 7
				}
				_ = acc
				return nil
			})
			if err != nil {
				logger.Error("simulated dispatch failed", "arena", a.name, "error", err)
			}
		}
	}
}
