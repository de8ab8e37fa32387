package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/halvore/scour/internal/config"
	"github.com/halvore/scour/internal/index"
	"github.com/halvore/scour/internal/watch"
)

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch sources and keep the index up to date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			db, err := index.OpenDB(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			indexOpts := index.Options{
				ClaudeRoot:       cfg.ClaudeRoot,
				CursorDB:         cfg.CursorDB,
				MaxContentLength: cfg.MaxContentLength,
				Log:              logger,
			}

			// bring the index current before watching
			if stats, err := index.IndexAll(db, indexOpts); err != nil {
				return fmt.Errorf("initial index: %w", err)
			} else {
				fmt.Fprintf(os.Stderr, "Indexed. %s\n", stats)
			}

			reindex := func() {
				stats, err := index.IndexAll(db, indexOpts)
				if err != nil {
					logger.Warn("reindex failed", zap.Error(err))
					return
				}
				fmt.Fprintf(os.Stderr, "Reindexed. %s\n", stats)
			}

			ctx, stop := signal.NotifyContext(context.Background(),
				os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Fprintln(os.Stderr, "Watching for changes (Ctrl-C to stop)...")
			w := watch.New(cfg.ClaudeRoot, cfg.CursorDB, reindex, logger)
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}
