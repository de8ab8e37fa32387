package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/halvore/scour/internal/config"
	"github.com/halvore/scour/internal/index"
)

func indexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Scan and index Claude Code and Cursor conversation logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			db, err := index.OpenDB(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.Close()

			fmt.Fprintf(os.Stderr, "Scanning sources...\n")
			fmt.Fprintf(os.Stderr, "  Claude: %s\n", cfg.ClaudeRoot)
			fmt.Fprintf(os.Stderr, "  Cursor: %s\n", cfg.CursorDB)

			stats, err := index.IndexAll(db, index.Options{
				ClaudeRoot:       cfg.ClaudeRoot,
				CursorDB:         cfg.CursorDB,
				MaxContentLength: cfg.MaxContentLength,
				Log:              logger,
			})
			if err != nil {
				return fmt.Errorf("index: %w", err)
			}

			fmt.Fprintf(os.Stderr, "Done. %s\n", stats)
			return nil
		},
	}
}
