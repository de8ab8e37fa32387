package main

import (
	"github.com/spf13/cobra"

	"github.com/halvore/scour/internal/config"
	"github.com/halvore/scour/internal/index"
	"github.com/halvore/scour/internal/open"
)

func openCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open <sessionKey>",
		Short: "Open the original JSONL file in $EDITOR (claude sessions only)",
		Args:  cobra.ExactArgs(1),
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

			return open.OpenSession(db, args[0])
		},
	}
}
