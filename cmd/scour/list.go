package main

import (
	"github.com/spf13/cobra"

	"github.com/halvore/scour/internal/config"
	"github.com/halvore/scour/internal/index"
	"github.com/halvore/scour/internal/search"
	"github.com/halvore/scour/internal/tui"
)

func listCmd() *cobra.Command {
	var source, project, since string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Browse all sessions sorted by update time",
		Long:  `Opens a TUI panel showing all indexed sessions sorted by update time (newest first). Type to filter across conversation content.`,
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

			index.IndexAll(db, index.Options{
				ClaudeRoot:       cfg.ClaudeRoot,
				CursorDB:         cfg.CursorDB,
				MaxContentLength: cfg.MaxContentLength,
				Log:              logger,
			})

			anon := displayAnonymizer(cfg)

			opts := search.Options{
				Source:  source,
				Project: project,
				Since:   since,
				Limit:   limit,
			}

			return tui.RunList(db, newLoader(cfg, anon), anon, opts)
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "Filter by source (claude/cursor)")
	cmd.Flags().StringVar(&project, "project", "", "Filter by project name")
	cmd.Flags().StringVar(&since, "since", "", "Filter sessions updated since date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Max results (0 = no limit)")

	return cmd
}
