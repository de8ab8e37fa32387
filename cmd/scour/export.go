package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/halvore/scour/internal/config"
	"github.com/halvore/scour/internal/export"
	"github.com/halvore/scour/internal/index"
	"github.com/halvore/scour/internal/search"
)

func exportCmd() *cobra.Command {
	var project, outDir string
	var compress bool

	cmd := &cobra.Command{
		Use:   "export [sessionKey]",
		Short: "Write anonymized session JSON to disk",
		Long: `Exports one session by key, or every indexed session of a project
with --project. Output is anonymized JSON; --compress produces .json.zst.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && project == "" {
				return fmt.Errorf("provide a sessionKey or --project")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			db, err := index.OpenDB(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			anon := displayAnonymizer(cfg)
			loader := newLoader(cfg, anon)
			opts := export.Options{Dir: outDir, Compress: compress}

			var keys []string
			if len(args) == 1 {
				keys = append(keys, args[0])
			} else {
				results, err := search.ListAll(db, search.Options{Project: project, Limit: 100000})
				if err != nil {
					return fmt.Errorf("list project sessions: %w", err)
				}
				if len(results) == 0 {
					return fmt.Errorf("no indexed sessions for project %q", project)
				}
				for _, r := range results {
					keys = append(keys, r.SessionKey)
				}
			}

			exported := 0
			for _, key := range keys {
				row, err := db.GetSessionByKey(key)
				if err != nil {
					return fmt.Errorf("get session: %w", err)
				}
				if row == nil {
					return fmt.Errorf("session not found: %s", key)
				}
				session, err := loader.Load(row.Source, row.FilePath, row.SessionID)
				if err != nil {
					fmt.Fprintf(os.Stderr, "skip %s: %v\n", key, err)
					continue
				}
				if session == nil {
					continue
				}
				session.Project = row.Project
				path, err := export.WriteSession(session, opts)
				if err != nil {
					return fmt.Errorf("export %s: %w", key, err)
				}
				fmt.Println(path)
				exported++
			}

			fmt.Fprintf(os.Stderr, "Exported %d session(s)\n", exported)
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Export all sessions of a project")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "Output directory")
	cmd.Flags().BoolVar(&compress, "compress", false, "Compress output with zstd")

	return cmd
}
