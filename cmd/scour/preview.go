package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/halvore/scour/internal/config"
	"github.com/halvore/scour/internal/index"
	"github.com/halvore/scour/internal/render"
)

func previewCmd() *cobra.Command {
	var query string
	var width int

	cmd := &cobra.Command{
		Use:   "preview <sessionKey>",
		Short: "Print an anonymized conversation transcript",
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

			row, err := db.GetSessionByKey(args[0])
			if err != nil {
				return fmt.Errorf("get session: %w", err)
			}
			if row == nil {
				return fmt.Errorf("session not found: %s", args[0])
			}

			anon := displayAnonymizer(cfg)
			session, err := newLoader(cfg, anon).Load(row.Source, row.FilePath, row.SessionID)
			if err != nil {
				return fmt.Errorf("load session: %w", err)
			}
			if session == nil {
				fmt.Println("(empty session)")
				return nil
			}

			out, _ := render.Conversation(session, render.Options{
				Width: width,
				Query: query,
			})
			fmt.Print(out)
			return nil
		},
	}

	cmd.Flags().StringVar(&query, "query", "", "Search query for keyword highlighting")
	cmd.Flags().IntVar(&width, "width", 0, "Wrap width (0 = no wrap)")

	return cmd
}
