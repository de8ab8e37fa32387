package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/halvore/scour/internal/config"
	"github.com/halvore/scour/internal/scan"
)

func projectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List discovered projects with session counts and sizes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			projects, err := scan.Projects(cfg.ClaudeRoot, cfg.CursorDB)
			if err != nil {
				return fmt.Errorf("scan projects: %w", err)
			}

			if len(projects) == 0 {
				fmt.Println("No projects found.")
				return nil
			}

			anon := displayAnonymizer(cfg)

			fmt.Printf("%-40s %-8s %8s %12s\n", "PROJECT", "SOURCE", "SESSIONS", "SIZE")
			for _, p := range projects {
				fmt.Printf("%-40s %-8s %8d %12s\n",
					anon.Text(p.DisplayName),
					p.Source,
					p.SessionCount,
					humanSize(p.TotalSizeBytes),
				)
			}
			return nil
		},
	}
}

func humanSize(n int64) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(n)/(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
