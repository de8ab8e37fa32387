package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/halvore/scour/internal/config"
	"github.com/halvore/scour/internal/index"
	"github.com/halvore/scour/internal/scan"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Self-check: verify sources, DB, FTS5, and show stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}

			// check sources
			fmt.Println("=== Sources ===")
			checkDir("Claude root", cfg.ClaudeRoot)
			checkFile("Cursor store", cfg.CursorDB)

			// scan counts
			fmt.Println("\n=== Session Scan ===")
			refs, err := scan.ScanAll(cfg.ClaudeRoot, cfg.CursorDB)
			if err != nil {
				fmt.Printf("  scan error: %v\n", err)
			} else {
				claudeCount, cursorCount := 0, 0
				for _, r := range refs {
					if r.Source == "claude" {
						claudeCount++
					} else {
						cursorCount++
					}
				}
				fmt.Printf("  Claude sessions: %d\n", claudeCount)
				fmt.Printf("  Cursor sessions: %d\n", cursorCount)
			}

			// check DB
			fmt.Println("\n=== Database ===")
			fmt.Printf("  Path: %s\n", cfg.DBPath)
			if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
				fmt.Println("  Status: NOT FOUND (run 'scour index' first)")
				return nil
			}

			db, err := index.OpenDB(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.Close()

			sessionCount, err := db.SessionCount()
			if err != nil {
				return fmt.Errorf("count sessions: %w", err)
			}

			docCount, err := db.DocCount()
			if err != nil {
				return fmt.Errorf("count docs: %w", err)
			}

			fmt.Printf("  Sessions:  %d\n", sessionCount)
			fmt.Printf("  Documents: %d\n", docCount)

			// check FTS5
			fmt.Println("\n=== FTS5 ===")
			var ftsCount int
			err = db.Raw().QueryRow("SELECT COUNT(*) FROM docs_fts").Scan(&ftsCount)
			if err != nil {
				fmt.Printf("  FTS5 error: %v\n", err)
			} else {
				fmt.Printf("  FTS5 entries: %d\n", ftsCount)
				if ftsCount == docCount {
					fmt.Println("  Status: OK (synced)")
				} else {
					fmt.Printf("  Status: MISMATCH (docs=%d, fts=%d)\n", docCount, ftsCount)
				}
			}

			// check DB file size
			if info, err := os.Stat(cfg.DBPath); err == nil {
				sizeMB := float64(info.Size()) / 1024 / 1024
				fmt.Printf("\n=== DB Size: %.1f MB ===\n", sizeMB)
			}

			return nil
		},
	}
}

func checkDir(name, path string) {
	if info, err := os.Stat(path); err != nil {
		fmt.Printf("  %s: %s (NOT FOUND)\n", name, path)
	} else if !info.IsDir() {
		fmt.Printf("  %s: %s (NOT A DIRECTORY)\n", name, path)
	} else {
		fmt.Printf("  %s: %s (OK)\n", name, path)
	}
}

func checkFile(name, path string) {
	if info, err := os.Stat(path); err != nil {
		fmt.Printf("  %s: %s (NOT FOUND)\n", name, path)
	} else if info.IsDir() {
		fmt.Printf("  %s: %s (IS A DIRECTORY)\n", name, path)
	} else {
		fmt.Printf("  %s: %s (OK)\n", name, path)
	}
}
