package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/halvore/scour/internal/config"
	"github.com/halvore/scour/internal/index"
	"github.com/halvore/scour/internal/search"
	"github.com/halvore/scour/internal/tui"
)

const (
	sColorReset   = "\033[0m"
	sColorBoldRed = "\033[1;31m"
	sColorBlue    = "\033[1;34m"
	sColorGreen   = "\033[1;32m"
	sColorDim     = "\033[2m"
)

func colorizeSource(source string) string {
	switch source {
	case "claude":
		return sColorBlue + source + sColorReset
	case "cursor":
		return sColorGreen + source + sColorReset
	default:
		return source
	}
}

func colorizeSnippet(snippet string) string {
	snippet = strings.ReplaceAll(snippet, ">>>", sColorBoldRed)
	snippet = strings.ReplaceAll(snippet, "<<<", sColorReset)
	return snippet
}

func searchCmd() *cobra.Command {
	var source, project, since string
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search across indexed conversations",
		Long: `Search indexed conversations using FTS5. Interactive TUI on a terminal;
TSV output when piped, for fzf integration:
  sessionKey, endTime, source, project, title, snippet

Recommended shell function (add to .zshrc):
  scf() {
    scour search "$*" | fzf \
      --ansi \
      --delimiter='\t' --with-nth=2.. \
      --preview 'scour preview {1} --query {q}' \
      --preview-window=right:60%:wrap \
      --preview-debounce=150
  }`,
		Args: cobra.ExactArgs(1),
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

			// Auto-update index before searching
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

			// Interactive TUI when stdout is a terminal; TSV output for pipes
			if term.IsTerminal(int(os.Stdout.Fd())) {
				return tui.Run(db, newLoader(cfg, anon), anon, args[0], opts)
			}

			opts.Query = args[0]
			results, err := search.Search(db, opts)
			if err != nil {
				return err
			}

			if len(results) == 0 {
				fmt.Fprintln(os.Stderr, "No results found.")
				return nil
			}

			for _, r := range results {
				snippet := strings.ReplaceAll(anon.Text(r.Snippet), "\t", " ")
				snippet = strings.ReplaceAll(snippet, "\n", " ")
				snippet = colorizeSnippet(snippet)
				title := strings.ReplaceAll(anon.Text(r.Title), "\t", " ")
				title = strings.ReplaceAll(title, "\n", " ")
				proj := anon.Text(r.Project)
				if proj == "" {
					proj = "-"
				}
				// first field (sessionKey) stays plain for fzf {1}
				fmt.Printf("%s\t%s%s%s\t%s\t%s\t%s\t%s\n",
					r.SessionKey,
					sColorDim, r.EndTime, sColorReset,
					colorizeSource(r.Source),
					proj,
					title,
					snippet,
				)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "Filter by source (claude/cursor)")
	cmd.Flags().StringVar(&project, "project", "", "Filter by project name")
	cmd.Flags().StringVar(&since, "since", "", "Filter sessions updated since date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&limit, "limit", 100, "Max results")

	return cmd
}
