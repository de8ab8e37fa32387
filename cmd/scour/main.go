package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/halvore/scour/internal/anonymize"
	"github.com/halvore/scour/internal/config"
	"github.com/halvore/scour/internal/render"
)

var version = "dev"

var (
	verbose bool
	logger  = zap.NewNop()
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "scour",
		Short:   "scour - search and anonymize Claude Code and Cursor conversation logs",
		Version: version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = newLogger(verbose)
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(indexCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(previewCmd())
	rootCmd.AddCommand(openCmd())
	rootCmd.AddCommand(projectsCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(doctorCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newLogger builds a console logger on stderr; debug level when verbose.
func newLogger(verbose bool) *zap.Logger {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	encCfg := zap.NewDevelopmentEncoderConfig()
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(os.Stderr),
		level,
	)
	return zap.New(core)
}

// displayAnonymizer builds the anonymizer applied to everything shown to
// the terminal or written to exports. The index itself stores raw text.
func displayAnonymizer(cfg *config.Config) *anonymize.Engine {
	return anonymize.New(cfg.RedactUsernames, logger)
}

// newLoader wires a session loader that re-parses from source with the
// display anonymizer.
func newLoader(cfg *config.Config, anon *anonymize.Engine) *render.Loader {
	return &render.Loader{
		CursorDB:        cfg.CursorDB,
		Anon:            anon,
		IncludeThinking: cfg.IncludeThinking,
	}
}
