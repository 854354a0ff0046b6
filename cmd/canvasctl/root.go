package main

import (
	"context"
	"io"
	"log/slog"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/codecanvas/codecanvas/internal/config"
	"github.com/codecanvas/codecanvas/internal/store"
)

type ctxKey int

const loggerKey ctxKey = 0

func newLogger(w io.Writer, level charmlog.Level) *charmlog.Logger {
	return charmlog.NewWithOptions(w, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// loggerFrom returns the command's logger as a *slog.Logger so it can be
// handed to the engine and store.
func loggerFrom(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*charmlog.Logger); ok {
		return slog.New(l)
	}
	return slog.New(charmlog.Default())
}

type rootOptions struct {
	verbose bool
	dbPath  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	defaults, err := config.Load()
	if err != nil {
		defaults = &config.Config{DatabasePath: "./data/canvas.db"}
	}

	root := &cobra.Command{
		Use:          "canvasctl",
		Short:        "Inspect, replay and render canvas projects",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if opts.verbose {
				level = charmlog.DebugLevel
			}
			cmd.SetContext(context.WithValue(cmd.Context(), loggerKey, newLogger(os.Stderr, level)))
		},
	}

	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&opts.dbPath, "db", defaults.DatabasePath, "path to the canvas database")

	root.AddCommand(newReplayCmd(opts, defaults))
	root.AddCommand(newRenderCmd(opts, defaults))
	root.AddCommand(newProjectsCmd(opts))

	return root
}

func (o *rootOptions) openStore() (*store.DB, error) {
	return store.New(o.dbPath)
}
