package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/codecanvas/codecanvas/internal/config"
	"github.com/codecanvas/codecanvas/internal/document"
	"github.com/codecanvas/codecanvas/internal/engine"
	"github.com/codecanvas/codecanvas/internal/replay"
	"github.com/codecanvas/codecanvas/internal/snapshot"
	"github.com/codecanvas/codecanvas/internal/store"
)

const (
	defaultPNGWidth  = 1280
	defaultPNGHeight = 800
)

type replayOptions struct {
	source  canvasSource
	save    bool
	outPath string
	pngPath string
	watch   bool
}

func newReplayCmd(root *rootOptions, cfg *config.Config) *cobra.Command {
	opts := &replayOptions{}

	cmd := &cobra.Command{
		Use:   "replay SCRIPT",
		Short: "Run a TOML gesture script against a canvas",
		Long: `Replay feeds the steps of a TOML script to a fresh engine and prints the
resulting state. The starting canvas comes from --scene (a JSON canvas file),
--project (a project in the database), --sample, or is empty.

With --watch the script is replayed again every time it is saved.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			err := runReplay(ctx, cmd.OutOrStdout(), root, cfg, opts, args[0])
			if !opts.watch {
				return err
			}
			log := loggerFrom(ctx)
			if err != nil {
				log.Error("replay failed", "error", err)
			}
			return watchFile(ctx, args[0], log, func() {
				if err := runReplay(ctx, cmd.OutOrStdout(), root, cfg, opts, args[0]); err != nil {
					log.Error("replay failed", "error", err)
				}
			})
		},
	}

	opts.source.addFlags(cmd)
	cmd.Flags().BoolVar(&opts.save, "save", false, "write the result back to --project")
	cmd.Flags().StringVarP(&opts.outPath, "out", "o", "", "write the resulting canvas JSON to a file")
	cmd.Flags().StringVar(&opts.pngPath, "png", "", "also render the final frame to a PNG file")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "replay again whenever the script changes")

	return cmd
}

func runReplay(ctx context.Context, w io.Writer, root *rootOptions, cfg *config.Config, opts *replayOptions, path string) error {
	log := loggerFrom(ctx)
	start := time.Now()

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	script, err := replay.Parse(f)
	f.Close()
	if err != nil {
		return err
	}

	canvas, db, err := opts.source.load(ctx, root)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	e := engine.NewEngine(cfg.EngineOptions(log))
	e.Load(canvas.Scene, canvas.Properties)

	res, err := replay.Run(e, script, log)
	if err != nil {
		return err
	}
	log.Info("replay finished", "steps", res.Steps, "revision", res.Revision,
		"elapsed", time.Since(start).Round(time.Millisecond))

	out := &store.Canvas{Scene: e.Scene(), Properties: e.Properties()}
	if opts.save && db != nil {
		if err := db.SaveCanvas(ctx, opts.source.projectID, out); err != nil {
			return err
		}
		log.Info("saved", "project", opts.source.projectID)
	}
	if opts.pngPath != "" {
		if err := writePNGFile(opts.pngPath, e.DrawCommands(), script.Screen.Width, script.Screen.Height); err != nil {
			return err
		}
	}
	if opts.outPath != "" {
		return writeJSONFile(opts.outPath, out)
	}
	return printJSON(w, res.State)
}

func readCanvas(path string) (*store.Canvas, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := &store.Canvas{Properties: document.DefaultProperties()}
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := c.Scene.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if c.Properties.Viewport.Scale <= 0 {
		c.Properties.Viewport = document.DefaultViewport()
	}
	return c, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func writePNGFile(path string, cmds []engine.DrawCommand, width, height float64) error {
	if width <= 0 || height <= 0 {
		width, height = defaultPNGWidth, defaultPNGHeight
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := snapshot.WritePNG(f, cmds, int(width), int(height)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
