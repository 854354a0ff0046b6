package main

import (
	"github.com/spf13/cobra"

	"github.com/codecanvas/codecanvas/internal/config"
	"github.com/codecanvas/codecanvas/internal/engine"
)

func newRenderCmd(root *rootOptions, cfg *config.Config) *cobra.Command {
	var (
		source        canvasSource
		width, height int
	)

	cmd := &cobra.Command{
		Use:   "render FILE.png",
		Short: "Render a canvas at its saved viewport to PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := loggerFrom(ctx)

			canvas, db, err := source.load(ctx, root)
			if err != nil {
				return err
			}
			if db != nil {
				db.Close()
			}

			e := engine.NewEngine(cfg.EngineOptions(log))
			e.Load(canvas.Scene, canvas.Properties)
			e.SetScreenSize(float64(width), float64(height))

			cmds := e.DrawCommands()
			if err := writePNGFile(args[0], cmds, float64(width), float64(height)); err != nil {
				return err
			}
			log.Info("rendered", "file", args[0], "commands", len(cmds), "width", width, "height", height)
			return nil
		},
	}

	source.addFlags(cmd)
	cmd.Flags().IntVar(&width, "width", defaultPNGWidth, "image width in pixels")
	cmd.Flags().IntVar(&height, "height", defaultPNGHeight, "image height in pixels")
	return cmd
}
