package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codecanvas/codecanvas/internal/document"
	"github.com/codecanvas/codecanvas/internal/store"
)

// canvasSource is the --scene/--project/--sample flag group shared by the
// commands that start from an existing canvas.
type canvasSource struct {
	scenePath string
	projectID string
	sample    bool
}

func (s *canvasSource) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.scenePath, "scene", "", "start from a canvas JSON file")
	cmd.Flags().StringVar(&s.projectID, "project", "", "start from a stored project")
	cmd.Flags().BoolVar(&s.sample, "sample", false, "start from the sample scene")
	cmd.MarkFlagsMutuallyExclusive("scene", "project", "sample")
}

// load returns the selected canvas, or an empty one when no flag is set. The
// database is opened only for --project and is returned so the caller can
// write back; it is nil otherwise.
func (s *canvasSource) load(ctx context.Context, root *rootOptions) (*store.Canvas, *store.DB, error) {
	canvas := &store.Canvas{Scene: document.NewEmptyScene(), Properties: document.DefaultProperties()}
	switch {
	case s.scenePath != "":
		c, err := readCanvas(s.scenePath)
		return c, nil, err
	case s.projectID != "":
		db, err := root.openStore()
		if err != nil {
			return nil, nil, err
		}
		c, err := db.LoadCanvas(ctx, s.projectID)
		if err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("load project %s: %w", s.projectID, err)
		}
		return c, db, nil
	case s.sample:
		canvas.Scene = document.NewSampleScene()
	}
	return canvas, nil, nil
}
