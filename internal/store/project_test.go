package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/codecanvas/codecanvas/internal/document"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "nested", "canvas.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCreateAndLoadEmptyCanvas(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	p, err := db.CreateProject(ctx, "Scratch")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if p.ID == "" || p.Name != "Scratch" {
		t.Errorf("project = %+v", p)
	}

	c, err := db.LoadCanvas(ctx, p.ID)
	if err != nil {
		t.Fatalf("LoadCanvas: %v", err)
	}
	if len(c.Scene.Nodes) != 0 || c.Scene.Nodes == nil {
		t.Errorf("nodes = %#v, want empty slice", c.Scene.Nodes)
	}
	if c.Properties.Viewport.Scale != 1 {
		t.Errorf("viewport = %+v, want default", c.Properties.Viewport)
	}
	if c.Properties.BackgroundPattern != "dots" {
		t.Errorf("background = %q, want dots", c.Properties.BackgroundPattern)
	}
}

func TestSaveCanvasRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	p, _ := db.CreateProject(ctx, "Diagram")

	scene := document.NewSampleScene()
	props := document.DefaultProperties()
	props.Viewport = document.Viewport{Scale: 1.5, OffsetX: -20, OffsetY: 40}

	if err := db.SaveCanvas(ctx, p.ID, &Canvas{Scene: scene, Properties: props}); err != nil {
		t.Fatalf("SaveCanvas: %v", err)
	}

	got, err := db.LoadCanvas(ctx, p.ID)
	if err != nil {
		t.Fatalf("LoadCanvas: %v", err)
	}
	if len(got.Scene.Nodes) != len(scene.Nodes) || len(got.Scene.Connections) != len(scene.Connections) {
		t.Errorf("scene = %d nodes %d connections, want %d %d",
			len(got.Scene.Nodes), len(got.Scene.Connections), len(scene.Nodes), len(scene.Connections))
	}
	if got.Scene.Connections[0].Source != scene.Connections[0].Source {
		t.Errorf("source = %+v, want %+v", got.Scene.Connections[0].Source, scene.Connections[0].Source)
	}
	if got.Properties.Viewport != props.Viewport {
		t.Errorf("viewport = %+v, want %+v", got.Properties.Viewport, props.Viewport)
	}

	after, _ := db.GetProject(ctx, p.ID)
	if after.LastModified.Before(p.LastModified) {
		t.Errorf("lastModified went backwards: %v < %v", after.LastModified, p.LastModified)
	}
}

func TestListRenameDelete(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	a, _ := db.CreateProject(ctx, "A")
	b, _ := db.CreateProject(ctx, "B")

	list, err := db.ListProjects(ctx)
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len = %d, want 2", len(list))
	}

	if err := db.RenameProject(ctx, a.ID, "Renamed"); err != nil {
		t.Fatalf("RenameProject: %v", err)
	}
	got, _ := db.GetProject(ctx, a.ID)
	if got.Name != "Renamed" {
		t.Errorf("name = %q, want Renamed", got.Name)
	}

	if err := db.DeleteProject(ctx, b.ID); err != nil {
		t.Fatalf("DeleteProject: %v", err)
	}
	if _, err := db.LoadCanvas(ctx, b.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadCanvas after delete: err = %v, want ErrNotFound", err)
	}
	list, _ = db.ListProjects(ctx)
	if len(list) != 1 || list[0].ID != a.ID {
		t.Errorf("list = %+v, want only %s", list, a.ID)
	}
}

func TestMissingProject(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	tests := []struct {
		name string
		fn   func() error
	}{
		{"get", func() error { _, err := db.GetProject(ctx, "proj_missing"); return err }},
		{"load", func() error { _, err := db.LoadCanvas(ctx, "proj_missing"); return err }},
		{"save", func() error {
			return db.SaveCanvas(ctx, "proj_missing", &Canvas{Scene: document.NewEmptyScene()})
		}},
		{"rename", func() error { return db.RenameProject(ctx, "proj_missing", "x") }},
		{"delete", func() error { return db.DeleteProject(ctx, "proj_missing") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); !errors.Is(err, ErrNotFound) {
				t.Errorf("err = %v, want ErrNotFound", err)
			}
		})
	}
}
