package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/codecanvas/codecanvas/internal/document"
	"github.com/codecanvas/codecanvas/internal/typeid"
)

// Project is a manifest entry: one canvas the user can open.
type Project struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"createdAt"`
	LastModified time.Time `json:"lastModified"`
}

// Canvas is the persisted state of one project.
type Canvas struct {
	Scene      document.Scene      `json:"scene"`
	Properties document.Properties `json:"properties"`
}

// CreateProject inserts a project with an empty scene and default
// properties.
func (db *DB) CreateProject(ctx context.Context, name string) (*Project, error) {
	now := time.Now().UTC()
	p := &Project{ID: typeid.NewProjectID(), Name: name, CreatedAt: now, LastModified: now}

	sceneJSON, err := json.Marshal(document.NewEmptyScene())
	if err != nil {
		return nil, fmt.Errorf("marshal empty scene: %w", err)
	}
	propsJSON, err := json.Marshal(document.DefaultProperties())
	if err != nil {
		return nil, fmt.Errorf("marshal default properties: %w", err)
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO projects (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		p.ID, p.Name, p.CreatedAt, p.LastModified,
	); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO canvases (project_id, scene_json, properties_json, updated_at) VALUES (?, ?, ?, ?)`,
		p.ID, string(sceneJSON), string(propsJSON), now,
	); err != nil {
		return nil, fmt.Errorf("create canvas: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return p, nil
}

func (db *DB) GetProject(ctx context.Context, id string) (*Project, error) {
	p := &Project{}
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, created_at, updated_at FROM projects WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.CreatedAt, &p.LastModified)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

// ListProjects returns every project, most recently modified first.
func (db *DB) ListProjects(ctx context.Context) ([]Project, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, created_at, updated_at FROM projects ORDER BY updated_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	projects := []Project{}
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt, &p.LastModified); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (db *DB) RenameProject(ctx context.Context, id, name string) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE projects SET name = ?, updated_at = ? WHERE id = ?`,
		name, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("rename project: %w", err)
	}
	return expectRow(res)
}

func (db *DB) DeleteProject(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return expectRow(res)
}

// LoadCanvas returns the stored scene and properties of a project.
func (db *DB) LoadCanvas(ctx context.Context, id string) (*Canvas, error) {
	var sceneJSON, propsJSON string
	err := db.conn.QueryRowContext(ctx,
		`SELECT scene_json, properties_json FROM canvases WHERE project_id = ?`, id,
	).Scan(&sceneJSON, &propsJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load canvas: %w", err)
	}

	c := &Canvas{Properties: document.DefaultProperties()}
	if err := json.Unmarshal([]byte(sceneJSON), &c.Scene); err != nil {
		return nil, fmt.Errorf("decode scene: %w", err)
	}
	if err := json.Unmarshal([]byte(propsJSON), &c.Properties); err != nil {
		return nil, fmt.Errorf("decode properties: %w", err)
	}
	if c.Properties.Viewport.Scale == 0 {
		c.Properties.Viewport = document.DefaultViewport()
	}
	return c, nil
}

// SaveCanvas replaces the stored scene and properties and bumps the project's
// modification time.
func (db *DB) SaveCanvas(ctx context.Context, id string, c *Canvas) error {
	sceneJSON, err := json.Marshal(c.Scene)
	if err != nil {
		return fmt.Errorf("marshal scene: %w", err)
	}
	propsJSON, err := json.Marshal(c.Properties)
	if err != nil {
		return fmt.Errorf("marshal properties: %w", err)
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`UPDATE canvases SET scene_json = ?, properties_json = ?, updated_at = ? WHERE project_id = ?`,
		string(sceneJSON), string(propsJSON), now, id,
	)
	if err != nil {
		return fmt.Errorf("save canvas: %w", err)
	}
	if err := expectRow(res); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE projects SET updated_at = ? WHERE id = ?`, now, id); err != nil {
		return fmt.Errorf("touch project: %w", err)
	}
	return tx.Commit()
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
