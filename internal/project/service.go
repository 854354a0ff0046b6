package project

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/codecanvas/codecanvas/internal/document"
	"github.com/codecanvas/codecanvas/internal/store"
	"github.com/codecanvas/codecanvas/internal/typeid"
)

var (
	ErrNotFound = errors.New("project not found")
	ErrInvalid  = errors.New("invalid request")
	ErrOpen     = errors.New("project is open in a live session")
)

const maxNameLength = 200

// Repository is the persistence the service needs. *store.DB satisfies it.
type Repository interface {
	CreateProject(ctx context.Context, name string) (*store.Project, error)
	GetProject(ctx context.Context, id string) (*store.Project, error)
	ListProjects(ctx context.Context) ([]store.Project, error)
	RenameProject(ctx context.Context, id, name string) error
	DeleteProject(ctx context.Context, id string) error
	LoadCanvas(ctx context.Context, id string) (*store.Canvas, error)
	SaveCanvas(ctx context.Context, id string, c *store.Canvas) error
}

// Sessions reports which projects have a live editing session. Writes to a
// project's canvas are refused while it does, since the session would
// overwrite them on its next save.
type Sessions interface {
	Active(projectID string) bool
}

type Service struct {
	repo     Repository
	sessions Sessions
}

func NewService(repo Repository, sessions Sessions) *Service {
	return &Service{repo: repo, sessions: sessions}
}

// Create adds a project. With sample set the canvas starts with the demo
// scene instead of an empty one.
func (s *Service) Create(ctx context.Context, name string, sample bool) (*store.Project, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}

	p, err := s.repo.CreateProject(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	if sample {
		c := &store.Canvas{Scene: document.NewSampleScene(), Properties: document.DefaultProperties()}
		if err := s.repo.SaveCanvas(ctx, p.ID, c); err != nil {
			return nil, fmt.Errorf("seed sample scene: %w", err)
		}
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, projectID string) (*store.Project, error) {
	if err := checkID(projectID); err != nil {
		return nil, err
	}
	p, err := s.repo.GetProject(ctx, projectID)
	if err != nil {
		return nil, mapStoreError(err, "get project")
	}
	return p, nil
}

func (s *Service) List(ctx context.Context) ([]store.Project, error) {
	projects, err := s.repo.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

func (s *Service) Rename(ctx context.Context, projectID, name string) (*store.Project, error) {
	if err := checkID(projectID); err != nil {
		return nil, err
	}
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	if err := s.repo.RenameProject(ctx, projectID, name); err != nil {
		return nil, mapStoreError(err, "rename project")
	}
	return s.Get(ctx, projectID)
}

func (s *Service) Delete(ctx context.Context, projectID string) error {
	if err := checkID(projectID); err != nil {
		return err
	}
	if s.sessions != nil && s.sessions.Active(projectID) {
		return ErrOpen
	}
	return mapStoreError(s.repo.DeleteProject(ctx, projectID), "delete project")
}

func (s *Service) GetCanvas(ctx context.Context, projectID string) (*store.Canvas, error) {
	if err := checkID(projectID); err != nil {
		return nil, err
	}
	c, err := s.repo.LoadCanvas(ctx, projectID)
	if err != nil {
		return nil, mapStoreError(err, "load canvas")
	}
	return c, nil
}

// PutCanvas replaces a project's canvas, e.g. when importing a file.
func (s *Service) PutCanvas(ctx context.Context, projectID string, c *store.Canvas) error {
	if err := checkID(projectID); err != nil {
		return err
	}
	if s.sessions != nil && s.sessions.Active(projectID) {
		return ErrOpen
	}
	if c.Scene.Nodes == nil {
		c.Scene.Nodes = []document.Node{}
	}
	if c.Scene.Connections == nil {
		c.Scene.Connections = []document.Connection{}
	}
	if c.Scene.Shapes == nil {
		c.Scene.Shapes = []document.Shape{}
	}
	if err := c.Scene.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if c.Properties.Viewport.Scale <= 0 {
		c.Properties.Viewport = document.DefaultViewport()
	}
	return mapStoreError(s.repo.SaveCanvas(ctx, projectID, c), "save canvas")
}

// checkID rejects ids that are not project typeids before they reach the
// store.
func checkID(id string) error {
	if typeid.Validate(id, typeid.PrefixProject) != nil {
		return ErrNotFound
	}
	return nil
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return "", fmt.Errorf("%w: name is required", ErrInvalid)
	case len(name) > maxNameLength:
		return "", fmt.Errorf("%w: name is longer than %d bytes", ErrInvalid, maxNameLength)
	}
	return name, nil
}

func mapStoreError(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
