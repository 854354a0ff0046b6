package document

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidScene = errors.New("invalid scene")

// Validate checks that ids are unique across nodes and shapes, that every
// connection joins two existing objects, and that coordinates are finite.
func (s Scene) Validate() error {
	ids := make(map[string]bool, len(s.Nodes)+len(s.Shapes))
	check := func(f Footprint) error {
		if f.ID == "" {
			return fmt.Errorf("%w: object without id", ErrInvalidScene)
		}
		if ids[f.ID] {
			return fmt.Errorf("%w: duplicate id %q", ErrInvalidScene, f.ID)
		}
		for _, v := range []float64{f.X, f.Y, f.Width, f.Height, f.Rotation} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: %q has a non-finite coordinate", ErrInvalidScene, f.ID)
			}
		}
		if f.Width < 0 || f.Height < 0 {
			return fmt.Errorf("%w: %q has a negative size", ErrInvalidScene, f.ID)
		}
		ids[f.ID] = true
		return nil
	}
	for _, n := range s.Nodes {
		if err := check(n.Footprint); err != nil {
			return err
		}
	}
	for _, sh := range s.Shapes {
		if err := check(sh.Footprint); err != nil {
			return err
		}
	}

	seen := make(map[string]bool, len(s.Connections))
	for _, c := range s.Connections {
		switch {
		case c.ID == "" || seen[c.ID]:
			return fmt.Errorf("%w: missing or duplicate connection id %q", ErrInvalidScene, c.ID)
		case !ids[c.Source.ObjectID] || !ids[c.Target.ObjectID]:
			return fmt.Errorf("%w: connection %q has a dangling endpoint", ErrInvalidScene, c.ID)
		case c.Source.ObjectID == c.Target.ObjectID:
			return fmt.Errorf("%w: connection %q joins an object to itself", ErrInvalidScene, c.ID)
		case c.Type != "" && !c.Type.Valid():
			return fmt.Errorf("%w: connection %q has unknown type %q", ErrInvalidScene, c.ID, c.Type)
		}
		seen[c.ID] = true
	}
	return nil
}
