package typeid

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixProject    = "proj"
	PrefixNode       = "node"
	PrefixShape      = "shape"
	PrefixConnection = "conn"
	PrefixSession    = "sess"
)

func New(prefix string) string {
	id := typeid.MustGenerate(prefix)
	return id.String()
}

func NewProjectID() string    { return New(PrefixProject) }
func NewNodeID() string       { return New(PrefixNode) }
func NewShapeID() string      { return New(PrefixShape) }
func NewConnectionID() string { return New(PrefixConnection) }
func NewSessionID() string    { return New(PrefixSession) }

func Validate(id, expectedPrefix string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid typeid %q: %w", id, err)
	}
	if parsed.Prefix() != expectedPrefix {
		return fmt.Errorf("expected prefix %q but got %q in id %q", expectedPrefix, parsed.Prefix(), id)
	}
	return nil
}
