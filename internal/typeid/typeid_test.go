package typeid

import (
	"strings"
	"testing"
)

func TestNewCarriesPrefix(t *testing.T) {
	tests := []struct {
		gen    func() string
		prefix string
	}{
		{NewProjectID, PrefixProject},
		{NewNodeID, PrefixNode},
		{NewShapeID, PrefixShape},
		{NewConnectionID, PrefixConnection},
		{NewSessionID, PrefixSession},
	}
	for _, tt := range tests {
		id := tt.gen()
		if !strings.HasPrefix(id, tt.prefix+"_") {
			t.Errorf("id %q lacks prefix %q", id, tt.prefix)
		}
		if err := Validate(id, tt.prefix); err != nil {
			t.Errorf("Validate(%q): %v", id, err)
		}
	}
	if a, b := NewNodeID(), NewNodeID(); a == b {
		t.Errorf("ids repeat: %s", a)
	}
}

func TestValidateRejects(t *testing.T) {
	if err := Validate(NewNodeID(), PrefixProject); err == nil {
		t.Error("accepted a node id as a project id")
	}
	for _, id := range []string{"", "proj_missing", "not an id"} {
		if err := Validate(id, PrefixProject); err == nil {
			t.Errorf("accepted %q", id)
		}
	}
}
