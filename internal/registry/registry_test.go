package registry

import (
	"testing"

	"github.com/vovakirdan/civcore/internal/tiles"
)

type stubGenerator struct{}

func (stubGenerator) ID() string    { return "stub" }
func (stubGenerator) Title() string { return "Stub" }
func (stubGenerator) Generate(p Params) (*tiles.Grid, error) {
	return tiles.NewGrid(p.Width, p.Height, p.Topology, p.Vocabulary, 0)
}

func TestRegisterAndCreate(t *testing.T) {
	Register("stub", func() Generator { return stubGenerator{} })

	if !Exists("stub") {
		t.Fatal("stub should be registered")
	}
	g, err := Create("stub")
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if g.ID() != "stub" {
		t.Errorf("ID() = %q", g.ID())
	}

	found := false
	for _, info := range List() {
		if info.ID == "stub" && info.Title == "Stub" {
			found = true
		}
	}
	if !found {
		t.Error("List() should include stub")
	}

	if _, err := Create("nope"); err == nil {
		t.Error("expected error for unknown generator")
	}

	defer func() {
		if recover() == nil {
			t.Error("registering the same id twice should panic")
		}
	}()
	Register("stub", func() Generator { return stubGenerator{} })
}
