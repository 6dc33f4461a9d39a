package mapgen

import (
	"github.com/vovakirdan/civcore/internal/registry"
	"github.com/vovakirdan/civcore/internal/tiles"
)

func init() {
	registry.Register("islands", func() registry.Generator { return Islands{} })
	registry.Register("bands", func() registry.Generator { return Bands{} })
}

// Islands generates scattered landmasses from five octaves of noise.
type Islands struct{}

func (Islands) ID() string    { return "islands" }
func (Islands) Title() string { return "Fractal islands" }

func (Islands) Generate(p registry.Params) (*tiles.Grid, error) {
	if err := checkParams(p); err != nil {
		return nil, err
	}
	return build(p, heightField(p, 5, 0.08))
}

// Bands generates broad smooth terrain regions from a single octave.
type Bands struct{}

func (Bands) ID() string    { return "bands" }
func (Bands) Title() string { return "Smooth terrain bands" }

func (Bands) Generate(p registry.Params) (*tiles.Grid, error) {
	if err := checkParams(p); err != nil {
		return nil, err
	}
	return build(p, heightField(p, 1, 0.05))
}
