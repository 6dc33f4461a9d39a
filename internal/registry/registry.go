// Package registry provides a global registry for map generator factories.
// Generators register themselves in init() functions so that the CLI can
// discover them by name without hardcoded dependencies.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/vovakirdan/civcore/internal/ruleset"
	"github.com/vovakirdan/civcore/internal/tiles"
)

// Params describes the map to generate.
type Params struct {
	Width        int
	Height       int
	Topology     tiles.Topology
	Seed         uint64
	WaterPercent int // Share of tiles that become water, 0..100

	Vocabulary *tiles.Vocabulary
	Generation ruleset.Generation
}

// Generator builds a terrain grid. Implementations must be deterministic:
// the same Params always produce an identical grid.
type Generator interface {
	// ID returns the name used in configuration (e.g., "islands").
	ID() string

	// Title returns a human-readable description.
	Title() string

	// Generate creates a new grid.
	Generate(p Params) (*tiles.Grid, error)
}

// GeneratorInfo contains metadata about a registered generator.
type GeneratorInfo struct {
	ID    string
	Title string
}

// Factory is a function that creates a new generator.
type Factory func() Generator

var (
	factories = make(map[string]Factory)
	titles    = make(map[string]string)
	mu        sync.RWMutex
)

// Register adds a generator factory to the registry.
// Panics if a generator with the same ID is already registered.
func Register(id string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := factories[id]; exists {
		panic(fmt.Sprintf("registry: generator %q already registered", id))
	}
	factories[id] = f
	titles[id] = f().Title()
}

// List returns all registered generators, sorted by ID.
func List() []GeneratorInfo {
	mu.RLock()
	defer mu.RUnlock()

	result := make([]GeneratorInfo, 0, len(factories))
	for id := range factories {
		result = append(result, GeneratorInfo{ID: id, Title: titles[id]})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result
}

// Create instantiates a generator by its ID.
func Create(id string) (Generator, error) {
	mu.RLock()
	defer mu.RUnlock()

	f, ok := factories[id]
	if !ok {
		return nil, fmt.Errorf("registry: unknown generator %q", id)
	}
	return f(), nil
}

// Exists checks if a generator with the given ID is registered.
func Exists(id string) bool {
	mu.RLock()
	defer mu.RUnlock()

	_, ok := factories[id]
	return ok
}
