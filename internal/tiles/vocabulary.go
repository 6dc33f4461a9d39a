// Package tiles stores the terrain map: tiles, the closed terrain and
// resource vocabulary declared by a ruleset, and spatial queries over a
// grid whose edges may wrap.
package tiles

import (
	"fmt"

	"github.com/vovakirdan/civcore/internal/core"
)

// TerrainKind indexes a terrain declared by the ruleset.
type TerrainKind uint8

// ResourceKind indexes a special resource declared by the ruleset.
// NoResource marks a tile without one; declared resources start at 1.
type ResourceKind uint8

const NoResource ResourceKind = 0

// TerrainDef describes one terrain entry of a ruleset.
type TerrainDef struct {
	ID       string
	Name     string
	Water    bool
	MoveCost int // Movement points spent leaving a tile of this terrain
}

// ResourceDef describes one special resource and the terrains it may sit on.
type ResourceDef struct {
	ID       string
	Name     string
	Terrains []TerrainKind
}

// Vocabulary is the fixed set of terrains and resources a map may use.
// It is immutable once built.
type Vocabulary struct {
	terrains  []TerrainDef
	resources []ResourceDef
	terrainBy map[string]TerrainKind
	resBy     map[string]ResourceKind
}

// NewVocabulary validates and builds a vocabulary. Terrain kinds are assigned
// in declaration order starting at 0, resource kinds starting at 1.
func NewVocabulary(terrains []TerrainDef, resources []ResourceDef) (*Vocabulary, error) {
	if len(terrains) == 0 {
		return nil, core.RulesetInvalid("ruleset declares no terrains")
	}
	if len(terrains) > 255 {
		return nil, core.RulesetInvalid("ruleset declares %d terrains, at most 255 allowed", len(terrains))
	}
	if len(resources) > 254 {
		return nil, core.RulesetInvalid("ruleset declares %d resources, at most 254 allowed", len(resources))
	}

	v := &Vocabulary{
		terrains:  make([]TerrainDef, len(terrains)),
		resources: make([]ResourceDef, len(resources)),
		terrainBy: make(map[string]TerrainKind, len(terrains)),
		resBy:     make(map[string]ResourceKind, len(resources)),
	}

	for i, t := range terrains {
		if t.ID == "" {
			return nil, core.RulesetInvalid("terrain #%d has an empty id", i)
		}
		if _, dup := v.terrainBy[t.ID]; dup {
			return nil, core.RulesetInvalid("terrain %q declared twice", t.ID)
		}
		if t.MoveCost <= 0 {
			return nil, core.RulesetInvalid("terrain %q: move cost must be positive, got %d", t.ID, t.MoveCost)
		}
		v.terrains[i] = t
		v.terrainBy[t.ID] = TerrainKind(i)
	}

	for i, r := range resources {
		if r.ID == "" {
			return nil, core.RulesetInvalid("resource #%d has an empty id", i)
		}
		if _, dup := v.resBy[r.ID]; dup {
			return nil, core.RulesetInvalid("resource %q declared twice", r.ID)
		}
		for _, k := range r.Terrains {
			if int(k) >= len(terrains) {
				return nil, core.RulesetInvalid("resource %q references terrain kind %d", r.ID, k)
			}
		}
		allowed := make([]TerrainKind, len(r.Terrains))
		copy(allowed, r.Terrains)
		r.Terrains = allowed
		v.resources[i] = r
		v.resBy[r.ID] = ResourceKind(i + 1)
	}

	return v, nil
}

// NumTerrains returns the number of declared terrains.
func (v *Vocabulary) NumTerrains() int {
	return len(v.terrains)
}

// NumResources returns the number of declared resources.
func (v *Vocabulary) NumResources() int {
	return len(v.resources)
}

// Terrain returns the definition of a terrain kind.
func (v *Vocabulary) Terrain(k TerrainKind) (TerrainDef, bool) {
	if int(k) >= len(v.terrains) {
		return TerrainDef{}, false
	}
	return v.terrains[k], true
}

// TerrainByID resolves a terrain id.
func (v *Vocabulary) TerrainByID(id string) (TerrainKind, bool) {
	k, ok := v.terrainBy[id]
	return k, ok
}

// Resource returns the definition of a resource kind.
func (v *Vocabulary) Resource(k ResourceKind) (ResourceDef, bool) {
	if k == NoResource || int(k) > len(v.resources) {
		return ResourceDef{}, false
	}
	return v.resources[k-1], true
}

// ResourceByID resolves a resource id.
func (v *Vocabulary) ResourceByID(id string) (ResourceKind, bool) {
	k, ok := v.resBy[id]
	return k, ok
}

// ValidTerrain reports whether k is declared.
func (v *Vocabulary) ValidTerrain(k TerrainKind) bool {
	return int(k) < len(v.terrains)
}

// ValidResource reports whether r is NoResource or declared.
func (v *Vocabulary) ValidResource(r ResourceKind) bool {
	return int(r) <= len(v.resources)
}

// ResourceAllowed reports whether resource r may sit on terrain t.
func (v *Vocabulary) ResourceAllowed(r ResourceKind, t TerrainKind) bool {
	def, ok := v.Resource(r)
	if !ok {
		return false
	}
	for _, k := range def.Terrains {
		if k == t {
			return true
		}
	}
	return false
}

// ResourcesFor returns the resources allowed on terrain t in kind order.
func (v *Vocabulary) ResourcesFor(t TerrainKind) []ResourceKind {
	var out []ResourceKind
	for i := range v.resources {
		r := ResourceKind(i + 1)
		if v.ResourceAllowed(r, t) {
			out = append(out, r)
		}
	}
	return out
}

// TerrainName returns a printable name for k.
func (v *Vocabulary) TerrainName(k TerrainKind) string {
	if def, ok := v.Terrain(k); ok {
		return def.Name
	}
	return fmt.Sprintf("terrain#%d", k)
}
