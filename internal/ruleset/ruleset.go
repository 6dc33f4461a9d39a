// Package ruleset loads the data that defines a game: the terrain and
// resource vocabulary, the technology tree, and the tunable research,
// visibility and generation parameters.
package ruleset

import (
	"bytes"
	_ "embed"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vovakirdan/civcore/internal/core"
	"github.com/vovakirdan/civcore/internal/research"
	"github.com/vovakirdan/civcore/internal/tiles"
)

//go:embed defaults/classic.yaml
var classicYAML []byte

// File is the YAML document of a ruleset.
type File struct {
	Name         string            `yaml:"name"`
	Research     ResearchSection   `yaml:"research"`
	Visibility   VisibilitySection `yaml:"visibility"`
	Generation   GenerationSection `yaml:"generation"`
	Terrains     []TerrainEntry    `yaml:"terrains"`
	Resources    []ResourceEntry   `yaml:"resources"`
	Technologies []TechEntry       `yaml:"technologies"`
}

// ResearchSection configures research progress.
type ResearchSection struct {
	SwitchLossPercent int `yaml:"switch_loss_percent"` // 0..100
}

// VisibilitySection configures fog of war.
type VisibilitySection struct {
	SightRadius int `yaml:"sight_radius"` // Default radius of a sighting
}

// GenerationSection names the terrains used by map generators.
type GenerationSection struct {
	WaterTerrain          string   `yaml:"water_terrain"`
	DeepWaterTerrain      string   `yaml:"deep_water_terrain"`
	LandBands             []string `yaml:"land_bands"` // Lowest elevation first
	ResourceChancePercent int      `yaml:"resource_chance_percent"`
}

// TerrainEntry declares one terrain.
type TerrainEntry struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Water    bool   `yaml:"water"`
	MoveCost int    `yaml:"move_cost"`
}

// ResourceEntry declares one special resource.
type ResourceEntry struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	Terrains []string `yaml:"terrains"`
}

// TechEntry declares one technology.
type TechEntry struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	Cost     int64    `yaml:"cost"`
	Requires []string `yaml:"requires"`
}

// Generation holds the resolved terrain kinds for map generators.
type Generation struct {
	Water          tiles.TerrainKind
	DeepWater      tiles.TerrainKind
	LandBands      []tiles.TerrainKind
	ResourceChance int
}

// Rules is a validated ruleset ready to run a game.
type Rules struct {
	Name        string
	Vocabulary  *tiles.Vocabulary
	Tree        *research.Tree
	Tracker     *research.Tracker
	SightRadius int
	Generation  Generation

	fingerprint uint32
}

// Fingerprint identifies the ruleset content. Saves store it so that a
// game is only loaded under the ruleset it was created with.
func (r *Rules) Fingerprint() uint32 { return r.fingerprint }

// Parse decodes a ruleset document. Unknown fields are rejected.
func Parse(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, core.RulesetInvalid("empty ruleset document")
		}
		return nil, core.RulesetInvalid("parse: %v", err)
	}
	return &f, nil
}

// Build validates f and constructs Rules. No Rules are returned on failure.
func Build(f *File) (*Rules, error) {
	if f.Name == "" {
		return nil, core.RulesetInvalid("ruleset has no name")
	}

	terrains := make([]tiles.TerrainDef, len(f.Terrains))
	terrainKinds := make(map[string]tiles.TerrainKind, len(f.Terrains))
	for i, t := range f.Terrains {
		terrains[i] = tiles.TerrainDef{ID: t.ID, Name: nameOr(t.Name, t.ID), Water: t.Water, MoveCost: t.MoveCost}
		terrainKinds[t.ID] = tiles.TerrainKind(i)
	}
	resources := make([]tiles.ResourceDef, len(f.Resources))
	for i, r := range f.Resources {
		def := tiles.ResourceDef{ID: r.ID, Name: nameOr(r.Name, r.ID)}
		for _, id := range r.Terrains {
			k, ok := terrainKinds[id]
			if !ok {
				return nil, core.RulesetInvalid("resource %q: unknown terrain %q", r.ID, id)
			}
			def.Terrains = append(def.Terrains, k)
		}
		resources[i] = def
	}
	vocab, err := tiles.NewVocabulary(terrains, resources)
	if err != nil {
		return nil, err
	}

	techs := make([]research.Technology, len(f.Technologies))
	for i, t := range f.Technologies {
		techs[i] = research.Technology{ID: t.ID, Name: nameOr(t.Name, t.ID), Cost: t.Cost, Requires: t.Requires}
	}
	tree, err := research.NewTree(techs)
	if err != nil {
		return nil, err
	}
	tracker, err := research.NewTracker(tree, f.Research.SwitchLossPercent)
	if err != nil {
		return nil, err
	}

	if f.Visibility.SightRadius < 0 {
		return nil, core.RulesetInvalid("sight radius must not be negative, got %d", f.Visibility.SightRadius)
	}
	gen, err := buildGeneration(f.Generation, vocab)
	if err != nil {
		return nil, err
	}

	rules := &Rules{
		Name:        f.Name,
		Vocabulary:  vocab,
		Tree:        tree,
		Tracker:     tracker,
		SightRadius: f.Visibility.SightRadius,
		Generation:  gen,
	}
	rules.fingerprint = fingerprint(rules)
	return rules, nil
}

func nameOr(name, id string) string {
	if name == "" {
		return id
	}
	return name
}

func buildGeneration(g GenerationSection, vocab *tiles.Vocabulary) (Generation, error) {
	var out Generation
	water, err := waterTerrain(vocab, g.WaterTerrain, "water_terrain")
	if err != nil {
		return out, err
	}
	out.Water = water
	out.DeepWater = water
	if g.DeepWaterTerrain != "" {
		if out.DeepWater, err = waterTerrain(vocab, g.DeepWaterTerrain, "deep_water_terrain"); err != nil {
			return out, err
		}
	}
	if len(g.LandBands) == 0 {
		return out, core.RulesetInvalid("generation: land_bands is empty")
	}
	for _, id := range g.LandBands {
		k, ok := vocab.TerrainByID(id)
		if !ok {
			return out, core.RulesetInvalid("generation: unknown land terrain %q", id)
		}
		if def, _ := vocab.Terrain(k); def.Water {
			return out, core.RulesetInvalid("generation: land band %q is a water terrain", id)
		}
		out.LandBands = append(out.LandBands, k)
	}
	if g.ResourceChancePercent < 0 || g.ResourceChancePercent > 100 {
		return out, core.RulesetInvalid("generation: resource_chance_percent must be within 0..100, got %d", g.ResourceChancePercent)
	}
	out.ResourceChance = g.ResourceChancePercent
	return out, nil
}

func waterTerrain(vocab *tiles.Vocabulary, id, field string) (tiles.TerrainKind, error) {
	k, ok := vocab.TerrainByID(id)
	if !ok {
		return 0, core.RulesetInvalid("generation: %s %q is not a declared terrain", field, id)
	}
	if def, _ := vocab.Terrain(k); !def.Water {
		return 0, core.RulesetInvalid("generation: %s %q is not a water terrain", field, id)
	}
	return k, nil
}

// fingerprint hashes everything that changes the meaning of a save:
// the vocabulary, the tree and the research and sight parameters.
func fingerprint(r *Rules) uint32 {
	h := crc32.NewIEEE()
	v := r.Vocabulary
	for i := 0; i < v.NumTerrains(); i++ {
		def, _ := v.Terrain(tiles.TerrainKind(i))
		io.WriteString(h, def.ID)
		h.Write([]byte{0, boolByte(def.Water), byte(def.MoveCost)})
	}
	for i := 1; i <= v.NumResources(); i++ {
		def, _ := v.Resource(tiles.ResourceKind(i))
		io.WriteString(h, def.ID)
		h.Write([]byte{0})
		for _, k := range def.Terrains {
			h.Write([]byte{byte(k)})
		}
	}
	var buf [12]byte
	binary.LittleEndian.PutUint32(buf[0:], r.Tree.Checksum())
	binary.LittleEndian.PutUint32(buf[4:], uint32(r.Tracker.LossPercent()))
	binary.LittleEndian.PutUint32(buf[8:], uint32(r.SightRadius))
	h.Write(buf[:])
	return h.Sum32()
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// FromBytes parses and builds a ruleset document.
func FromBytes(data []byte) (*Rules, error) {
	f, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return Build(f)
}

// Classic returns the embedded classic ruleset.
func Classic() (*Rules, error) {
	return FromBytes(classicYAML)
}

// ClassicYAML returns the embedded classic ruleset document.
func ClassicYAML() []byte {
	return append([]byte(nil), classicYAML...)
}

// Load reads a ruleset file. An empty path selects the embedded classic
// ruleset.
func Load(path string) (*Rules, error) {
	if path == "" {
		return Classic()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ruleset %s: %w", path, err)
	}
	rules, err := FromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("ruleset %s: %w", path, err)
	}
	return rules, nil
}
