package tiles

import (
	"math"
	"sort"

	"github.com/vovakirdan/civcore/internal/core"
)

// MaxDimension bounds width and height so every coordinate fits the save layout.
const MaxDimension = 1 << 15

// Elevation and continent ranges a tile may carry.
const (
	MinElevation = math.MinInt16
	MaxElevation = math.MaxInt16
	MaxContinent = math.MaxUint16
)

// Tile is one map square. Its identity is its coordinate.
type Tile struct {
	Coord     core.Coord
	Terrain   TerrainKind
	Resource  ResourceKind // NoResource when the tile has none
	Elevation int
	Continent int // 0 for water, otherwise a landmass id starting at 1
}

// HasResource reports whether the tile carries a special resource.
func (t Tile) HasResource() bool {
	return t.Resource != NoResource
}

// Grid owns every tile of a map. Tiles are stored in row-major order:
// index = y*Width + x. Shape and topology never change after creation.
type Grid struct {
	width    int
	height   int
	topology Topology
	vocab    *Vocabulary
	tiles    []Tile
}

// NewGrid creates a grid with every tile set to the fill terrain.
func NewGrid(width, height int, topology Topology, vocab *Vocabulary, fill TerrainKind) (*Grid, error) {
	if err := checkShape(width, height, topology, vocab); err != nil {
		return nil, err
	}
	if !vocab.ValidTerrain(fill) {
		return nil, core.InvalidCommand("unknown terrain kind %d", fill)
	}
	g := &Grid{
		width:    width,
		height:   height,
		topology: topology,
		vocab:    vocab,
		tiles:    make([]Tile, width*height),
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			g.tiles[y*width+x] = Tile{Coord: core.C(x, y), Terrain: fill}
		}
	}
	return g, nil
}

// NewGridFromTiles builds a grid from tile records in row-major order.
// Coordinates in the records are ignored and reassigned from their index.
func NewGridFromTiles(width, height int, topology Topology, vocab *Vocabulary, records []Tile) (*Grid, error) {
	if err := checkShape(width, height, topology, vocab); err != nil {
		return nil, err
	}
	if len(records) != width*height {
		return nil, core.InvalidCommand("expected %d tiles, got %d", width*height, len(records))
	}
	g := &Grid{
		width:    width,
		height:   height,
		topology: topology,
		vocab:    vocab,
		tiles:    make([]Tile, len(records)),
	}
	for i, t := range records {
		if !vocab.ValidTerrain(t.Terrain) {
			return nil, core.InvalidCommand("tile %d: unknown terrain kind %d", i, t.Terrain)
		}
		if !vocab.ValidResource(t.Resource) {
			return nil, core.InvalidCommand("tile %d: unknown resource kind %d", i, t.Resource)
		}
		if t.Elevation < MinElevation || t.Elevation > MaxElevation {
			return nil, core.InvalidCommand("tile %d: elevation %d outside %d..%d", i, t.Elevation, MinElevation, MaxElevation)
		}
		if t.Continent < 0 || t.Continent > MaxContinent {
			return nil, core.InvalidCommand("tile %d: continent %d outside 0..%d", i, t.Continent, MaxContinent)
		}
		t.Coord = core.C(i%width, i/width)
		g.tiles[i] = t
	}
	return g, nil
}

func checkShape(width, height int, topology Topology, vocab *Vocabulary) error {
	if width <= 0 || height <= 0 {
		return core.InvalidCommand("grid dimensions must be positive, got %dx%d", width, height)
	}
	if width > MaxDimension || height > MaxDimension {
		return core.InvalidCommand("grid dimensions %dx%d exceed %d", width, height, MaxDimension)
	}
	if !topology.Valid() {
		return core.InvalidCommand("unknown topology %d", topology)
	}
	if vocab == nil {
		return core.InvalidCommand("grid requires a vocabulary")
	}
	return nil
}

// Width returns the number of columns.
func (g *Grid) Width() int { return g.width }

// Height returns the number of rows.
func (g *Grid) Height() int { return g.height }

// Size returns the number of tiles.
func (g *Grid) Size() int { return len(g.tiles) }

// Topology returns the wrapping behavior.
func (g *Grid) Topology() Topology { return g.topology }

// Vocabulary returns the terrain and resource vocabulary.
func (g *Grid) Vocabulary() *Vocabulary { return g.vocab }

// Normalize maps c onto the grid, wrapping along wrapped axes.
// Returns false if c lies beyond a non-wrapped edge.
func (g *Grid) Normalize(c core.Coord) (core.Coord, bool) {
	if g.topology.WrapsX() {
		c.X = core.Mod(c.X, g.width)
	} else if c.X < 0 || c.X >= g.width {
		return c, false
	}
	if g.topology.WrapsY() {
		c.Y = core.Mod(c.Y, g.height)
	} else if c.Y < 0 || c.Y >= g.height {
		return c, false
	}
	return c, true
}

// InBounds reports whether c normalizes onto the grid.
func (g *Grid) InBounds(c core.Coord) bool {
	_, ok := g.Normalize(c)
	return ok
}

// Index returns the row-major index of c after normalization.
func (g *Grid) Index(c core.Coord) (int, bool) {
	n, ok := g.Normalize(c)
	if !ok {
		return 0, false
	}
	return n.Y*g.width + n.X, true
}

// CoordAt returns the coordinate of a row-major index.
func (g *Grid) CoordAt(i int) core.Coord {
	return core.C(i%g.width, i/g.width)
}

// TileAt returns the tile at c. Fails with OutOfBounds if c does not
// normalize onto the grid.
func (g *Grid) TileAt(c core.Coord) (Tile, error) {
	i, ok := g.Index(c)
	if !ok {
		return Tile{}, core.OutOfBounds(c)
	}
	return g.tiles[i], nil
}

// TileAtIndex returns the tile at a row-major index.
func (g *Grid) TileAtIndex(i int) Tile {
	return g.tiles[i]
}

// SetTerrain changes the terrain of one tile. A resource on the tile is
// removed when the terrain actually changes.
func (g *Grid) SetTerrain(c core.Coord, kind TerrainKind) error {
	i, ok := g.Index(c)
	if !ok {
		return core.OutOfBounds(c)
	}
	if !g.vocab.ValidTerrain(kind) {
		return core.InvalidCommand("unknown terrain kind %d", kind)
	}
	t := &g.tiles[i]
	if t.Terrain != kind {
		t.Terrain = kind
		t.Resource = NoResource
	}
	return nil
}

// SetResource places or clears the special resource of one tile.
// The resource must be allowed on the tile's terrain.
func (g *Grid) SetResource(c core.Coord, r ResourceKind) error {
	i, ok := g.Index(c)
	if !ok {
		return core.OutOfBounds(c)
	}
	t := &g.tiles[i]
	if r != NoResource && !g.vocab.ResourceAllowed(r, t.Terrain) {
		return core.InvalidCommand("resource kind %d not allowed on %s", r, g.vocab.TerrainName(t.Terrain))
	}
	t.Resource = r
	return nil
}

// Neighbors returns the coordinates adjacent to c, clockwise from north.
// Steps across a wrapped axis are normalized; steps beyond a non-wrapped
// edge are omitted. Duplicates and c itself (possible on very narrow
// wrapped maps) are dropped.
func (g *Grid) Neighbors(c core.Coord) ([]core.Coord, error) {
	origin, ok := g.Normalize(c)
	if !ok {
		return nil, core.OutOfBounds(c)
	}
	out := make([]core.Coord, 0, len(core.Directions))
	for _, d := range core.Directions {
		n, ok := g.Normalize(origin.Step(d))
		if !ok || n == origin || containsCoord(out, n) {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

// Neighbor returns the coordinate one step from c in direction d.
func (g *Grid) Neighbor(c core.Coord, d core.Dir) (core.Coord, bool) {
	origin, ok := g.Normalize(c)
	if !ok {
		return c, false
	}
	return g.Normalize(origin.Step(d))
}

func containsCoord(list []core.Coord, c core.Coord) bool {
	for _, x := range list {
		if x == c {
			return true
		}
	}
	return false
}

// Distance returns the number of king moves between a and b, taking the
// shorter way around each wrapped axis.
func (g *Grid) Distance(a, b core.Coord) (int, error) {
	na, ok := g.Normalize(a)
	if !ok {
		return 0, core.OutOfBounds(a)
	}
	nb, ok := g.Normalize(b)
	if !ok {
		return 0, core.OutOfBounds(b)
	}
	return g.distance(na, nb), nil
}

func (g *Grid) distance(a, b core.Coord) int {
	dx := core.Abs(a.X - b.X)
	if g.topology.WrapsX() {
		dx = core.Min(dx, g.width-dx)
	}
	dy := core.Abs(a.Y - b.Y)
	if g.topology.WrapsY() {
		dy = core.Min(dy, g.height-dy)
	}
	return core.Max(dx, dy)
}

// Within returns every coordinate whose distance from center is at most
// radius, sorted row-major.
func (g *Grid) Within(center core.Coord, radius int) ([]core.Coord, error) {
	origin, ok := g.Normalize(center)
	if !ok {
		return nil, core.OutOfBounds(center)
	}
	if radius < 0 {
		return nil, core.InvalidCommand("negative radius %d", radius)
	}
	// Any larger radius already covers the whole map.
	radius = core.Min(radius, core.Max(g.width, g.height))

	if 2*radius+1 >= g.width && 2*radius+1 >= g.height {
		out := make([]core.Coord, 0)
		for i := range g.tiles {
			c := g.CoordAt(i)
			if g.distance(origin, c) <= radius {
				out = append(out, c)
			}
		}
		return out, nil
	}

	seen := make(map[core.Coord]struct{})
	out := make([]core.Coord, 0, (2*radius+1)*(2*radius+1))
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			n, ok := g.Normalize(origin.Add(dx, dy))
			if !ok {
				continue
			}
			if _, dup := seen[n]; dup {
				continue
			}
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out, nil
}

// AllCoords returns every coordinate in row-major order.
func (g *Grid) AllCoords() []core.Coord {
	coords := make([]core.Coord, 0, len(g.tiles))
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			coords = append(coords, core.C(x, y))
		}
	}
	return coords
}

// Tiles returns a copy of all tiles in row-major order.
func (g *Grid) Tiles() []Tile {
	out := make([]Tile, len(g.tiles))
	copy(out, g.tiles)
	return out
}

// Clone returns a deep copy of the grid. The vocabulary is shared.
func (g *Grid) Clone() *Grid {
	return &Grid{
		width:    g.width,
		height:   g.height,
		topology: g.topology,
		vocab:    g.vocab,
		tiles:    g.Tiles(),
	}
}

// Equal returns true if two grids have the same shape and contents.
func (g *Grid) Equal(other *Grid) bool {
	if g == nil || other == nil {
		return g == other
	}
	if g.width != other.width || g.height != other.height || g.topology != other.topology {
		return false
	}
	for i, t := range g.tiles {
		if t != other.tiles[i] {
			return false
		}
	}
	return true
}

// CountByTerrain returns how many tiles carry each terrain.
func (g *Grid) CountByTerrain() map[TerrainKind]int {
	counts := make(map[TerrainKind]int)
	for _, t := range g.tiles {
		counts[t.Terrain]++
	}
	return counts
}
