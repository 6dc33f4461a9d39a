// Package mapgen provides seeded terrain generators. Generators register
// themselves with the registry in init().
package mapgen

import (
	"math"
	"sort"

	"github.com/vovakirdan/civcore/internal/core"
	"github.com/vovakirdan/civcore/internal/registry"
	"github.com/vovakirdan/civcore/internal/tiles"
)

// MaxElevation is the elevation of the highest tile on a generated map.
const MaxElevation = 1000

func checkParams(p registry.Params) error {
	if p.Width <= 0 || p.Height <= 0 || p.Width > tiles.MaxDimension || p.Height > tiles.MaxDimension {
		return core.InvalidCommand("map dimensions %dx%d out of range", p.Width, p.Height)
	}
	if p.Vocabulary == nil {
		return core.InvalidCommand("generator requires a vocabulary")
	}
	if p.WaterPercent < 0 || p.WaterPercent > 100 {
		return core.InvalidCommand("water percent must be within 0..100, got %d", p.WaterPercent)
	}
	if len(p.Generation.LandBands) == 0 {
		return core.InvalidCommand("generator requires at least one land terrain")
	}
	return nil
}

// heightField samples octaves of noise for every tile in row-major order
// and normalizes the result.
func heightField(p registry.Params, octaves int, scale float64) []float64 {
	rng := core.NewRNG(p.Seed).Derive("height")
	seeds := make([]int64, octaves)
	for i := range seeds {
		seeds[i] = int64(rng.Next())
	}
	field := make([]float64, p.Width*p.Height)
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			field[y*p.Width+x] = fractal(float64(x), float64(y), scale, seeds)
		}
	}
	normalize(field)
	return field
}

// build turns a normalized height field into a finished grid: terrain by
// elevation rank, scattered resources and continent ids.
func build(p registry.Params, field []float64) (*tiles.Grid, error) {
	size := len(field)
	records := make([]tiles.Tile, size)
	for i, h := range field {
		records[i].Elevation = int(math.Round(h * MaxElevation))
	}

	// Rank tiles by elevation; the index breaks ties.
	rank := make([]int, size)
	for i := range rank {
		rank[i] = i
	}
	sort.SliceStable(rank, func(a, b int) bool {
		return records[rank[a]].Elevation < records[rank[b]].Elevation
	})

	water := int(math.Round(float64(size) * float64(p.WaterPercent) / 100))
	deep := water / 3
	gen := p.Generation
	for r, i := range rank {
		switch {
		case r < deep:
			records[i].Terrain = gen.DeepWater
		case r < water:
			records[i].Terrain = gen.Water
		default:
			land := size - water
			band := (r - water) * len(gen.LandBands) / land
			records[i].Terrain = gen.LandBands[band]
		}
	}

	scatterResources(p, records)

	grid, err := tiles.NewGridFromTiles(p.Width, p.Height, p.Topology, p.Vocabulary, records)
	if err != nil {
		return nil, err
	}
	continents := Continents(grid)
	for i := range records {
		records[i].Continent = continents[i]
	}
	return tiles.NewGridFromTiles(p.Width, p.Height, p.Topology, p.Vocabulary, records)
}

func scatterResources(p registry.Params, records []tiles.Tile) {
	chance := p.Generation.ResourceChance
	if chance == 0 {
		return
	}
	rng := core.NewRNG(p.Seed).Derive("resources")
	for i := range records {
		roll := rng.Intn(100)
		pick := rng.Next()
		if roll >= chance {
			continue
		}
		options := p.Vocabulary.ResourcesFor(records[i].Terrain)
		if len(options) == 0 {
			continue
		}
		records[i].Resource = options[pick%uint64(len(options))]
	}
}

// Continents numbers connected landmasses from 1 in row-major discovery
// order, following 8-way adjacency across wrapped edges. Water tiles get 0.
func Continents(g *tiles.Grid) []int {
	ids := make([]int, g.Size())
	vocab := g.Vocabulary()
	isLand := func(i int) bool {
		def, _ := vocab.Terrain(g.TileAtIndex(i).Terrain)
		return !def.Water
	}

	next := 0
	for start := 0; start < g.Size(); start++ {
		if ids[start] != 0 || !isLand(start) {
			continue
		}
		next++
		ids[start] = next
		queue := []int{start}
		for len(queue) > 0 {
			i := queue[0]
			queue = queue[1:]
			neighbors, _ := g.Neighbors(g.CoordAt(i))
			for _, n := range neighbors {
				j, _ := g.Index(n)
				if ids[j] == 0 && isLand(j) {
					ids[j] = next
					queue = append(queue, j)
				}
			}
		}
	}
	return ids
}
