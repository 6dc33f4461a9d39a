// Package textmap draws a tile grid as text for terminal inspection.
package textmap

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/vovakirdan/civcore/internal/tiles"
	"github.com/vovakirdan/civcore/internal/world"
)

// Glyph is how one terrain kind is drawn.
type Glyph struct {
	Rune  rune
	Color string // lipgloss colour, ANSI index or hex
}

// glyphs maps terrain ids of the classic ruleset to glyphs.
var glyphs = map[string]Glyph{
	"deep_ocean": {':', "4"},
	"ocean":      {'.', "12"},
	"lake":       {'~', "14"},
	"grassland":  {'"', "10"},
	"plains":     {'=', "3"},
	"desert":     {'d', "11"},
	"forest":     {'f', "2"},
	"jungle":     {'j', "28"},
	"swamp":      {'s', "65"},
	"hills":      {'h', "130"},
	"mountains":  {'^', "7"},
	"tundra":     {'t', "250"},
	"glacier":    {'a', "15"},
}

const (
	unseenRune   = ' '
	resourceRune = '*'
	fogColor     = "240"
)

// Options control rendering.
type Options struct {
	Vision    *world.Visibility // nil draws every tile as visible
	Color     bool
	Resources bool // Draw tiles with a special resource as '*'
}

type cell struct {
	r     rune
	color string
}

// GlyphFor returns the glyph of a terrain id. Unknown ids use the first
// letter of the id.
func GlyphFor(id string) Glyph {
	if g, ok := glyphs[id]; ok {
		return g
	}
	if id == "" {
		return Glyph{Rune: '?'}
	}
	return Glyph{Rune: rune(id[0])}
}

// Render draws the grid one row per line. Tiles never seen are blank;
// tiles seen before but not currently visible are drawn in the fog colour.
func Render(g *tiles.Grid, opts Options) string {
	vocab := g.Vocabulary()
	var sb strings.Builder
	sb.Grow(g.Size()*2 + g.Height())

	for y := range g.Height() {
		if y > 0 {
			sb.WriteRune('\n')
		}
		row := make([]cell, g.Width())
		for x := range g.Width() {
			i := y*g.Width() + x
			t := g.TileAtIndex(i)
			def, _ := vocab.Terrain(t.Terrain)
			glyph := GlyphFor(def.ID)
			c := cell{r: glyph.Rune, color: glyph.Color}
			if opts.Resources && t.HasResource() {
				c.r = resourceRune
			}
			if opts.Vision != nil {
				switch {
				case !opts.Vision.EverSeen(i):
					c = cell{r: unseenRune}
				case !opts.Vision.Visible(i):
					c.color = fogColor
				}
			}
			row[x] = c
		}
		writeRow(&sb, row, opts.Color)
	}
	return sb.String()
}

// writeRow groups consecutive cells of one colour into a single styled run.
func writeRow(sb *strings.Builder, row []cell, color bool) {
	if !color {
		for _, c := range row {
			sb.WriteRune(c.r)
		}
		return
	}
	x := 0
	for x < len(row) {
		start := row[x].color
		var run strings.Builder
		for x < len(row) && row[x].color == start {
			run.WriteRune(row[x].r)
			x++
		}
		if start == "" {
			sb.WriteString(run.String())
			continue
		}
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(start))
		sb.WriteString(style.Render(run.String()))
	}
}

// Legend lists the glyph of every terrain in the vocabulary.
func Legend(vocab *tiles.Vocabulary) string {
	var lines []string
	for k := range vocab.NumTerrains() {
		def, _ := vocab.Terrain(tiles.TerrainKind(k))
		lines = append(lines, string(GlyphFor(def.ID).Rune)+"  "+def.Name)
	}
	lines = append(lines, string(resourceRune)+"  special resource")
	return strings.Join(lines, "\n")
}

// Terminal reports whether f is a terminal and its width in columns.
// Width is 0 when it cannot be determined.
func Terminal(f *os.File) (isTerm bool, width int) {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return false, 0
	}
	if w, _, err := term.GetSize(fd); err == nil {
		return true, w
	}
	return true, 0
}
