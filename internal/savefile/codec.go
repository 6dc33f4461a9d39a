// Package savefile encodes game states into a versioned, checksummed binary
// layout and decodes them back.
//
// Layout (version 1, little endian):
//
//	header  magic "CVSV" | version u16 | width u16 | height u16 | topology u8 |
//	        seed u64 | turn u32 | ruleset fingerprint u32 | checksum u32
//	tiles   W*H records in row-major order:
//	        terrain u8 | flags u8 | resource u8 | elevation i16 | continent u16
//	players count u16, then by ascending id:
//	        id u32 | civ len u16 + bytes | known count u16 + tech index u16... |
//	        has target u8 | target index u16 | accumulated i64 |
//	        ever-seen bitmap | visible bitmap (ceil(W*H/8) bytes each)
//
// The checksum is CRC32 (IEEE) over the whole encoding with the checksum
// field set to zero. Tech indices follow ascending technology id order.
package savefile

import (
	"encoding/binary"
	"hash/crc32"
	"math"

	"github.com/vovakirdan/civcore/internal/core"
	"github.com/vovakirdan/civcore/internal/research"
	"github.com/vovakirdan/civcore/internal/ruleset"
	"github.com/vovakirdan/civcore/internal/tiles"
	"github.com/vovakirdan/civcore/internal/world"
)

const (
	// Magic opens every save.
	Magic = "CVSV"
	// Version is the layout written by Encode.
	Version uint16 = 1

	headerSize     = 31
	checksumOffset = 27
	tileSize       = 7

	flagResource = 1 << 0
)

// Codec encodes and decodes states for one ruleset.
type Codec struct {
	rules *ruleset.Rules
}

// NewCodec creates a codec bound to rules.
func NewCodec(rules *ruleset.Rules) *Codec {
	return &Codec{rules: rules}
}

// Encode serializes s. The state must use the codec's technology tree.
func (c *Codec) Encode(s *world.State) ([]byte, error) {
	tree := c.rules.Tree
	if s.Tree.Checksum() != tree.Checksum() {
		return nil, core.InvalidCommand("state uses a different technology tree than the codec")
	}
	g := s.Grid
	if len(s.Players) > math.MaxUint16 {
		return nil, core.InvalidCommand("too many players to encode: %d", len(s.Players))
	}

	bitmap := (g.Size() + 7) / 8
	buf := make([]byte, 0, headerSize+g.Size()*tileSize+len(s.Players)*(32+2*bitmap))

	buf = append(buf, Magic...)
	buf = binary.LittleEndian.AppendUint16(buf, Version)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(g.Width()))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(g.Height()))
	buf = append(buf, byte(g.Topology()))
	buf = binary.LittleEndian.AppendUint64(buf, s.Seed)
	buf = binary.LittleEndian.AppendUint32(buf, s.Turn)
	buf = binary.LittleEndian.AppendUint32(buf, c.rules.Fingerprint())
	buf = binary.LittleEndian.AppendUint32(buf, 0) // checksum, filled below

	for i := 0; i < g.Size(); i++ {
		t := g.TileAtIndex(i)
		if t.Elevation < tiles.MinElevation || t.Elevation > tiles.MaxElevation {
			return nil, core.InvalidCommand("tile %v: elevation %d does not fit the save", t.Coord, t.Elevation)
		}
		if t.Continent < 0 || t.Continent > tiles.MaxContinent {
			return nil, core.InvalidCommand("tile %v: continent %d does not fit the save", t.Coord, t.Continent)
		}
		var flags byte
		if t.HasResource() {
			flags |= flagResource
		}
		buf = append(buf, byte(t.Terrain), flags, byte(t.Resource))
		buf = binary.LittleEndian.AppendUint16(buf, uint16(int16(t.Elevation)))
		buf = binary.LittleEndian.AppendUint16(buf, uint16(t.Continent))
	}

	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(s.Players)))
	for _, id := range s.PlayerIDs() {
		p := s.Players[id]
		if len(p.Civ) > math.MaxUint16 {
			return nil, core.InvalidCommand("player %d: civilization name too long", id)
		}
		buf = binary.LittleEndian.AppendUint32(buf, uint32(id))
		buf = binary.LittleEndian.AppendUint16(buf, uint16(len(p.Civ)))
		buf = append(buf, p.Civ...)

		known, err := techIndices(tree, p.Research.Known.Sorted())
		if err != nil {
			return nil, err
		}
		buf = binary.LittleEndian.AppendUint16(buf, uint16(len(known)))
		for _, k := range known {
			buf = binary.LittleEndian.AppendUint16(buf, k)
		}

		if p.Research.HasTarget() {
			idx, err := techIndices(tree, []string{p.Research.Target})
			if err != nil {
				return nil, err
			}
			buf = append(buf, 1)
			buf = binary.LittleEndian.AppendUint16(buf, idx[0])
		} else {
			buf = append(buf, 0)
			buf = binary.LittleEndian.AppendUint16(buf, 0)
		}
		buf = binary.LittleEndian.AppendUint64(buf, uint64(p.Research.Bulbs))

		if p.Vision.Size() != g.Size() {
			return nil, core.InvalidCommand("player %d: visibility does not match the map", id)
		}
		buf = append(buf, p.Vision.EverSeenBitmap()...)
		buf = append(buf, p.Vision.VisibleBitmap()...)
	}

	binary.LittleEndian.PutUint32(buf[checksumOffset:], checksum(buf))
	return buf, nil
}

// techIndices maps ids to indices. Sorted ids give ascending indices.
func techIndices(tree *research.Tree, ids []string) ([]uint16, error) {
	out := make([]uint16, len(ids))
	for i, id := range ids {
		idx, ok := tree.Index(id)
		if !ok {
			return nil, core.InvalidCommand("technology %q is not in the tree", id)
		}
		out[i] = uint16(idx)
	}
	return out, nil
}

// checksum computes the CRC of data as if the checksum field were zero.
func checksum(data []byte) uint32 {
	var zero [4]byte
	crc := crc32.ChecksumIEEE(data[:checksumOffset])
	crc = crc32.Update(crc, crc32.IEEETable, zero[:])
	return crc32.Update(crc, crc32.IEEETable, data[checksumOffset+4:])
}

// Decode parses a save. Any inconsistency fails with CorruptSave and no
// state is returned.
func (c *Codec) Decode(data []byte) (*world.State, error) {
	if len(data) < headerSize {
		return nil, core.CorruptSave("save is %d bytes, shorter than the header", len(data))
	}
	r := &reader{data: data}
	if string(r.bytes(4)) != Magic {
		return nil, core.CorruptSave("bad magic")
	}
	if v := r.u16(); v != Version {
		return nil, core.CorruptSave("unsupported version %d", v)
	}
	width := int(r.u16())
	height := int(r.u16())
	topology := tiles.Topology(r.u8())
	seed := r.u64()
	turn := r.u32()
	fp := r.u32()
	sum := r.u32()

	if want := checksum(data); sum != want {
		return nil, core.CorruptSave("checksum mismatch: stored %08x, computed %08x", sum, want)
	}
	if fp != c.rules.Fingerprint() {
		return nil, core.CorruptSave("save was written with a different ruleset (fingerprint %08x, loaded %08x)", fp, c.rules.Fingerprint())
	}
	if width == 0 || height == 0 || width > tiles.MaxDimension || height > tiles.MaxDimension {
		return nil, core.CorruptSave("invalid map shape %dx%d", width, height)
	}
	if !topology.Valid() {
		return nil, core.CorruptSave("unknown topology %d", topology)
	}

	vocab := c.rules.Vocabulary
	size := width * height
	if r.remaining() < size*tileSize {
		return nil, core.CorruptSave("truncated tile records")
	}
	records := make([]tiles.Tile, size)
	for i := range records {
		terrain := tiles.TerrainKind(r.u8())
		flags := r.u8()
		resource := tiles.ResourceKind(r.u8())
		elevation := int(int16(r.u16()))
		continent := int(r.u16())
		if !vocab.ValidTerrain(terrain) {
			return nil, core.CorruptSave("tile %d: unknown terrain %d", i, terrain)
		}
		if flags&^flagResource != 0 {
			return nil, core.CorruptSave("tile %d: unknown flags %02x", i, flags)
		}
		if (flags&flagResource != 0) != (resource != tiles.NoResource) || !vocab.ValidResource(resource) {
			return nil, core.CorruptSave("tile %d: bad resource %d", i, resource)
		}
		records[i] = tiles.Tile{Terrain: terrain, Resource: resource, Elevation: elevation, Continent: continent}
	}
	grid, err := tiles.NewGridFromTiles(width, height, topology, vocab, records)
	if err != nil {
		return nil, core.CorruptSave("%v", err)
	}

	s := &world.State{
		Turn:    turn,
		Seed:    seed,
		Grid:    grid,
		Tree:    c.rules.Tree,
		Players: make(map[world.PlayerID]*world.Player),
	}

	count := int(r.u16())
	bitmap := (size + 7) / 8
	var prev world.PlayerID
	for n := 0; n < count; n++ {
		p, err := c.decodePlayer(r, size, bitmap)
		if err != nil {
			return nil, err
		}
		if n > 0 && p.ID <= prev {
			return nil, core.CorruptSave("player %d out of order or duplicated", p.ID)
		}
		prev = p.ID
		s.Players[p.ID] = p
	}

	if r.err != nil {
		return nil, r.err
	}
	if r.remaining() != 0 {
		return nil, core.CorruptSave("%d trailing bytes", r.remaining())
	}
	return s, nil
}

func (c *Codec) decodePlayer(r *reader, size, bitmap int) (*world.Player, error) {
	tree := c.rules.Tree
	id := world.PlayerID(r.u32())
	civ := string(r.bytes(int(r.u16())))

	known := make(research.Set)
	last := -1
	for k, n := 0, int(r.u16()); k < n; k++ {
		idx := int(r.u16())
		techID, ok := tree.IDAt(idx)
		if r.err != nil {
			return nil, r.err
		}
		if !ok || idx <= last {
			return nil, core.CorruptSave("player %d: bad technology index %d", id, idx)
		}
		last = idx
		known.Add(techID)
	}

	hasTarget := r.u8()
	targetIdx := int(r.u16())
	bulbs := int64(r.u64())
	if r.err != nil {
		return nil, r.err
	}
	state := research.State{Known: known, Bulbs: bulbs}
	switch hasTarget {
	case 0:
		if targetIdx != 0 {
			return nil, core.CorruptSave("player %d: target index without target", id)
		}
	case 1:
		techID, ok := tree.IDAt(targetIdx)
		if !ok {
			return nil, core.CorruptSave("player %d: bad target index %d", id, targetIdx)
		}
		state.Target = techID
	default:
		return nil, core.CorruptSave("player %d: bad target flag %d", id, hasTarget)
	}
	if err := c.rules.Tracker.Validate(&state); err != nil {
		return nil, core.CorruptSave("player %d: %v", id, err)
	}

	ever := r.bytes(bitmap)
	visible := r.bytes(bitmap)
	if r.err != nil {
		return nil, r.err
	}
	vision, err := world.VisibilityFromBitmaps(size, ever, visible)
	if err != nil {
		return nil, core.CorruptSave("player %d: %v", id, err)
	}
	return &world.Player{ID: id, Civ: civ, Research: state, Vision: vision}, nil
}

// reader walks a byte slice. After the first short read every call
// returns zero values and err holds the failure.
type reader struct {
	data []byte
	off  int
	err  error
}

func (r *reader) remaining() int { return len(r.data) - r.off }

func (r *reader) bytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.remaining() < n {
		r.err = core.CorruptSave("truncated at offset %d", r.off)
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) u8() uint8 {
	b := r.bytes(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) u16() uint16 {
	b := r.bytes(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *reader) u32() uint32 {
	b := r.bytes(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *reader) u64() uint64 {
	b := r.bytes(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}
