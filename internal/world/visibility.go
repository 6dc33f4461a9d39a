package world

import (
	"math/bits"

	"github.com/vovakirdan/civcore/internal/core"
)

// Visibility records which tiles a player has ever seen and which are
// currently visible. Tiles are addressed by row-major index. Every visible
// tile is also ever seen.
type Visibility struct {
	size    int
	ever    []byte
	visible []byte
}

// NewVisibility creates an empty record for a map of size tiles.
func NewVisibility(size int) *Visibility {
	n := bitmapLen(size)
	return &Visibility{size: size, ever: make([]byte, n), visible: make([]byte, n)}
}

// VisibilityFromBitmaps rebuilds a record from its two bitmaps, LSB first
// within each byte. Padding bits past size must be zero and every visible
// tile must be ever seen.
func VisibilityFromBitmaps(size int, ever, visible []byte) (*Visibility, error) {
	n := bitmapLen(size)
	if len(ever) != n || len(visible) != n {
		return nil, core.InvalidCommand("visibility bitmaps must be %d bytes", n)
	}
	if rem := size % 8; rem != 0 && n > 0 {
		mask := byte(0xff << rem)
		if ever[n-1]&mask != 0 || visible[n-1]&mask != 0 {
			return nil, core.InvalidCommand("visibility bitmap has bits past the map")
		}
	}
	for i := range ever {
		if visible[i]&^ever[i] != 0 {
			return nil, core.InvalidCommand("visible tile was never seen")
		}
	}
	v := &Visibility{size: size, ever: make([]byte, n), visible: make([]byte, n)}
	copy(v.ever, ever)
	copy(v.visible, visible)
	return v, nil
}

func bitmapLen(size int) int {
	return (size + 7) / 8
}

// Size returns the number of tiles covered.
func (v *Visibility) Size() int { return v.size }

// Refresh replaces the visible set with indices and adds them to the
// ever-seen set. Indices outside the map are ignored.
func (v *Visibility) Refresh(indices []int) {
	for i := range v.visible {
		v.visible[i] = 0
	}
	for _, i := range indices {
		if i < 0 || i >= v.size {
			continue
		}
		v.visible[i/8] |= 1 << (i % 8)
		v.ever[i/8] |= 1 << (i % 8)
	}
}

// Visible reports whether tile i is currently visible.
func (v *Visibility) Visible(i int) bool {
	return i >= 0 && i < v.size && v.visible[i/8]&(1<<(i%8)) != 0
}

// EverSeen reports whether tile i has been seen at any time.
func (v *Visibility) EverSeen(i int) bool {
	return i >= 0 && i < v.size && v.ever[i/8]&(1<<(i%8)) != 0
}

// VisibleIndices returns the currently visible tiles in ascending order.
func (v *Visibility) VisibleIndices() []int { return indices(v.visible, v.size) }

// EverSeenIndices returns the ever-seen tiles in ascending order.
func (v *Visibility) EverSeenIndices() []int { return indices(v.ever, v.size) }

// CountVisible returns the number of currently visible tiles.
func (v *Visibility) CountVisible() int { return count(v.visible) }

// CountEverSeen returns the number of ever-seen tiles.
func (v *Visibility) CountEverSeen() int { return count(v.ever) }

// EverSeenBitmap returns a copy of the ever-seen bitmap.
func (v *Visibility) EverSeenBitmap() []byte { return append([]byte(nil), v.ever...) }

// VisibleBitmap returns a copy of the visible bitmap.
func (v *Visibility) VisibleBitmap() []byte { return append([]byte(nil), v.visible...) }

// Clone returns an independent copy.
func (v *Visibility) Clone() *Visibility {
	return &Visibility{size: v.size, ever: v.EverSeenBitmap(), visible: v.VisibleBitmap()}
}

// Equal reports whether two records hold the same tiles.
func (v *Visibility) Equal(other *Visibility) bool {
	if v == nil || other == nil {
		return v == other
	}
	if v.size != other.size {
		return false
	}
	return string(v.ever) == string(other.ever) && string(v.visible) == string(other.visible)
}

func indices(bitmap []byte, size int) []int {
	out := make([]int, 0, count(bitmap))
	for i := 0; i < size; i++ {
		if bitmap[i/8]&(1<<(i%8)) != 0 {
			out = append(out, i)
		}
	}
	return out
}

func count(bitmap []byte) int {
	n := 0
	for _, b := range bitmap {
		n += bits.OnesCount8(b)
	}
	return n
}
