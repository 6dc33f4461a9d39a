// Package world holds the aggregate game state: the map, the shared
// technology tree, and every player with their research and visibility.
package world

import (
	"sort"

	"github.com/vovakirdan/civcore/internal/core"
	"github.com/vovakirdan/civcore/internal/research"
	"github.com/vovakirdan/civcore/internal/tiles"
)

// PlayerID identifies a player within one game.
type PlayerID uint32

// Player is one participant. Civ is opaque to the simulation.
type Player struct {
	ID       PlayerID
	Civ      string
	Research research.State
	Vision   *Visibility
}

// Clone returns an independent copy.
func (p *Player) Clone() *Player {
	return &Player{
		ID:       p.ID,
		Civ:      p.Civ,
		Research: p.Research.Clone(),
		Vision:   p.Vision.Clone(),
	}
}

// Equal reports whether two players are identical.
func (p *Player) Equal(other *Player) bool {
	return p.ID == other.ID &&
		p.Civ == other.Civ &&
		p.Research.Equal(other.Research) &&
		p.Vision.Equal(other.Vision)
}

// PlayerSpec describes a player at game creation.
type PlayerSpec struct {
	ID    PlayerID
	Civ   string
	Known []string // technologies known from the start
}

// State is the aggregate root of one game. The tree is shared read-only;
// everything else is owned exclusively.
type State struct {
	Turn    uint32
	Seed    uint64
	Grid    *tiles.Grid
	Tree    *research.Tree
	Players map[PlayerID]*Player
}

// New creates a game at turn 0. Player ids must be unique and starting
// technologies must exist in the tree and include all of their prerequisites.
func New(seed uint64, grid *tiles.Grid, tree *research.Tree, players []PlayerSpec) (*State, error) {
	if grid == nil || tree == nil {
		return nil, core.InvalidCommand("game state requires a grid and a technology tree")
	}
	s := &State{
		Seed:    seed,
		Grid:    grid,
		Tree:    tree,
		Players: make(map[PlayerID]*Player, len(players)),
	}
	for _, spec := range players {
		if _, dup := s.Players[spec.ID]; dup {
			return nil, core.InvalidCommand("player %d declared twice", spec.ID)
		}
		for _, id := range spec.Known {
			if !tree.Has(id) {
				return nil, core.InvalidCommand("player %d: unknown starting technology %q", spec.ID, id)
			}
		}
		known := research.NewSet(spec.Known...)
		for _, id := range spec.Known {
			if !tree.IsUnlocked(known, id) {
				return nil, core.InvalidCommand("player %d: starting technology %q lacks its prerequisites", spec.ID, id)
			}
		}
		s.Players[spec.ID] = &Player{
			ID:       spec.ID,
			Civ:      spec.Civ,
			Research: research.NewState(spec.Known...),
			Vision:   NewVisibility(grid.Size()),
		}
	}
	return s, nil
}

// PlayerIDs returns every player id in ascending order.
func (s *State) PlayerIDs() []PlayerID {
	ids := make([]PlayerID, 0, len(s.Players))
	for id := range s.Players {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Player returns the player with the given id.
func (s *State) Player(id PlayerID) (*Player, bool) {
	p, ok := s.Players[id]
	return p, ok
}

// Clone returns a deep copy. The tree and the grid vocabulary are shared.
func (s *State) Clone() *State {
	out := &State{
		Turn:    s.Turn,
		Seed:    s.Seed,
		Grid:    s.Grid.Clone(),
		Tree:    s.Tree,
		Players: make(map[PlayerID]*Player, len(s.Players)),
	}
	for id, p := range s.Players {
		out.Players[id] = p.Clone()
	}
	return out
}

// Equal reports whether two states are identical. Trees are compared by
// checksum.
func (s *State) Equal(other *State) bool {
	if s == nil || other == nil {
		return s == other
	}
	if s.Turn != other.Turn || s.Seed != other.Seed {
		return false
	}
	if !s.Grid.Equal(other.Grid) {
		return false
	}
	if s.Tree != other.Tree && s.Tree.Checksum() != other.Tree.Checksum() {
		return false
	}
	if len(s.Players) != len(other.Players) {
		return false
	}
	for id, p := range s.Players {
		q, ok := other.Players[id]
		if !ok || !p.Equal(q) {
			return false
		}
	}
	return true
}
