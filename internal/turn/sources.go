package turn

import (
	"github.com/vovakirdan/civcore/internal/core"
	"github.com/vovakirdan/civcore/internal/world"
)

// IncomeSource supplies research bulbs per player per turn, typically from
// a city economy layer. A negative amount rejects the advance.
type IncomeSource interface {
	ResearchIncome(turn uint32, player world.PlayerID) int64
}

// Sighting is a position that reveals tiles, such as a unit or a city.
type Sighting struct {
	At     core.Coord
	Radius int // 0 selects the ruleset sight radius
}

// SightSource supplies the sightings of each player for visibility refresh.
// A sighting outside the map rejects the advance.
type SightSource interface {
	Sightings(turn uint32, player world.PlayerID) []Sighting
}

// TurnTimer lets an external clock force an advance before every player
// is ready.
type TurnTimer interface {
	Expired(turn uint32) bool
}

// StaticIncome is a fixed income per player, the same every turn.
type StaticIncome map[world.PlayerID]int64

func (s StaticIncome) ResearchIncome(_ uint32, player world.PlayerID) int64 {
	return s[player]
}

// StaticSight is a fixed set of sightings per player, the same every turn.
type StaticSight map[world.PlayerID][]Sighting

func (s StaticSight) Sightings(_ uint32, player world.PlayerID) []Sighting {
	return s[player]
}

// TimerFunc adapts a function to TurnTimer.
type TimerFunc func(turn uint32) bool

func (f TimerFunc) Expired(turn uint32) bool { return f(turn) }
