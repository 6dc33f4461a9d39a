// Package turn sequences a game: it takes commands from players, and on
// advance applies research and visibility updates for every player in
// ascending id order as one atomic step.
package turn

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/vovakirdan/civcore/internal/core"
	"github.com/vovakirdan/civcore/internal/research"
	"github.com/vovakirdan/civcore/internal/ruleset"
	"github.com/vovakirdan/civcore/internal/tiles"
	"github.com/vovakirdan/civcore/internal/world"
)

// Phase is the state of the engine's turn cycle.
type Phase uint8

const (
	PhaseAwaitingCommands Phase = iota
	PhaseProcessing
	PhaseAdvancing
	PhaseEnded
)

func (p Phase) String() string {
	switch p {
	case PhaseAwaitingCommands:
		return "awaiting-commands"
	case PhaseProcessing:
		return "processing"
	case PhaseAdvancing:
		return "advancing"
	case PhaseEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Codec encodes and decodes game states.
type Codec interface {
	Encode(s *world.State) ([]byte, error)
	Decode(data []byte) (*world.State, error)
}

// Options wires the external collaborators of an engine. Nil sources mean
// no income, no sightings and no timeout.
type Options struct {
	Income IncomeSource
	Sight  SightSource
	Timer  TurnTimer
}

// Engine owns one game state. All methods are safe for concurrent use;
// queries run in parallel with each other but never during an advance.
type Engine struct {
	rules *ruleset.Rules
	opts  Options

	mu      sync.RWMutex
	state   *world.State
	phase   Phase
	targets []SetResearchTarget // in submission order
	ready   map[world.PlayerID]bool
}

// NewEngine creates an engine in AwaitingCommands for state. The state must
// have been built with the same technology tree as rules.
func NewEngine(rules *ruleset.Rules, state *world.State, opts Options) (*Engine, error) {
	if rules == nil || state == nil {
		return nil, core.InvalidCommand("engine requires rules and a state")
	}
	if err := checkState(rules, state); err != nil {
		return nil, err
	}
	return &Engine{
		rules: rules,
		opts:  opts,
		state: state,
		ready: make(map[world.PlayerID]bool),
	}, nil
}

func checkState(rules *ruleset.Rules, s *world.State) error {
	if s.Tree.Checksum() != rules.Tree.Checksum() {
		return core.InvalidCommand("state uses a different technology tree than the ruleset")
	}
	for _, id := range s.PlayerIDs() {
		p := s.Players[id]
		if err := rules.Tracker.Validate(&p.Research); err != nil {
			return fmt.Errorf("player %d: %w", id, err)
		}
		if p.Vision == nil || p.Vision.Size() != s.Grid.Size() {
			return core.InvalidCommand("player %d: visibility does not match the map", id)
		}
	}
	return nil
}

// Submit queues a command for the current turn. Commands are only accepted
// in AwaitingCommands. A research target is checked immediately against the
// player's state and any targets already queued.
func (e *Engine) Submit(cmd Command) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase != PhaseAwaitingCommands {
		return core.InvalidCommand("engine is %s, commands are not accepted", e.phase)
	}
	p, ok := e.state.Players[cmd.issuer()]
	if !ok {
		return core.InvalidCommand("unknown player %d", cmd.issuer())
	}

	switch c := cmd.(type) {
	case SetResearchTarget:
		projected := p.Research.Clone()
		for _, queued := range e.targets {
			if queued.Player == c.Player {
				_ = e.rules.Tracker.SetTarget(&projected, queued.Tech)
			}
		}
		if err := e.rules.Tracker.CheckTarget(&projected, c.Tech); err != nil {
			return err
		}
		e.targets = append(e.targets, c)
	case EndTurnReady:
		e.ready[c.Player] = true
	default:
		return core.InvalidCommand("unsupported command %T", cmd)
	}
	return nil
}

// Advance completes the turn once every player is ready or the timer has
// expired. All effects are computed on a copy of the state and committed
// together; on any error the state, the queued commands and readiness are
// left as they were. Cancelling ctx stops the advance before it commits.
func (e *Engine) Advance(ctx context.Context) ([]Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase != PhaseAwaitingCommands {
		return nil, core.InvalidCommand("engine is %s, cannot advance", e.phase)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if waiting := e.waitingLocked(); len(waiting) > 0 {
		if e.opts.Timer == nil || !e.opts.Timer.Expired(e.state.Turn) {
			return nil, core.InvalidCommand("waiting for players %v", waiting)
		}
	}
	if e.state.Turn == math.MaxUint32 {
		return nil, core.InvalidCommand("turn counter exhausted")
	}

	e.phase = PhaseProcessing
	next, events, err := e.process(ctx)
	if err != nil {
		e.phase = PhaseAwaitingCommands
		return nil, err
	}

	e.phase = PhaseAdvancing
	next.Turn++
	events = append(events, TurnAdvanced{Turn: next.Turn})

	e.state = next
	e.targets = nil
	e.ready = make(map[world.PlayerID]bool)
	e.phase = PhaseAwaitingCommands
	return events, nil
}

// process applies the pending turn to a clone of the state.
func (e *Engine) process(ctx context.Context) (*world.State, []Event, error) {
	next := e.state.Clone()
	turn := next.Turn
	tracker := e.rules.Tracker
	var events []Event

	for _, id := range next.PlayerIDs() {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		p := next.Players[id]

		for _, c := range e.targets {
			if c.Player != id {
				continue
			}
			if err := tracker.SetTarget(&p.Research, c.Tech); err != nil {
				return nil, nil, err
			}
		}

		var income int64
		if e.opts.Income != nil {
			income = e.opts.Income.ResearchIncome(turn, id)
		}
		learned, ok, err := tracker.ApplyIncome(&p.Research, income)
		if err != nil {
			return nil, nil, fmt.Errorf("player %d: %w", id, err)
		}
		if ok {
			events = append(events, TechnologyLearned{Player: id, Tech: learned})
		}

		var sightings []Sighting
		if e.opts.Sight != nil {
			sightings = e.opts.Sight.Sightings(turn, id)
		}
		seen, err := visibleTiles(next.Grid, sightings, e.rules.SightRadius)
		if err != nil {
			return nil, nil, err
		}
		p.Vision.Refresh(seen)
	}
	return next, events, nil
}

func visibleTiles(g *tiles.Grid, sightings []Sighting, defaultRadius int) ([]int, error) {
	var out []int
	for _, s := range sightings {
		r := s.Radius
		if r == 0 {
			r = defaultRadius
		}
		coords, err := g.Within(s.At, r)
		if err != nil {
			return nil, err
		}
		for _, c := range coords {
			i, _ := g.Index(c)
			out = append(out, i)
		}
	}
	return out, nil
}

// Terminate ends the game. Later commands and advances fail; queries keep
// working.
func (e *Engine) Terminate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.phase = PhaseEnded
	e.targets = nil
	e.ready = make(map[world.PlayerID]bool)
}

// Save encodes the current state.
func (e *Engine) Save(codec Codec) ([]byte, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return codec.Encode(e.state)
}

// Load replaces the state with a decoded save. Only allowed in
// AwaitingCommands; queued commands are discarded. On failure the current
// state is kept.
func (e *Engine) Load(codec Codec, data []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase != PhaseAwaitingCommands {
		return core.InvalidCommand("engine is %s, cannot load", e.phase)
	}
	s, err := codec.Decode(data)
	if err != nil {
		return err
	}
	if err := checkState(e.rules, s); err != nil {
		return err
	}
	e.state = s
	e.targets = nil
	e.ready = make(map[world.PlayerID]bool)
	return nil
}

// Phase returns the current phase.
func (e *Engine) Phase() Phase {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.phase
}

// Turn returns the current turn number.
func (e *Engine) Turn() uint32 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.Turn
}

// Rules returns the ruleset the engine runs.
func (e *Engine) Rules() *ruleset.Rules { return e.rules }

// Snapshot returns a deep copy of the current state.
func (e *Engine) Snapshot() *world.State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.Clone()
}

// Players returns every player id in ascending order.
func (e *Engine) Players() []world.PlayerID {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.PlayerIDs()
}

// Waiting returns the players that have not signaled EndTurnReady.
func (e *Engine) Waiting() []world.PlayerID {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.waitingLocked()
}

func (e *Engine) waitingLocked() []world.PlayerID {
	var out []world.PlayerID
	for _, id := range e.state.PlayerIDs() {
		if !e.ready[id] {
			out = append(out, id)
		}
	}
	return out
}

// Pending returns the research targets queued for this turn.
func (e *Engine) Pending() []SetResearchTarget {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]SetResearchTarget(nil), e.targets...)
}

// TileAt returns the tile at c.
func (e *Engine) TileAt(c core.Coord) (tiles.Tile, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.Grid.TileAt(c)
}

// Neighbors returns the coordinates adjacent to c.
func (e *Engine) Neighbors(c core.Coord) ([]core.Coord, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.Grid.Neighbors(c)
}

// Distance returns the grid distance between a and b.
func (e *Engine) Distance(a, b core.Coord) (int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.Grid.Distance(a, b)
}

// IsUnlocked reports whether tech's prerequisites are known by player.
func (e *Engine) IsUnlocked(player world.PlayerID, tech string) (bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	p, ok := e.state.Players[player]
	if !ok {
		return false, core.InvalidCommand("unknown player %d", player)
	}
	return e.state.Tree.IsUnlocked(p.Research.Known, tech), nil
}

// TopologicalOrder returns the technology ids in prerequisite order.
func (e *Engine) TopologicalOrder() []string {
	return e.rules.Tree.TopologicalOrder()
}

// Research returns a copy of a player's research state.
func (e *Engine) Research(player world.PlayerID) (research.State, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	p, ok := e.state.Players[player]
	if !ok {
		return research.State{}, core.InvalidCommand("unknown player %d", player)
	}
	return p.Research.Clone(), nil
}

// Visibility returns the currently visible and ever seen coordinates of a
// player, each in row-major order.
func (e *Engine) Visibility(player world.PlayerID) (visible, everSeen []core.Coord, err error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	p, ok := e.state.Players[player]
	if !ok {
		return nil, nil, core.InvalidCommand("unknown player %d", player)
	}
	g := e.state.Grid
	for _, i := range p.Vision.VisibleIndices() {
		visible = append(visible, g.CoordAt(i))
	}
	for _, i := range p.Vision.EverSeenIndices() {
		everSeen = append(everSeen, g.CoordAt(i))
	}
	return visible, everSeen, nil
}
