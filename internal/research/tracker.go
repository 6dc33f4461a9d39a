package research

import (
	"math"

	"github.com/vovakirdan/civcore/internal/core"
)

// State is the research progress of one player.
type State struct {
	Known  Set
	Target string // empty when no target is chosen
	Bulbs  int64  // accumulated currency, held while Target is empty
}

// NewState returns a state that knows the given technologies.
func NewState(known ...string) State {
	return State{Known: NewSet(known...)}
}

// HasTarget reports whether a research target is chosen.
func (s *State) HasTarget() bool { return s.Target != "" }

// Clone returns an independent copy.
func (s State) Clone() State {
	s.Known = s.Known.Clone()
	return s
}

// Equal reports whether two states are identical.
func (s State) Equal(other State) bool {
	return s.Target == other.Target && s.Bulbs == other.Bulbs && s.Known.Equal(other.Known)
}

// Tracker applies research commands and income to player states against
// one tree and loss policy.
type Tracker struct {
	tree        *Tree
	lossPercent int64
}

// NewTracker creates a Tracker. lossPercent is the share of accumulated
// bulbs discarded when switching away from an unfinished target.
func NewTracker(tree *Tree, lossPercent int) (*Tracker, error) {
	if tree == nil {
		return nil, core.RulesetInvalid("tracker requires a technology tree")
	}
	if lossPercent < 0 || lossPercent > 100 {
		return nil, core.RulesetInvalid("switch loss must be within 0..100, got %d", lossPercent)
	}
	return &Tracker{tree: tree, lossPercent: int64(lossPercent)}, nil
}

// Tree returns the technology tree.
func (tr *Tracker) Tree() *Tree { return tr.tree }

// LossPercent returns the switch loss policy.
func (tr *Tracker) LossPercent() int { return int(tr.lossPercent) }

// CheckTarget reports whether tech may become the research target of s
// without changing s.
func (tr *Tracker) CheckTarget(s *State, tech string) error {
	if !tr.tree.Has(tech) {
		return core.InvalidCommand("unknown technology %q", tech)
	}
	if s.Known.Has(tech) {
		return core.InvalidCommand("technology %q is already known", tech)
	}
	if !tr.tree.IsUnlocked(s.Known, tech) {
		return core.InvalidCommand("prerequisites of %q are not known", tech)
	}
	return nil
}

// SetTarget chooses tech as the research target. Switching from a different
// unfinished target discards lossPercent of the accumulated bulbs, rounding
// the kept amount down. Bulbs held with no target carry over in full.
func (tr *Tracker) SetTarget(s *State, tech string) error {
	if err := tr.CheckTarget(s, tech); err != nil {
		return err
	}
	if s.Target == tech {
		return nil
	}
	if s.Target != "" && s.Bulbs > 0 {
		s.Bulbs = tr.kept(s.Bulbs)
	}
	s.Target = tech
	return nil
}

// kept returns floor(b * (100-loss) / 100) without overflowing int64.
func (tr *Tracker) kept(b int64) int64 {
	share := 100 - tr.lossPercent
	return b/100*share + b%100*share/100
}

// CheckIncome reports whether amount can be added to s.
func (tr *Tracker) CheckIncome(s *State, amount int64) error {
	if amount < 0 {
		return core.InvalidCommand("negative research income %d", amount)
	}
	if s.Bulbs > math.MaxInt64-amount {
		return core.InvalidCommand("research income %d overflows accumulated bulbs", amount)
	}
	return nil
}

// ApplyIncome adds amount to the accumulated bulbs. When a target is set and
// its cost is reached the target becomes known, the overflow is held and the
// learned id is returned with ok set. At most one technology is learned per
// call.
func (tr *Tracker) ApplyIncome(s *State, amount int64) (learned string, ok bool, err error) {
	if err := tr.CheckIncome(s, amount); err != nil {
		return "", false, err
	}
	s.Bulbs += amount
	if s.Target == "" {
		return "", false, nil
	}
	cost, _ := tr.tree.Cost(s.Target)
	if s.Bulbs < cost {
		return "", false, nil
	}
	learned = s.Target
	if s.Known == nil {
		s.Known = make(Set)
	}
	s.Known.Add(learned)
	s.Bulbs -= cost
	s.Target = ""
	return learned, true, nil
}

// Validate checks the invariants of s against the tree.
func (tr *Tracker) Validate(s *State) error {
	for id := range s.Known {
		if !tr.tree.Has(id) {
			return core.InvalidCommand("known technology %q is not in the tree", id)
		}
	}
	if s.Target != "" {
		if !tr.tree.Has(s.Target) {
			return core.InvalidCommand("target %q is not in the tree", s.Target)
		}
		if s.Known.Has(s.Target) {
			return core.InvalidCommand("target %q is already known", s.Target)
		}
	}
	if s.Bulbs < 0 {
		return core.InvalidCommand("negative accumulated bulbs %d", s.Bulbs)
	}
	return nil
}
