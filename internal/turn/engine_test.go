package turn

import (
	"context"
	"errors"
	"math"
	"reflect"
	"sync"
	"testing"

	"github.com/vovakirdan/civcore/internal/core"
	"github.com/vovakirdan/civcore/internal/ruleset"
	"github.com/vovakirdan/civcore/internal/savefile"
	"github.com/vovakirdan/civcore/internal/tiles"
	"github.com/vovakirdan/civcore/internal/world"
)

const abRuleset = `
name: ab
research:
  switch_loss_percent: 50
visibility:
  sight_radius: 1
generation:
  water_terrain: ocean
  land_bands: [plains]
terrains:
  - {id: ocean, water: true, move_cost: 1}
  - {id: plains, move_cost: 1}
technologies:
  - {id: A, cost: 5}
  - {id: B, cost: 5, requires: [A]}
  - {id: C, cost: 10}
  - {id: D, cost: 10}
`

func abRules(t *testing.T) *ruleset.Rules {
	t.Helper()
	rules, err := ruleset.FromBytes([]byte(abRuleset))
	if err != nil {
		t.Fatalf("FromBytes() failed: %v", err)
	}
	return rules
}

func newState(t *testing.T, rules *ruleset.Rules, ids ...world.PlayerID) *world.State {
	t.Helper()
	grid, err := tiles.NewGrid(10, 6, tiles.TopologyWrapX, rules.Vocabulary, 1)
	if err != nil {
		t.Fatalf("NewGrid() failed: %v", err)
	}
	specs := make([]world.PlayerSpec, len(ids))
	for i, id := range ids {
		specs[i] = world.PlayerSpec{ID: id}
	}
	s, err := world.New(7, grid, rules.Tree, specs)
	if err != nil {
		t.Fatalf("world.New() failed: %v", err)
	}
	return s
}

func newEngine(t *testing.T, opts Options, ids ...world.PlayerID) *Engine {
	t.Helper()
	rules := abRules(t)
	e, err := NewEngine(rules, newState(t, rules, ids...), opts)
	if err != nil {
		t.Fatalf("NewEngine() failed: %v", err)
	}
	return e
}

func submit(t *testing.T, e *Engine, cmds ...Command) {
	t.Helper()
	for _, c := range cmds {
		if err := e.Submit(c); err != nil {
			t.Fatalf("Submit(%+v) failed: %v", c, err)
		}
	}
}

func readyAll(t *testing.T, e *Engine) {
	t.Helper()
	for _, id := range e.Players() {
		submit(t, e, EndTurnReady{Player: id})
	}
}

func advance(t *testing.T, e *Engine) []Event {
	t.Helper()
	readyAll(t, e)
	events, err := e.Advance(context.Background())
	if err != nil {
		t.Fatalf("Advance() failed: %v", err)
	}
	return events
}

func TestResearchScenario(t *testing.T) {
	e := newEngine(t, Options{Income: StaticIncome{1: 3}}, 1)

	if err := e.Submit(SetResearchTarget{Player: 1, Tech: "B"}); !errors.Is(err, core.ErrInvalidCommand) {
		t.Fatalf("target B before A: error = %v, expected InvalidCommand", err)
	}
	submit(t, e, SetResearchTarget{Player: 1, Tech: "A"})

	events := advance(t, e)
	if !reflect.DeepEqual(events, []Event{TurnAdvanced{Turn: 1}}) {
		t.Errorf("turn 1 events = %+v", events)
	}
	rs, _ := e.Research(1)
	if rs.Bulbs != 3 {
		t.Errorf("turn 1 bulbs = %d, expected 3", rs.Bulbs)
	}

	events = advance(t, e)
	expected := []Event{TechnologyLearned{Player: 1, Tech: "A"}, TurnAdvanced{Turn: 2}}
	if !reflect.DeepEqual(events, expected) {
		t.Errorf("turn 2 events = %+v, expected %+v", events, expected)
	}
	rs, _ = e.Research(1)
	if rs.Bulbs != 1 || rs.HasTarget() || !rs.Known.Has("A") {
		t.Errorf("after turn 2: %+v", rs)
	}

	// B is now available, and the overflow carries over without loss.
	submit(t, e, SetResearchTarget{Player: 1, Tech: "B"})
	advance(t, e)
	rs, _ = e.Research(1)
	if rs.Target != "B" || rs.Bulbs != 4 {
		t.Errorf("after turn 3: %+v", rs)
	}
}

func TestTargetSwitchLoss(t *testing.T) {
	e := newEngine(t, Options{Income: StaticIncome{1: 7}}, 1)
	submit(t, e, SetResearchTarget{Player: 1, Tech: "C"})
	advance(t, e)

	e.opts.Income = nil
	submit(t, e, SetResearchTarget{Player: 1, Tech: "D"})
	advance(t, e)
	rs, _ := e.Research(1)
	if rs.Target != "D" || rs.Bulbs != 3 {
		t.Errorf("after switch: %+v, expected D with 3 bulbs", rs)
	}
}

func TestQueuedTargetsApplyInOrder(t *testing.T) {
	e := newEngine(t, Options{}, 1)
	submit(t, e,
		SetResearchTarget{Player: 1, Tech: "C"},
		SetResearchTarget{Player: 1, Tech: "D"},
	)
	advance(t, e)
	rs, _ := e.Research(1)
	if rs.Target != "D" {
		t.Errorf("target = %q, expected the last submitted target", rs.Target)
	}
}

func TestSubmitRejections(t *testing.T) {
	e := newEngine(t, Options{}, 1)

	tests := []struct {
		name string
		cmd  Command
	}{
		{"unknown player", EndTurnReady{Player: 99}},
		{"unknown tech", SetResearchTarget{Player: 1, Tech: "Z"}},
		{"locked tech", SetResearchTarget{Player: 1, Tech: "B"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := e.Submit(tc.cmd); !errors.Is(err, core.ErrInvalidCommand) {
				t.Errorf("Submit() error = %v, expected InvalidCommand", err)
			}
		})
	}
	if len(e.Pending()) != 0 {
		t.Errorf("rejected commands were queued: %v", e.Pending())
	}
}

func TestAdvanceWaitsForPlayers(t *testing.T) {
	e := newEngine(t, Options{}, 1, 2)
	submit(t, e, EndTurnReady{Player: 2})

	if _, err := e.Advance(context.Background()); !errors.Is(err, core.ErrInvalidCommand) {
		t.Fatalf("Advance() error = %v, expected InvalidCommand", err)
	}
	if got := e.Waiting(); !reflect.DeepEqual(got, []world.PlayerID{1}) {
		t.Errorf("Waiting() = %v, expected [1]", got)
	}
	if e.Turn() != 0 {
		t.Error("turn must not advance")
	}

	submit(t, e, EndTurnReady{Player: 1})
	if _, err := e.Advance(context.Background()); err != nil {
		t.Fatalf("Advance() failed: %v", err)
	}
	if len(e.Waiting()) != 2 {
		t.Error("readiness should reset after an advance")
	}
}

func TestTimerForcesAdvance(t *testing.T) {
	expired := false
	e := newEngine(t, Options{Timer: TimerFunc(func(uint32) bool { return expired })}, 1, 2)

	if _, err := e.Advance(context.Background()); err == nil {
		t.Fatal("advance should wait while the timer runs")
	}
	expired = true
	events, err := e.Advance(context.Background())
	if err != nil {
		t.Fatalf("Advance() failed: %v", err)
	}
	if !reflect.DeepEqual(events, []Event{TurnAdvanced{Turn: 1}}) {
		t.Errorf("events = %+v", events)
	}
}

func TestAdvanceIsAtomic(t *testing.T) {
	// Player 1 is processed fine, player 2 reports an invalid sighting.
	sight := StaticSight{
		1: {{At: core.C(0, 0)}},
		2: {{At: core.C(3, 40)}},
	}
	e := newEngine(t, Options{Income: StaticIncome{1: 5, 2: 5}, Sight: sight}, 1, 2)
	submit(t, e, SetResearchTarget{Player: 1, Tech: "A"})
	readyAll(t, e)
	before := e.Snapshot()

	_, err := e.Advance(context.Background())
	if !errors.Is(err, core.ErrOutOfBounds) {
		t.Fatalf("Advance() error = %v, expected OutOfBounds", err)
	}
	if !e.Snapshot().Equal(before) {
		t.Error("state changed by a rejected advance")
	}
	if e.Phase() != PhaseAwaitingCommands {
		t.Errorf("phase = %s after rejection", e.Phase())
	}
	if len(e.Pending()) != 1 || len(e.Waiting()) != 0 {
		t.Error("queued commands and readiness should survive a rejected advance")
	}

	// Fixing the collaborator lets the same turn go through.
	sight[2] = nil
	events, err := e.Advance(context.Background())
	if err != nil {
		t.Fatalf("Advance() failed: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("events = %+v", events)
	}
}

func TestNegativeIncomeRejected(t *testing.T) {
	e := newEngine(t, Options{Income: StaticIncome{1: -1}}, 1)
	readyAll(t, e)
	if _, err := e.Advance(context.Background()); !errors.Is(err, core.ErrInvalidCommand) {
		t.Errorf("Advance() error = %v, expected InvalidCommand", err)
	}
}

func TestCancelledAdvance(t *testing.T) {
	e := newEngine(t, Options{}, 1)
	readyAll(t, e)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Advance(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Advance() error = %v, expected context.Canceled", err)
	}
	if e.Turn() != 0 {
		t.Error("cancelled advance must not change the turn")
	}
}

func TestEventsInAscendingPlayerOrder(t *testing.T) {
	income := StaticIncome{9: 10, 3: 10, 5: 10}
	e := newEngine(t, Options{Income: income}, 9, 3, 5)
	submit(t, e,
		SetResearchTarget{Player: 9, Tech: "C"},
		SetResearchTarget{Player: 3, Tech: "D"},
		SetResearchTarget{Player: 5, Tech: "C"},
	)
	events := advance(t, e)
	expected := []Event{
		TechnologyLearned{Player: 3, Tech: "D"},
		TechnologyLearned{Player: 5, Tech: "C"},
		TechnologyLearned{Player: 9, Tech: "C"},
		TurnAdvanced{Turn: 1},
	}
	if !reflect.DeepEqual(events, expected) {
		t.Errorf("events = %+v, expected %+v", events, expected)
	}
}

func TestVisibilityRefresh(t *testing.T) {
	sight := StaticSight{1: {{At: core.C(0, 0)}}}
	e := newEngine(t, Options{Sight: sight}, 1)
	advance(t, e)

	visible, ever, err := e.Visibility(1)
	if err != nil {
		t.Fatalf("Visibility() failed: %v", err)
	}
	expected := []core.Coord{
		core.C(0, 0), core.C(1, 0), core.C(9, 0),
		core.C(0, 1), core.C(1, 1), core.C(9, 1),
	}
	if !reflect.DeepEqual(visible, expected) {
		t.Errorf("visible = %v, expected %v", visible, expected)
	}

	sight[1] = []Sighting{{At: core.C(5, 4), Radius: 2}}
	advance(t, e)
	visible, ever, _ = e.Visibility(1)
	// Rows 2..5 only; the y axis does not wrap.
	if len(visible) != 5*4 {
		t.Errorf("visible after move = %d tiles, expected 20", len(visible))
	}
	if len(ever) != 6+20 {
		t.Errorf("ever seen = %d tiles, expected 26", len(ever))
	}
}

func TestHugeSightRadiusRevealsMap(t *testing.T) {
	sight := StaticSight{1: {{At: core.C(3, 2), Radius: math.MaxInt}}}
	e := newEngine(t, Options{Sight: sight}, 1)
	advance(t, e)

	visible, _, err := e.Visibility(1)
	if err != nil {
		t.Fatalf("Visibility() failed: %v", err)
	}
	if len(visible) != 10*6 {
		t.Errorf("visible = %d tiles, expected the whole map", len(visible))
	}
}

func TestTerminate(t *testing.T) {
	e := newEngine(t, Options{}, 1)
	e.Terminate()
	if e.Phase() != PhaseEnded {
		t.Fatalf("phase = %s", e.Phase())
	}
	if err := e.Submit(EndTurnReady{Player: 1}); !errors.Is(err, core.ErrInvalidCommand) {
		t.Errorf("Submit() after end: %v", err)
	}
	if _, err := e.Advance(context.Background()); !errors.Is(err, core.ErrInvalidCommand) {
		t.Errorf("Advance() after end: %v", err)
	}
	if _, err := e.TileAt(core.C(0, 0)); err != nil {
		t.Errorf("queries should keep working: %v", err)
	}
}

func TestQueries(t *testing.T) {
	e := newEngine(t, Options{}, 1)
	if _, err := e.TileAt(core.C(0, 6)); !errors.Is(err, core.ErrOutOfBounds) {
		t.Errorf("TileAt() error = %v", err)
	}
	ns, err := e.Neighbors(core.C(9, 0))
	if err != nil || len(ns) != 5 || ns[0] != core.C(0, 0) {
		t.Errorf("Neighbors() = %v, %v", ns, err)
	}
	if d, _ := e.Distance(core.C(0, 0), core.C(9, 0)); d != 1 {
		t.Errorf("Distance() = %d", d)
	}
	if ok, _ := e.IsUnlocked(1, "B"); ok {
		t.Error("B should be locked")
	}
	if _, err := e.IsUnlocked(42, "A"); err == nil {
		t.Error("expected error for unknown player")
	}
	if order := e.TopologicalOrder(); !reflect.DeepEqual(order, []string{"A", "B", "C", "D"}) {
		t.Errorf("TopologicalOrder() = %v", order)
	}
}

// script runs a fixed multi-turn command sequence on a fresh engine.
func script(t *testing.T) (*Engine, [][]Event) {
	t.Helper()
	sight := StaticSight{
		2: {{At: core.C(2, 2)}},
		5: {{At: core.C(8, 1), Radius: 2}, {At: core.C(7, 5)}},
	}
	e := newEngine(t, Options{Income: StaticIncome{2: 4, 5: 6}, Sight: sight}, 5, 2)
	var all [][]Event
	steps := [][]Command{
		{SetResearchTarget{Player: 2, Tech: "A"}, SetResearchTarget{Player: 5, Tech: "C"}},
		{},
		{SetResearchTarget{Player: 2, Tech: "B"}, SetResearchTarget{Player: 5, Tech: "D"}},
		{SetResearchTarget{Player: 5, Tech: "A"}},
		{},
	}
	for _, cmds := range steps {
		// B is only available once A is learned; skip it otherwise.
		for _, c := range cmds {
			_ = e.Submit(c)
		}
		all = append(all, advance(t, e))
	}
	return e, all
}

func TestDeterminism(t *testing.T) {
	a, eventsA := script(t)
	b, eventsB := script(t)

	if !reflect.DeepEqual(eventsA, eventsB) {
		t.Errorf("event lists differ:\n%+v\n%+v", eventsA, eventsB)
	}
	if !a.Snapshot().Equal(b.Snapshot()) {
		t.Error("final states differ")
	}
	if a.Turn() != 5 {
		t.Errorf("turn = %d, expected 5", a.Turn())
	}
}

func TestSaveAndLoad(t *testing.T) {
	e, _ := script(t)
	codec := savefile.NewCodec(e.Rules())
	data, err := e.Save(codec)
	if err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	fresh := newEngine(t, Options{}, 1)
	if err := fresh.Load(codec, data); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if !fresh.Snapshot().Equal(e.Snapshot()) {
		t.Error("loaded state differs")
	}

	// A corrupt save leaves the loaded state in place.
	before := fresh.Snapshot()
	bad := append([]byte(nil), data...)
	bad[len(bad)-1] ^= 0x80
	if err := fresh.Load(codec, bad); !errors.Is(err, core.ErrCorruptSave) {
		t.Fatalf("Load(corrupt) error = %v, expected CorruptSave", err)
	}
	if !fresh.Snapshot().Equal(before) {
		t.Error("state changed by a failed load")
	}
}

func TestConcurrentQueries(t *testing.T) {
	e := newEngine(t, Options{Income: StaticIncome{1: 1}}, 1)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, _ = e.TileAt(core.C(j%10, j%6))
				_, _ = e.IsUnlocked(1, "A")
				_ = e.Snapshot()
			}
		}()
	}
	for i := 0; i < 10; i++ {
		advance(t, e)
	}
	wg.Wait()
	if e.Turn() != 10 {
		t.Errorf("turn = %d, expected 10", e.Turn())
	}
}
