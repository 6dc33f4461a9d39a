package world

import (
	"errors"
	"reflect"
	"testing"

	"github.com/vovakirdan/civcore/internal/core"
	"github.com/vovakirdan/civcore/internal/research"
	"github.com/vovakirdan/civcore/internal/tiles"
)

func testState(t *testing.T) *State {
	t.Helper()
	vocab, err := tiles.NewVocabulary([]tiles.TerrainDef{{ID: "plains", Name: "Plains", MoveCost: 1}}, nil)
	if err != nil {
		t.Fatalf("NewVocabulary() failed: %v", err)
	}
	grid, err := tiles.NewGrid(4, 3, tiles.TopologyWrapX, vocab, 0)
	if err != nil {
		t.Fatalf("NewGrid() failed: %v", err)
	}
	tree, err := research.NewTree([]research.Technology{
		{ID: "a", Cost: 5},
		{ID: "b", Cost: 5, Requires: []string{"a"}},
	})
	if err != nil {
		t.Fatalf("NewTree() failed: %v", err)
	}
	s, err := New(42, grid, tree, []PlayerSpec{
		{ID: 7, Civ: "romans", Known: []string{"a"}},
		{ID: 2, Civ: "greeks"},
	})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return s
}

func TestNewState(t *testing.T) {
	s := testState(t)
	if s.Turn != 0 || s.Seed != 42 {
		t.Errorf("turn=%d seed=%d", s.Turn, s.Seed)
	}
	if ids := s.PlayerIDs(); !reflect.DeepEqual(ids, []PlayerID{2, 7}) {
		t.Errorf("PlayerIDs() = %v", ids)
	}
	p, ok := s.Player(7)
	if !ok || !p.Research.Known.Has("a") || p.Vision.Size() != 12 {
		t.Errorf("player 7 = %+v", p)
	}
}

func TestNewStateRejects(t *testing.T) {
	base := testState(t)
	tests := []struct {
		name    string
		players []PlayerSpec
	}{
		{"duplicate id", []PlayerSpec{{ID: 1}, {ID: 1}}},
		{"unknown starting tech", []PlayerSpec{{ID: 1, Known: []string{"z"}}}},
		{"starting tech without prerequisite", []PlayerSpec{{ID: 1, Known: []string{"b"}}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(1, base.Grid, base.Tree, tc.players)
			if !errors.Is(err, core.ErrInvalidCommand) {
				t.Errorf("New() error = %v, expected InvalidCommand", err)
			}
		})
	}
}

func TestCloneIsIndependent(t *testing.T) {
	s := testState(t)
	clone := s.Clone()
	if !s.Equal(clone) {
		t.Fatal("clone should equal original")
	}

	clone.Turn++
	if s.Equal(clone) {
		t.Error("turn change should break equality")
	}
	clone.Turn--

	clone.Players[2].Research.Known.Add("a")
	clone.Players[2].Vision.Refresh([]int{3})
	if s.Players[2].Research.Known.Has("a") {
		t.Error("known set leaked into original")
	}
	if s.Players[2].Vision.EverSeen(3) {
		t.Error("visibility leaked into original")
	}
	if s.Equal(clone) {
		t.Error("player change should break equality")
	}
}

func TestVisibilityRefresh(t *testing.T) {
	v := NewVisibility(12)
	v.Refresh([]int{0, 5, 11, 40, -1})
	if got := v.VisibleIndices(); !reflect.DeepEqual(got, []int{0, 5, 11}) {
		t.Errorf("visible = %v", got)
	}

	v.Refresh([]int{6})
	if got := v.VisibleIndices(); !reflect.DeepEqual(got, []int{6}) {
		t.Errorf("visible after second refresh = %v", got)
	}
	if got := v.EverSeenIndices(); !reflect.DeepEqual(got, []int{0, 5, 6, 11}) {
		t.Errorf("ever seen = %v", got)
	}
	if v.CountVisible() != 1 || v.CountEverSeen() != 4 {
		t.Errorf("counts = %d/%d", v.CountVisible(), v.CountEverSeen())
	}
	for _, i := range v.VisibleIndices() {
		if !v.EverSeen(i) {
			t.Errorf("visible tile %d not ever seen", i)
		}
	}
}

func TestVisibilityFromBitmaps(t *testing.T) {
	v := NewVisibility(12)
	v.Refresh([]int{1, 9})
	v.Refresh([]int{9})

	back, err := VisibilityFromBitmaps(12, v.EverSeenBitmap(), v.VisibleBitmap())
	if err != nil {
		t.Fatalf("VisibilityFromBitmaps() failed: %v", err)
	}
	if !back.Equal(v) {
		t.Error("rebuilt visibility differs")
	}

	tests := []struct {
		name          string
		ever, visible []byte
	}{
		{"wrong length", []byte{0}, []byte{0}},
		{"padding bits", []byte{0, 0x10}, []byte{0, 0}},
		{"visible not seen", []byte{0x01, 0}, []byte{0x02, 0}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := VisibilityFromBitmaps(12, tc.ever, tc.visible); err == nil {
				t.Error("expected error")
			}
		})
	}
}
