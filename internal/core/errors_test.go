package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorIsMatchesCode(t *testing.T) {
	err := InvalidCommand("player %d is not ready", 3)
	if !errors.Is(err, ErrInvalidCommand) {
		t.Error("expected InvalidCommand to match ErrInvalidCommand")
	}
	if errors.Is(err, ErrOutOfBounds) {
		t.Error("InvalidCommand should not match ErrOutOfBounds")
	}

	wrapped := fmt.Errorf("while loading: %w", CorruptSave("bad magic"))
	if !errors.Is(wrapped, ErrCorruptSave) {
		t.Error("wrapped CorruptSave should match ErrCorruptSave")
	}
}

func TestRulesetErrorsMatchCategory(t *testing.T) {
	cyc := &CyclicPrerequisiteError{Path: []string{"a", "b", "a"}}
	if !errors.Is(cyc, ErrRuleset) {
		t.Error("cyclic prerequisite should be a ruleset error")
	}
	if cyc.Error() != "[RULESET_ERROR] cyclic prerequisite: a -> b -> a" {
		t.Errorf("unexpected message: %s", cyc.Error())
	}

	unk := &UnknownTechnologyError{ID: "x", RequiredBy: "y"}
	if !errors.Is(unk, ErrRuleset) {
		t.Error("unknown technology should be a ruleset error")
	}
	var target *UnknownTechnologyError
	if !errors.As(fmt.Errorf("wrap: %w", unk), &target) || target.ID != "x" {
		t.Error("errors.As should recover UnknownTechnologyError")
	}
}

func TestOutOfBoundsMessage(t *testing.T) {
	err := OutOfBounds(C(-1, 4))
	if err.Error() != "[OUT_OF_BOUNDS] coordinate (-1,4) is outside the map" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}
