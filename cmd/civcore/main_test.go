package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vovakirdan/civcore/internal/core"
	"github.com/vovakirdan/civcore/internal/turn"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("civcore %s failed: %v", strings.Join(args, " "), err)
	}
	return out.String()
}

func TestCommandsEndToEnd(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)
	db := filepath.Join(dir, "games.db")

	out := execute(t, "--db", db, "new", "--width", "16", "--height", "10",
		"--topology", "torus", "--seed", "7", "--players", "Romans,Greeks")
	first := strings.SplitN(out, "\n", 2)[0]
	gameID := strings.TrimPrefix(first, "Game ")
	if gameID == first || len(gameID) != 36 {
		t.Fatalf("unexpected new output: %q", out)
	}

	// Alphabet costs 30 in the classic ruleset
	out = execute(t, "--db", db, "turn", gameID, "--target", "1=alphabet", "--income", "1=30", "--sight", "2=3,3")
	if !strings.Contains(out, "player 1 learned alphabet") || !strings.Contains(out, "Turn 1") {
		t.Errorf("unexpected turn output: %q", out)
	}

	out = execute(t, "--db", db, "show", gameID)
	if !strings.Contains(out, "Turn:    1") || !strings.Contains(out, "Romans") {
		t.Errorf("unexpected show output: %q", out)
	}

	out = execute(t, "--db", db, "map", gameID, "--player", "2")
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 10 {
		t.Fatalf("map has %d lines, expected 10", len(lines))
	}
	// Radius 1 around (3,3) reveals a 3x3 block and nothing else
	seen := 0
	for _, l := range lines {
		seen += len(strings.ReplaceAll(l, " ", ""))
	}
	if seen > 9 {
		t.Errorf("player 2 sees %d tiles, expected at most 9", seen)
	}

	save := filepath.Join(dir, "game.civ")
	execute(t, "--db", db, "export", gameID, save)
	if _, err := os.Stat(save); err != nil {
		t.Fatalf("export did not write file: %v", err)
	}
	out = execute(t, "--db", db, "import", save)
	if !strings.Contains(out, "at turn 1") {
		t.Errorf("unexpected import output: %q", out)
	}

	out = execute(t, "--db", db, "games")
	if !strings.Contains(out, gameID) || strings.Count(out, "classic") != 2 {
		t.Errorf("unexpected games output: %q", out)
	}
}

func TestParseTargets(t *testing.T) {
	got, err := parseTargets([]string{"1=alphabet", "2=bronze_working"})
	if err != nil {
		t.Fatalf("parseTargets() failed: %v", err)
	}
	want := []turn.SetResearchTarget{{Player: 1, Tech: "alphabet"}, {Player: 2, Tech: "bronze_working"}}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("parseTargets() = %v, expected %v", got, want)
	}

	for _, bad := range []string{"alphabet", "x=alphabet", "1=", "-1=alphabet"} {
		if _, err := parseTargets([]string{bad}); err == nil {
			t.Errorf("parseTargets(%q) expected error", bad)
		}
	}
}

func TestParseIncome(t *testing.T) {
	got, err := parseIncome([]string{"1=3", "2=5", "1=2"})
	if err != nil {
		t.Fatalf("parseIncome() failed: %v", err)
	}
	if got[1] != 5 || got[2] != 5 {
		t.Errorf("parseIncome() = %v", got)
	}
	if _, err := parseIncome([]string{"1=lots"}); err == nil {
		t.Error("expected error for non-numeric income")
	}
}

func TestParseSight(t *testing.T) {
	got, err := parseSight([]string{"1=4,5", "1=0,0,3"})
	if err != nil {
		t.Fatalf("parseSight() failed: %v", err)
	}
	want := []turn.Sighting{{At: core.C(4, 5)}, {At: core.C(0, 0), Radius: 3}}
	if len(got[1]) != 2 || got[1][0] != want[0] || got[1][1] != want[1] {
		t.Errorf("parseSight() = %v, expected %v", got[1], want)
	}

	for _, bad := range []string{"1=4", "1=4,5,6,7", "1=a,b", "1=1,1,-2"} {
		if _, err := parseSight([]string{bad}); err == nil {
			t.Errorf("parseSight(%q) expected error", bad)
		}
	}
}
