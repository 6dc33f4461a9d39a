package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func testdataPath(t *testing.T, name string) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot locate test file")
	}
	return filepath.Join(filepath.Dir(file), "testdata", name)
}

func TestEmbeddedMatchesDefault(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	def := Default()
	if cfg.Map != def.Map {
		t.Errorf("map config = %+v, expected %+v", cfg.Map, def.Map)
	}
	if cfg.Storage != def.Storage || cfg.Log != def.Log || cfg.Ruleset != def.Ruleset {
		t.Errorf("config = %+v, expected %+v", cfg, def)
	}
	if len(cfg.Game.Players) != 2 || cfg.Game.Players[0] != "Romans" {
		t.Errorf("players = %v", cfg.Game.Players)
	}
}

func TestLoadCustomPath(t *testing.T) {
	cfg, err := Load(testdataPath(t, "small.yaml"))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Map.Width != 12 || cfg.Map.Height != 8 || cfg.Map.Topology != "torus" {
		t.Errorf("map config = %+v", cfg.Map)
	}
	// Unset fields keep their defaults
	if cfg.Map.Generator != "islands" || cfg.Log.Level != "info" {
		t.Errorf("defaults not kept: %+v", cfg)
	}
	if len(cfg.Game.Players) != 1 || cfg.Game.Players[0] != "Aztecs" {
		t.Errorf("players = %v", cfg.Game.Players)
	}
}

func TestLoadMissingCustomPath(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoadUserConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())

	dir := filepath.Join(home, ".civcore")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log:\n  level: debug\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q, expected debug", cfg.Log.Level)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CIVCORE_DB", "/data/games.db")
	t.Setenv("CIVCORE_LOG_LEVEL", "warn")
	t.Setenv("CIVCORE_MAP_WIDTH", "80")
	t.Setenv("CIVCORE_PLAYERS", "Zulus,Inca,Celts")

	cfg, err := Load(testdataPath(t, "small.yaml"))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Storage.DBPath != "/data/games.db" {
		t.Errorf("db path = %q", cfg.Storage.DBPath)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
	if cfg.Map.Width != 80 || cfg.Map.Height != 8 {
		t.Errorf("map = %+v, expected width override only", cfg.Map)
	}
	if len(cfg.Game.Players) != 3 || cfg.Game.Players[2] != "Celts" {
		t.Errorf("players = %v", cfg.Game.Players)
	}
}

func TestEnvOverrideBadValue(t *testing.T) {
	t.Setenv("CIVCORE_MAP_HEIGHT", "tall")
	if _, err := Load(testdataPath(t, "small.yaml")); err == nil {
		t.Error("expected error for non-numeric map height")
	}
}
