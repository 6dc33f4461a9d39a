package config

import (
	_ "embed"
)

//go:embed defaults/civcore.yaml
var defaultYAML []byte

// Default returns the hardcoded default configuration.
func Default() AppConfig {
	return AppConfig{
		Storage: StorageConfig{DBPath: "~/.civcore/civcore.db"},
		Log:     LogConfig{Level: "info"},
		Map: MapConfig{
			Width:        40,
			Height:       25,
			Topology:     "wrapx",
			Generator:    "islands",
			WaterPercent: 65,
		},
		Game: GameConfig{Players: []string{"Romans", "Greeks"}},
	}
}
