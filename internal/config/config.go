// Package config provides YAML-based application configuration with
// environment variable overrides for the civcore command line.
package config

// AppConfig contains all application-level settings.
type AppConfig struct {
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
	Ruleset RulesetConfig `yaml:"ruleset"`
	Map     MapConfig     `yaml:"map"`
	Game    GameConfig    `yaml:"game"`
}

// StorageConfig defines where snapshots are kept.
type StorageConfig struct {
	DBPath string `yaml:"db_path" env:"CIVCORE_DB"`
}

// LogConfig defines logging verbosity.
type LogConfig struct {
	Level string `yaml:"level" env:"CIVCORE_LOG_LEVEL"` // debug, info, warn, error
}

// RulesetConfig selects the ruleset file. Empty means the embedded classic ruleset.
type RulesetConfig struct {
	Path string `yaml:"path" env:"CIVCORE_RULESET"`
}

// MapConfig defines the parameters of newly generated maps.
type MapConfig struct {
	Width        int    `yaml:"width" env:"CIVCORE_MAP_WIDTH"`
	Height       int    `yaml:"height" env:"CIVCORE_MAP_HEIGHT"`
	Topology     string `yaml:"topology" env:"CIVCORE_MAP_TOPOLOGY"`
	Generator    string `yaml:"generator" env:"CIVCORE_MAP_GENERATOR"`
	WaterPercent int    `yaml:"water_percent" env:"CIVCORE_MAP_WATER_PERCENT"`
}

// GameConfig defines defaults for new games.
type GameConfig struct {
	Players []string `yaml:"players" env:"CIVCORE_PLAYERS" envSeparator:","` // Civilization names
}
