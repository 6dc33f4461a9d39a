// civcore runs turn-based strategy games from the command line.
//
// Usage:
//
//	civcore new                  - Generate a map and start a game
//	civcore turn <game>          - Advance a game by one or more turns
//	civcore show <game>          - Show turn and research of every player
//	civcore map <game>           - Draw the map, optionally as one player sees it
//	civcore techs                - List technologies in research order
//	civcore games                - List stored games
//	civcore export <game> <file> - Write the latest save to a file
//	civcore import <file>        - Store a save file as a new game
//
// Global flags:
//
//	--config <path>     - Application config file
//	--db <path>         - Snapshot database (default from config)
//	--ruleset <path>    - Ruleset file (default: embedded classic)
//	--log-level <level> - debug, info, warn or error
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/civcore/internal/config"

	// Import generators to register them
	_ "github.com/vovakirdan/civcore/internal/mapgen"
)

var (
	// Global flags
	flagConfig   string
	flagDBPath   string
	flagRuleset  string
	flagLogLevel string

	cfg    config.AppConfig
	logger *log.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "civcore",
	Short: "civcore - turn-based world and research engine",
	Long: `civcore generates maps, tracks research and advances turns of
strategy games. Every turn is stored as a snapshot in a local database.

Examples:
  civcore new --width 40 --height 25 --players Romans,Greeks
  civcore turn <game> --target 1=alphabet --income 1=3
  civcore map <game> --player 1
  civcore techs`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to application config YAML")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to snapshot database")
	rootCmd.PersistentFlags().StringVar(&flagRuleset, "ruleset", "", "Path to ruleset YAML")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")

	// Add subcommands
	rootCmd.AddCommand(newCmd)
	rootCmd.AddCommand(turnCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(mapCmd)
	rootCmd.AddCommand(techsCmd)
	rootCmd.AddCommand(gamesCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}

// setup loads configuration, applies flag overrides and creates the logger.
func setup(_ *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load(flagConfig)
	if err != nil {
		return err
	}
	if flagDBPath != "" {
		cfg.Storage.DBPath = flagDBPath
	}
	if flagRuleset != "" {
		cfg.Ruleset.Path = flagRuleset
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}

	logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "civcore",
	})
	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = log.InfoLevel
	}
	logger.SetLevel(level)
	return nil
}
