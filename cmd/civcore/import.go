package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/civcore/internal/storage"
	"github.com/vovakirdan/civcore/internal/turn"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Store a save file as a new game",
	Long: `Decode a save file under the loaded ruleset and store it as a new
game. Corrupt saves and saves from another ruleset are rejected.

Examples:
  civcore import rome.civ
  civcore import rome.civ --ruleset ./rulesets/tiny.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	state, err := s.codec.Decode(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	eng, err := turn.NewEngine(s.rules, state, turn.Options{})
	if err != nil {
		return err
	}

	gameID := storage.NewGameID()
	if err := s.save(gameID, eng); err != nil {
		return err
	}
	logger.Info("save imported", "game", gameID, "turn", state.Turn, "file", path)
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %s as game %s at turn %d\n", path, gameID, state.Turn)
	return nil
}
