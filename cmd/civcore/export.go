package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/civcore/internal/storage"
)

var flagExportTurn int64

var exportCmd = &cobra.Command{
	Use:   "export <game> <file>",
	Short: "Write a save file",
	Long: `Write the encoded state of a game to a file. The latest turn is
exported unless --turn is given.

Examples:
  civcore export <game> rome.civ
  civcore export <game> rome-t10.civ --turn 10`,
	Args: cobra.ExactArgs(2),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().Int64Var(&flagExportTurn, "turn", -1, "Turn to export (-1 = latest)")
}

func runExport(cmd *cobra.Command, args []string) error {
	gameID, path := args[0], args[1]

	store, err := storage.Open(cfg.Storage.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	var snap storage.Snapshot
	if flagExportTurn < 0 {
		snap, err = store.LatestSnapshot(gameID)
	} else {
		snap, err = store.SnapshotAt(gameID, uint32(flagExportTurn))
	}
	if err != nil {
		return fmt.Errorf("game %s: %w", gameID, err)
	}

	if err := os.WriteFile(path, snap.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	logger.Info("save exported", "game", gameID, "turn", snap.Turn, "file", path, "bytes", len(snap.Data))
	fmt.Fprintf(cmd.OutOrStdout(), "Exported turn %d of %s to %s\n", snap.Turn, gameID, path)
	return nil
}
