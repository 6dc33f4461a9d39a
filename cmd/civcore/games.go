package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/civcore/internal/storage"
)

var (
	flagDelete  string
	flagHistory string
)

var gamesCmd = &cobra.Command{
	Use:   "games",
	Short: "List stored games",
	Long: `List every game in the snapshot database with its latest turn.

Examples:
  civcore games
  civcore games --history <game>
  civcore games --delete <game>`,
	Args: cobra.NoArgs,
	RunE: runGames,
}

func init() {
	gamesCmd.Flags().StringVar(&flagDelete, "delete", "", "Delete every snapshot of a game")
	gamesCmd.Flags().StringVar(&flagHistory, "history", "", "List the stored turns of a game")
}

func runGames(cmd *cobra.Command, _ []string) error {
	store, err := storage.Open(cfg.Storage.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	out := cmd.OutOrStdout()

	if flagDelete != "" {
		n, err := store.DeleteGame(flagDelete)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("game %s: %w", flagDelete, storage.ErrNotFound)
		}
		logger.Info("game deleted", "game", flagDelete, "snapshots", n)
		fmt.Fprintf(out, "Deleted %d snapshots of %s\n", n, flagDelete)
		return nil
	}

	if flagHistory != "" {
		turns, err := store.History(flagHistory)
		if err != nil {
			return err
		}
		if len(turns) == 0 {
			return fmt.Errorf("game %s: %w", flagHistory, storage.ErrNotFound)
		}
		fmt.Fprintf(out, "Turns of %s: %v\n", flagHistory, turns)
		return nil
	}

	games, err := store.ListGames()
	if err != nil {
		return err
	}
	if len(games) == 0 {
		fmt.Fprintln(out, "No games stored yet.")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Run 'civcore new' to start one.")
		return nil
	}

	// Print header
	fmt.Fprintf(out, "  %-36s  %-10s  %5s  %9s  %s\n", "Game", "Ruleset", "Turn", "Snapshots", "Updated")
	fmt.Fprintf(out, "  %-36s  %-10s  %5s  %9s  %s\n", "----", "-------", "----", "---------", "-------")

	for _, g := range games {
		fmt.Fprintf(out, "  %-36s  %-10s  %5d  %9d  %s\n",
			g.GameID, g.Ruleset, g.LatestTurn, g.Snapshots, g.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}
