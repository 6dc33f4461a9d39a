package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/civcore/internal/turn"
)

var showCmd = &cobra.Command{
	Use:   "show <game>",
	Short: "Show the state of a game",
	Long: `Show the turn, seed and map of a game and the research progress of
every player.

Examples:
  civcore show <game>`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	gameID := args[0]

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	eng, snap, err := s.latest(gameID, turn.Options{})
	if err != nil {
		return err
	}
	state := eng.Snapshot()
	tree := s.rules.Tree

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Game %s\n", gameID)
	fmt.Fprintf(out, "  Turn:    %d\n", state.Turn)
	fmt.Fprintf(out, "  Seed:    %d\n", state.Seed)
	fmt.Fprintf(out, "  Map:     %dx%d %s\n", state.Grid.Width(), state.Grid.Height(), state.Grid.Topology())
	fmt.Fprintf(out, "  Ruleset: %s\n", snap.Ruleset)
	fmt.Fprintf(out, "  Saved:   %s\n", snap.CreatedAt.Format("2006-01-02 15:04"))
	fmt.Fprintln(out)

	// Print header
	fmt.Fprintf(out, "  %-3s  %-12s  %-5s  %-22s  %-11s  %s\n", "ID", "Civ", "Known", "Researching", "Bulbs", "Seen")
	fmt.Fprintf(out, "  %-3s  %-12s  %-5s  %-22s  %-11s  %s\n", "--", "---", "-----", "-----------", "-----", "----")

	for _, id := range state.PlayerIDs() {
		p := state.Players[id]
		r := p.Research
		target, bulbs := "-", fmt.Sprintf("%d", r.Bulbs)
		if r.HasTarget() {
			target = r.Target
			if tech, ok := tree.Technology(r.Target); ok {
				target = tech.Name
				bulbs = fmt.Sprintf("%d/%d", r.Bulbs, tech.Cost)
			}
		}
		fmt.Fprintf(out, "  %-3d  %-12s  %-5d  %-22s  %-11s  %d/%d\n",
			id, p.Civ, r.Known.Len(), target, bulbs, p.Vision.CountEverSeen(), state.Grid.Size())
	}
	return nil
}
