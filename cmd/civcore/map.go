package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/civcore/internal/platform/textmap"
	"github.com/vovakirdan/civcore/internal/turn"
	"github.com/vovakirdan/civcore/internal/world"
)

var (
	flagMapPlayer    uint32
	flagMapResources bool
	flagMapLegend    bool
	flagMapNoColor   bool
)

var mapCmd = &cobra.Command{
	Use:   "map <game>",
	Short: "Draw the map of a game",
	Long: `Draw the latest map of a game as text. With --player the map is drawn
as that player knows it: unseen tiles are blank and tiles outside current
sight are dimmed.

Examples:
  civcore map <game>
  civcore map <game> --player 1 --resources
  civcore map <game> --legend --no-color`,
	Args: cobra.ExactArgs(1),
	RunE: runMap,
}

func init() {
	mapCmd.Flags().Uint32Var(&flagMapPlayer, "player", 0, "Draw the map as this player sees it (0 = everything)")
	mapCmd.Flags().BoolVar(&flagMapResources, "resources", false, "Mark tiles with special resources")
	mapCmd.Flags().BoolVar(&flagMapLegend, "legend", false, "Print the terrain legend")
	mapCmd.Flags().BoolVar(&flagMapNoColor, "no-color", false, "Disable colours")
}

func runMap(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	eng, _, err := s.latest(args[0], turn.Options{})
	if err != nil {
		return err
	}
	state := eng.Snapshot()

	isTerm, width := textmap.Terminal(os.Stdout)
	opts := textmap.Options{
		Color:     isTerm && !flagMapNoColor,
		Resources: flagMapResources,
	}
	if flagMapPlayer != 0 {
		p, ok := state.Player(world.PlayerID(flagMapPlayer))
		if !ok {
			return fmt.Errorf("unknown player %d", flagMapPlayer)
		}
		opts.Vision = p.Vision
	}
	if width > 0 && state.Grid.Width() > width {
		logger.Warn("map is wider than the terminal", "map", state.Grid.Width(), "terminal", width)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, textmap.Render(state.Grid, opts))
	if flagMapLegend {
		fmt.Fprintln(out)
		fmt.Fprintln(out, textmap.Legend(state.Grid.Vocabulary()))
	}
	return nil
}
