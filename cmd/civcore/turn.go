package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/civcore/internal/turn"
)

var (
	flagTargets []string
	flagIncome  []string
	flagSight   []string
	flagCount   int
)

var turnCmd = &cobra.Command{
	Use:   "turn <game>",
	Short: "Advance a game",
	Long: `Load the latest snapshot of a game, queue research targets, mark every
player ready and advance. Income and sightings stand in for the city and
unit layers and apply to every advanced turn. Each new turn is stored.

Examples:
  civcore turn <game> --target 1=alphabet --income 1=3
  civcore turn <game> --income 1=5 --income 2=4 --count 10
  civcore turn <game> --sight 1=10,4 --sight 1=12,6,2`,
	Args: cobra.ExactArgs(1),
	RunE: runTurn,
}

func init() {
	turnCmd.Flags().StringArrayVar(&flagTargets, "target", nil, "Research target as player=tech (repeatable)")
	turnCmd.Flags().StringArrayVar(&flagIncome, "income", nil, "Bulbs per turn as player=amount (repeatable)")
	turnCmd.Flags().StringArrayVar(&flagSight, "sight", nil, "Sighting as player=x,y[,radius] (repeatable)")
	turnCmd.Flags().IntVar(&flagCount, "count", 1, "Number of turns to advance")
}

func runTurn(cmd *cobra.Command, args []string) error {
	gameID := args[0]
	if flagCount < 1 {
		return fmt.Errorf("--count must be at least 1")
	}
	targets, err := parseTargets(flagTargets)
	if err != nil {
		return err
	}
	income, err := parseIncome(flagIncome)
	if err != nil {
		return err
	}
	sight, err := parseSight(flagSight)
	if err != nil {
		return err
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	eng, _, err := s.latest(gameID, turn.Options{Income: income, Sight: sight})
	if err != nil {
		return err
	}

	for _, t := range targets {
		if err := eng.Submit(t); err != nil {
			return fmt.Errorf("player %d target %s: %w", t.Player, t.Tech, err)
		}
	}

	out := cmd.OutOrStdout()
	for range flagCount {
		for _, id := range eng.Players() {
			if err := eng.Submit(turn.EndTurnReady{Player: id}); err != nil {
				return err
			}
		}
		events, err := eng.Advance(cmd.Context())
		if err != nil {
			return fmt.Errorf("advance turn %d: %w", eng.Turn(), err)
		}
		printEvents(out, events)
		if err := s.save(gameID, eng); err != nil {
			return err
		}
		logger.Info("turn advanced", "game", gameID, "turn", eng.Turn(), "events", len(events))
	}
	return nil
}

func printEvents(w io.Writer, events []turn.Event) {
	for _, ev := range events {
		switch e := ev.(type) {
		case turn.TechnologyLearned:
			fmt.Fprintf(w, "  player %d learned %s\n", e.Player, e.Tech)
		case turn.TurnAdvanced:
			fmt.Fprintf(w, "Turn %d\n", e.Turn)
		}
	}
}
