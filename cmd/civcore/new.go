package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/civcore/internal/registry"
	"github.com/vovakirdan/civcore/internal/storage"
	"github.com/vovakirdan/civcore/internal/tiles"
	"github.com/vovakirdan/civcore/internal/turn"
	"github.com/vovakirdan/civcore/internal/world"
)

var (
	flagWidth      int
	flagHeight     int
	flagTopology   string
	flagGenerator  string
	flagWater      int
	flagSeed       uint64
	flagPlayers    []string
	flagStartTechs []string
)

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Generate a map and start a new game",
	Long: `Generate a map with a registered generator, create the players and
store the game at turn 0. Unset flags fall back to the config file.

Generators:
  islands - Fractal islands
  bands   - Smooth terrain bands

Examples:
  civcore new
  civcore new --width 60 --height 40 --topology torus --seed 42
  civcore new --players Romans,Greeks,Celts --start-techs alphabet`,
	Args: cobra.NoArgs,
	RunE: runNew,
}

func init() {
	newCmd.Flags().IntVar(&flagWidth, "width", 0, "Map width in tiles")
	newCmd.Flags().IntVar(&flagHeight, "height", 0, "Map height in tiles")
	newCmd.Flags().StringVar(&flagTopology, "topology", "", "Topology: flat, wrapx, wrapy, torus")
	newCmd.Flags().StringVar(&flagGenerator, "generator", "", "Map generator")
	newCmd.Flags().IntVar(&flagWater, "water", -1, "Water share in percent")
	newCmd.Flags().Uint64Var(&flagSeed, "seed", 0, "World seed (0 = random based on time)")
	newCmd.Flags().StringSliceVar(&flagPlayers, "players", nil, "Civilization names, one player each")
	newCmd.Flags().StringSliceVar(&flagStartTechs, "start-techs", nil, "Technologies every player knows at start")
}

func runNew(cmd *cobra.Command, _ []string) error {
	mc := cfg.Map
	if flagWidth > 0 {
		mc.Width = flagWidth
	}
	if flagHeight > 0 {
		mc.Height = flagHeight
	}
	if flagTopology != "" {
		mc.Topology = flagTopology
	}
	if flagGenerator != "" {
		mc.Generator = flagGenerator
	}
	if flagWater >= 0 {
		mc.WaterPercent = flagWater
	}
	civs := cfg.Game.Players
	if len(flagPlayers) > 0 {
		civs = flagPlayers
	}
	if len(civs) == 0 {
		return fmt.Errorf("at least one player is required")
	}

	topo, err := tiles.ParseTopology(mc.Topology)
	if err != nil {
		return err
	}
	if !registry.Exists(mc.Generator) {
		return fmt.Errorf("unknown generator %q", mc.Generator)
	}
	gen, err := registry.Create(mc.Generator)
	if err != nil {
		return err
	}

	seed := flagSeed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	grid, err := gen.Generate(registry.Params{
		Width:        mc.Width,
		Height:       mc.Height,
		Topology:     topo,
		Seed:         seed,
		WaterPercent: mc.WaterPercent,
		Vocabulary:   s.rules.Vocabulary,
		Generation:   s.rules.Generation,
	})
	if err != nil {
		return fmt.Errorf("generate map: %w", err)
	}

	specs := make([]world.PlayerSpec, len(civs))
	for i, civ := range civs {
		specs[i] = world.PlayerSpec{ID: world.PlayerID(i + 1), Civ: civ, Known: flagStartTechs}
	}
	state, err := world.New(seed, grid, s.rules.Tree, specs)
	if err != nil {
		return err
	}
	eng, err := turn.NewEngine(s.rules, state, turn.Options{})
	if err != nil {
		return err
	}

	gameID := storage.NewGameID()
	if err := s.save(gameID, eng); err != nil {
		return err
	}
	logger.Info("game created", "game", gameID, "generator", gen.ID(), "seed", seed,
		"width", mc.Width, "height", mc.Height, "topology", topo)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Game %s\n", gameID)
	fmt.Fprintf(out, "  Map:     %dx%d %s (%s)\n", grid.Width(), grid.Height(), topo, gen.Title())
	fmt.Fprintf(out, "  Seed:    %d\n", seed)
	fmt.Fprintf(out, "  Ruleset: %s\n", s.rules.Name)
	for _, spec := range specs {
		fmt.Fprintf(out, "  Player %d: %s\n", spec.ID, spec.Civ)
	}
	return nil
}
