package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/civcore/internal/research"
	"github.com/vovakirdan/civcore/internal/ruleset"
)

var (
	flagGoal  string
	flagKnown []string
)

var techsCmd = &cobra.Command{
	Use:   "techs",
	Short: "List technologies in research order",
	Long: `List every technology of the ruleset in prerequisite order with its
cost and the total cost including all prerequisites. With --goal only the
technologies still needed to reach the goal are listed.

Examples:
  civcore techs
  civcore techs --goal monarchy
  civcore techs --goal the_republic --known alphabet,code_of_laws`,
	Args: cobra.NoArgs,
	RunE: runTechs,
}

func init() {
	techsCmd.Flags().StringVar(&flagGoal, "goal", "", "Only list the path to this technology")
	techsCmd.Flags().StringSliceVar(&flagKnown, "known", nil, "Technologies already known, for --goal")
}

func runTechs(cmd *cobra.Command, _ []string) error {
	rules, err := ruleset.Load(cfg.Ruleset.Path)
	if err != nil {
		return err
	}
	tree := rules.Tree

	ids := tree.TopologicalOrder()
	if flagGoal != "" {
		if ids, err = tree.ResearchPath(research.NewSet(flagKnown...), flagGoal); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if len(ids) == 0 {
		fmt.Fprintln(out, "Nothing left to research.")
		return nil
	}

	// Calculate column widths
	maxNameLen := 4 // "Name" header
	for _, id := range ids {
		if tech, _ := tree.Technology(id); len(tech.Name) > maxNameLen {
			maxNameLen = len(tech.Name)
		}
	}

	fmt.Fprintf(out, "  %-*s  %6s  %6s  %s\n", maxNameLen, "Name", "Cost", "Total", "Requires")
	fmt.Fprintf(out, "  %-*s  %6s  %6s  %s\n", maxNameLen, "----", "----", "-----", "--------")

	var sum int64
	for _, id := range ids {
		tech, _ := tree.Technology(id)
		total, err := tree.TotalCost(id)
		if err != nil {
			return err
		}
		sum += tech.Cost
		fmt.Fprintf(out, "  %-*s  %6d  %6d  %v\n", maxNameLen, tech.Name, tech.Cost, total, tech.Requires)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "%d technologies, %d bulbs\n", len(ids), sum)
	return nil
}
