// Package benchmarks wires the agents, environments and the experiment
// harness into runnable commands.
package benchmarks

import "github.com/spf13/cobra"

var (
	episodes int
	steps    int
	runs     int
	saveFile string
	parallel int
)

func GetRootCommand() *cobra.Command {
	rootCommand := &cobra.Command{
		Use: "gorl",
	}
	rootCommand.PersistentFlags().IntVarP(&episodes, "episodes", "e", 1000, "Number of training episodes")
	rootCommand.PersistentFlags().IntVar(&steps, "steps", 0, "Total step budget, 0 for episode-bounded runs")
	rootCommand.PersistentFlags().IntVar(&runs, "runs", 1, "Number of experiment runs")
	rootCommand.PersistentFlags().StringVarP(&saveFile, "save", "s", "results", "Save the result data in the specified folder")
	rootCommand.PersistentFlags().IntVar(&parallel, "parallelism", 1, "Experiments to run concurrently within a run")
	rootCommand.AddCommand(GridCommand())
	rootCommand.AddCommand(EvalCommand())
	return rootCommand
}
