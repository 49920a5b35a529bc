package benchmarks

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mlsuite/gorl/agents"
	"github.com/mlsuite/gorl/envs/grid"
	"github.com/mlsuite/gorl/monitor"
	"github.com/mlsuite/gorl/rl"
)

// EvalConfig drives a single train-then-test session of the Q agent.
type EvalConfig struct {
	Grid         grid.Config
	Q            agents.QConfig
	Episodes     int
	TestEpisodes int
	WeightsFile  string
	LoadWeights  bool
	Overwrite    bool
	MonitorAddr  string
}

// Eval trains a Q agent on the gridworld, optionally saves or restores
// its weights, and reports greedy test performance.
func Eval(ctx context.Context, cfg EvalConfig) error {
	env := grid.NewEnv(cfg.Grid)
	defer env.Close()

	agent := agents.NewQAgent(rl.NewDiscrete[rl.Action](grid.AllMovements...), cfg.Q)
	if err := agent.Compile(nil, nil); err != nil {
		return err
	}
	if cfg.LoadWeights {
		if err := agent.LoadWeights(cfg.WeightsFile); err != nil {
			return err
		}
	}

	callbacks := make([]rl.Callback, 0, 1)
	if cfg.MonitorAddr != "" {
		m := monitor.NewMonitor(cfg.MonitorAddr)
		m.Start(ctx)
		callbacks = append(callbacks, m)
	}

	err := rl.Fit(agent, env, rl.FitConfig{
		Episodes:         cfg.Episodes,
		ActionRepetition: 1,
		Verbose:          1,
		Callbacks:        callbacks,
	})
	if err != nil {
		return err
	}
	if cfg.WeightsFile != "" && !cfg.LoadWeights {
		if err := agent.SaveWeights(cfg.WeightsFile, cfg.Overwrite); err != nil {
			return err
		}
	}

	return rl.Test(agent, env, rl.TestConfig{
		Episodes:         cfg.TestEpisodes,
		ActionRepetition: 1,
		Callbacks:        callbacks,
	})
}

func EvalCommand() *cobra.Command {
	var height int
	var width int
	var rooms int
	var horizon int
	var testEpisodes int
	var alpha float64
	var gamma float64
	var epsilon float64
	var weightsFile string
	var loadWeights bool
	var overwrite bool
	var monitorAddr string

	cmd := &cobra.Command{
		Use: "eval",
		RunE: func(cmd *cobra.Command, args []string) error {
			return Eval(cmd.Context(), EvalConfig{
				Grid: gridConfig(height, width, rooms, horizon),
				Q: agents.QConfig{
					Alpha:   alpha,
					Gamma:   gamma,
					Epsilon: epsilon,
				},
				Episodes:     episodes,
				TestEpisodes: testEpisodes,
				WeightsFile:  weightsFile,
				LoadWeights:  loadWeights,
				Overwrite:    overwrite,
				MonitorAddr:  monitorAddr,
			})
		},
	}
	cmd.PersistentFlags().IntVar(&height, "height", 10, "Height of each room")
	cmd.PersistentFlags().IntVar(&width, "width", 10, "Width of each room")
	cmd.PersistentFlags().IntVar(&rooms, "rooms", 3, "Number of rooms")
	cmd.PersistentFlags().IntVar(&horizon, "horizon", 100, "Step limit of each episode")
	cmd.PersistentFlags().IntVar(&testEpisodes, "test-episodes", 5, "Greedy test episodes after training")
	cmd.PersistentFlags().Float64Var(&alpha, "alpha", 0.1, "Q learning rate")
	cmd.PersistentFlags().Float64Var(&gamma, "gamma", 0.99, "Discount factor")
	cmd.PersistentFlags().Float64Var(&epsilon, "epsilon", 0.1, "Exploration rate")
	cmd.PersistentFlags().StringVarP(&weightsFile, "weights", "w", "", "Path of the Q table weights file")
	cmd.PersistentFlags().BoolVar(&loadWeights, "load", false, "Load weights instead of saving them")
	cmd.PersistentFlags().BoolVar(&overwrite, "overwrite", false, "Overwrite an existing weights file")
	cmd.PersistentFlags().StringVar(&monitorAddr, "monitor", "", "Serve live training state on this address")
	return cmd
}
