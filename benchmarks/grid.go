package benchmarks

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mlsuite/gorl/agents"
	"github.com/mlsuite/gorl/envs/grid"
	"github.com/mlsuite/gorl/experiment"
	"github.com/mlsuite/gorl/rl"
)

func gridConfig(height, width, rooms, horizon int) grid.Config {
	doors := make([]grid.Door, 0, rooms)
	for k := 0; k < rooms-1; k++ {
		doors = append(doors, grid.Door{
			From: grid.Position{I: height - 1, J: width - 1, K: k},
			To:   grid.Position{I: 0, J: 0, K: k + 1},
		})
	}
	return grid.Config{
		Height:     height,
		Width:      width,
		Rooms:      rooms,
		Doors:      doors,
		Goal:       grid.Position{I: height - 1, J: width - 1, K: rooms - 1},
		GoalReward: 1,
		StepCost:   0.01,
		StepLimit:  horizon,
	}
}

func gridSetup(gcfg grid.Config, build func(actions *rl.Discrete[rl.Action]) rl.Agent) experiment.Setup {
	return func() (rl.Agent, rl.Env, error) {
		env := grid.NewEnv(gcfg)
		agent := build(rl.NewDiscrete[rl.Action](grid.AllMovements...))
		if err := agent.Compile(nil, nil); err != nil {
			return nil, nil, err
		}
		return agent, env, nil
	}
}

// GridBenchmark compares a random baseline against epsilon-greedy and
// softmax Q learners on the multi-room gridworld.
func GridBenchmark(ctx context.Context, cfg experiment.Config, gcfg grid.Config) error {
	c, err := experiment.NewComparison(cfg)
	if err != nil {
		return err
	}
	c.AddAnalysis("episode_reward", experiment.EpisodeRewards(10), experiment.RewardPlotter(c.PlotPath()))
	c.AddAnalysis("coverage", experiment.Coverage(), experiment.CoveragePlotter(c.PlotPath()))

	c.AddExperiment(experiment.NewExperiment(
		"random",
		gridSetup(gcfg, func(actions *rl.Discrete[rl.Action]) rl.Agent {
			return agents.NewRandomAgent(actions, 0)
		}),
	))
	c.AddExperiment(experiment.NewExperiment(
		"q_epsilon_greedy",
		gridSetup(gcfg, func(actions *rl.Discrete[rl.Action]) rl.Agent {
			return agents.NewQAgent(actions, agents.QConfig{
				Alpha:   0.1,
				Gamma:   0.99,
				Epsilon: 0.1,
			})
		}),
	))
	c.AddExperiment(experiment.NewExperiment(
		"q_softmax",
		gridSetup(gcfg, func(actions *rl.Discrete[rl.Action]) rl.Agent {
			return agents.NewQAgent(actions, agents.QConfig{
				Alpha:       0.1,
				Gamma:       0.99,
				Temperature: 1,
				Exploration: agents.Softmax,
			})
		}),
	))

	return c.Run(ctx)
}

func GridCommand() *cobra.Command {
	var height int
	var width int
	var rooms int
	var horizon int
	var configFile string

	cmd := &cobra.Command{
		Use: "grid",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := experiment.DefaultConfig()
			cfg.Episodes = episodes
			cfg.Steps = steps
			cfg.Runs = runs
			cfg.Parallelism = parallel
			cfg.RecordPath = saveFile
			if configFile != "" {
				loaded, err := experiment.LoadConfig(os.DirFS(filepath.Dir(configFile)), filepath.Base(configFile))
				if err != nil {
					return err
				}
				cfg = *loaded
			}
			return GridBenchmark(cmd.Context(), cfg, gridConfig(height, width, rooms, horizon))
		},
	}
	cmd.PersistentFlags().IntVar(&height, "height", 10, "Height of each room")
	cmd.PersistentFlags().IntVar(&width, "width", 10, "Width of each room")
	cmd.PersistentFlags().IntVar(&rooms, "rooms", 3, "Number of rooms")
	cmd.PersistentFlags().IntVar(&horizon, "horizon", 100, "Step limit of each episode")
	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "TOML comparison config, overrides the run flags")
	return cmd
}
