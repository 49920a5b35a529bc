package experiment

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/mlsuite/gorl/agents"
	"github.com/mlsuite/gorl/envs/grid"
	"github.com/mlsuite/gorl/rl"
)

func gridSetup(seed int64) Setup {
	return func() (rl.Agent, rl.Env, error) {
		env := grid.NewEnv(grid.Config{
			Height:     3,
			Width:      3,
			Rooms:      1,
			Goal:       grid.Position{I: 2, J: 2, K: 0},
			GoalReward: 1,
			StepLimit:  8,
		})
		agent := agents.NewRandomAgent(env.ActionSpace(), seed)
		if err := agent.Compile(nil, nil); err != nil {
			return nil, nil, err
		}
		return agent, env, nil
	}
}

func TestComparisonRun(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Episodes = 3
	cfg.Runs = 2
	cfg.Parallelism = 2
	cfg.RecordPath = t.TempDir()
	cfg.RecordTraces = true

	c, err := NewComparison(cfg)
	if err != nil {
		t.Fatalf("NewComparison failed: %v", err)
	}
	c.AddExperiment(NewExperiment("random_a", gridSetup(1)))
	c.AddExperiment(NewExperiment("random_b", gridSetup(2)))

	type captured struct {
		names    []string
		datasets []DataSet
	}
	compared := make(map[int]captured)
	c.AddAnalysis("episode_reward", EpisodeRewards(1), func(run int, names []string, datasets []DataSet) error {
		compared[run] = captured{names: names, datasets: datasets}
		return nil
	})

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(compared) != cfg.Runs {
		t.Fatalf("comparator ran %d times, want %d", len(compared), cfg.Runs)
	}
	for run, got := range compared {
		if len(got.names) != 2 || got.names[0] != "random_a" || got.names[1] != "random_b" {
			t.Errorf("run %d names: %v", run, got.names)
		}
		for i, ds := range got.datasets {
			rewards, ok := ds.([]float64)
			if !ok {
				t.Fatalf("run %d dataset %d is %T", run, i, ds)
			}
			if len(rewards) != cfg.Episodes {
				t.Errorf("run %d experiment %d: %d episodes analyzed, want %d", run, i, len(rewards), cfg.Episodes)
			}
		}
	}

	for run := 0; run < cfg.Runs; run++ {
		for _, name := range []string{"random_a", "random_b"} {
			tracePath := filepath.Join(cfg.RecordPath, "traces", fmt.Sprintf("%s_%d.jsonl", name, run))
			if _, err := os.Stat(tracePath); err != nil {
				t.Errorf("trace file missing: %v", err)
			}
		}
	}
}

func TestComparisonPropagatesSetupError(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Episodes = 1

	c, err := NewComparison(cfg)
	if err != nil {
		t.Fatalf("NewComparison failed: %v", err)
	}
	broken := errors.New("no environment")
	c.AddExperiment(NewExperiment("broken", func() (rl.Agent, rl.Env, error) {
		return nil, nil, broken
	}))

	if err := c.Run(context.Background()); !errors.Is(err, broken) {
		t.Errorf("got %v, want the setup error", err)
	}
}

func TestComparisonRejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	if _, err := NewComparison(cfg); !errors.Is(err, rl.ErrInvalidArgument) {
		t.Errorf("got %v, want ErrInvalidArgument", err)
	}
}
