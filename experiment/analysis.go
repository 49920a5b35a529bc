package experiment

import (
	"fmt"
	"path"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/mlsuite/gorl/rl"
)

// EpisodeRewardAnalyzer collects the total reward of every completed
// episode, optionally smoothed with a trailing moving average.
type EpisodeRewardAnalyzer struct {
	rl.CallbackBase
	window  int
	rewards []float64
}

// EpisodeRewards returns a factory for reward analyzers. A window of 1
// keeps the raw per-episode rewards.
func EpisodeRewards(window int) AnalyzerFactory {
	return func() Analyzer {
		return &EpisodeRewardAnalyzer{window: max(window, 1), rewards: make([]float64, 0)}
	}
}

func (a *EpisodeRewardAnalyzer) OnEpisodeEnd(episode int, logs rl.EpisodeLogs) {
	a.rewards = append(a.rewards, logs.EpisodeReward)
}

func (a *EpisodeRewardAnalyzer) DataSet() DataSet {
	out := make([]float64, len(a.rewards))
	for i := range a.rewards {
		start := max(0, i-a.window+1)
		sum := 0.0
		for _, r := range a.rewards[start : i+1] {
			sum += r
		}
		out[i] = sum / float64(i+1-start)
	}
	return out
}

// CoverageAnalyzer counts the unique observations seen so far after each
// completed episode.
type CoverageAnalyzer struct {
	rl.CallbackBase
	unique     map[string]bool
	perEpisode []int
}

func Coverage() AnalyzerFactory {
	return func() Analyzer {
		return &CoverageAnalyzer{unique: make(map[string]bool), perEpisode: make([]int, 0)}
	}
}

func (a *CoverageAnalyzer) OnStepEnd(step int, logs rl.StepLogs) {
	if logs.Observation != nil {
		a.unique[logs.Observation.Hash()] = true
	}
}

func (a *CoverageAnalyzer) OnEpisodeEnd(episode int, logs rl.EpisodeLogs) {
	a.perEpisode = append(a.perEpisode, len(a.unique))
}

func (a *CoverageAnalyzer) DataSet() DataSet {
	return a.perEpisode
}

// RewardPlotter compares the reward curves of all experiments of a run in
// a single line plot stored under plotPath.
func RewardPlotter(plotPath string) Comparator {
	return func(run int, names []string, datasets []DataSet) error {
		p := plot.New()
		p.Title.Text = "Episode reward"
		p.X.Label.Text = "Episode"
		p.Y.Label.Text = "Reward"
		for i := 0; i < len(names); i++ {
			rewards, ok := datasets[i].([]float64)
			if !ok || len(rewards) == 0 {
				continue
			}
			points := make(plotter.XYs, len(rewards))
			for j, v := range rewards {
				points[j] = plotter.XY{X: float64(j), Y: v}
			}
			line, err := plotter.NewLine(points)
			if err != nil {
				return err
			}
			line.Color = plotutil.Color(i)
			p.Add(line)
			p.Legend.Add(names[i], line)
			fmt.Printf("Final reward: %.3f for experiment: %s\n", rewards[len(rewards)-1], names[i])
		}
		return p.Save(8*vg.Inch, 8*vg.Inch, path.Join(plotPath, strconv.Itoa(run)+"_episode_reward.png"))
	}
}

// CoveragePlotter compares the state coverage curves of all experiments
// of a run in a single line plot stored under plotPath.
func CoveragePlotter(plotPath string) Comparator {
	return func(run int, names []string, datasets []DataSet) error {
		p := plot.New()
		p.Title.Text = "State coverage"
		p.X.Label.Text = "Episode"
		p.Y.Label.Text = "Unique observations"
		for i := 0; i < len(names); i++ {
			covered, ok := datasets[i].([]int)
			if !ok || len(covered) == 0 {
				continue
			}
			points := make(plotter.XYs, len(covered))
			for j, v := range covered {
				points[j] = plotter.XY{X: float64(j), Y: float64(v)}
			}
			line, err := plotter.NewLine(points)
			if err != nil {
				return err
			}
			line.Color = plotutil.Color(i)
			p.Add(line)
			p.Legend.Add(names[i], line)
			fmt.Printf("Unique observations: %d for experiment: %s\n", covered[len(covered)-1], names[i])
		}
		return p.Save(8*vg.Inch, 8*vg.Inch, path.Join(plotPath, strconv.Itoa(run)+"_coverage.png"))
	}
}
