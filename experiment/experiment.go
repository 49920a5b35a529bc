// Package experiment runs and compares training configurations: each
// experiment pairs an agent with an environment, runs of a comparison fit
// every experiment under the same budgets, and analyzers compress the
// episodes into datasets that comparators report on.
package experiment

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mlsuite/gorl/rl"
)

// Setup builds a fresh, compiled agent and environment for one run.
type Setup func() (rl.Agent, rl.Env, error)

// Experiment names one agent/environment configuration.
type Experiment struct {
	Name  string
	setup Setup
}

func NewExperiment(name string, setup Setup) *Experiment {
	return &Experiment{Name: name, setup: setup}
}

// DataSet holds the compressed result of analyzing one experiment run.
type DataSet any

// Analyzer observes an experiment through the callback interface and
// compresses its episodes into a DataSet.
type Analyzer interface {
	rl.Callback
	DataSet() DataSet
}

// AnalyzerFactory builds a fresh analyzer per experiment run.
type AnalyzerFactory func() Analyzer

// Comparator reports on the datasets of all experiments of one run.
type Comparator func(run int, names []string, datasets []DataSet) error

// Comparison runs a set of experiments under shared budgets and compares
// their analyzed datasets.
type Comparison struct {
	Experiments []*Experiment
	analyzers   map[string]AnalyzerFactory
	comparators map[string]Comparator
	cfg         Config
}

func NewComparison(cfg Config) (*Comparison, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.RecordPath != "" {
		folders := []string{cfg.RecordPath, filepath.Join(cfg.RecordPath, "plots")}
		if cfg.RecordTraces {
			folders = append(folders, filepath.Join(cfg.RecordPath, "traces"))
		}
		for _, f := range folders {
			if err := os.MkdirAll(f, 0755); err != nil {
				return nil, fmt.Errorf("failed to create record folder: %w", err)
			}
		}
	}
	return &Comparison{
		Experiments: make([]*Experiment, 0),
		analyzers:   make(map[string]AnalyzerFactory),
		comparators: make(map[string]Comparator),
		cfg:         cfg,
	}, nil
}

func (c *Comparison) AddExperiment(e *Experiment) {
	c.Experiments = append(c.Experiments, e)
}

// AddAnalysis registers an analyzer factory and the comparator consuming
// its datasets. The comparator may be nil when only recording.
func (c *Comparison) AddAnalysis(name string, factory AnalyzerFactory, comparator Comparator) {
	c.analyzers[name] = factory
	c.comparators[name] = comparator
}

// PlotPath is where comparators should store their plots.
func (c *Comparison) PlotPath() string {
	if c.cfg.RecordPath == "" {
		return ""
	}
	return filepath.Join(c.cfg.RecordPath, "plots")
}

// Run executes all experiments for every configured run, at most
// Parallelism at a time, then invokes the comparators on the collected
// datasets.
func (c *Comparison) Run(ctx context.Context) error {
	for run := 0; run < c.cfg.Runs; run++ {
		fmt.Printf("Run %d/%d\n", run+1, c.cfg.Runs)

		names := make([]string, len(c.Experiments))
		datasets := make(map[string][]DataSet, len(c.analyzers))
		for name := range c.analyzers {
			datasets[name] = make([]DataSet, len(c.Experiments))
		}

		var mu sync.Mutex
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.cfg.Parallelism)
		for i, e := range c.Experiments {
			i, e := i, e
			names[i] = e.Name
			g.Go(func() error {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				results, err := c.runExperiment(run, e)
				if err != nil {
					return err
				}
				mu.Lock()
				for name, ds := range results {
					datasets[name][i] = ds
				}
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		for name, comp := range c.comparators {
			if comp == nil {
				continue
			}
			if err := comp(run, names, datasets[name]); err != nil {
				return fmt.Errorf("comparator %s: %w", name, err)
			}
		}
	}
	return nil
}

func (c *Comparison) runExperiment(run int, e *Experiment) (map[string]DataSet, error) {
	agent, env, err := e.setup()
	if err != nil {
		return nil, fmt.Errorf("setup of %s: %w", e.Name, err)
	}
	defer func() { _ = env.Close() }()

	analyzers := make(map[string]Analyzer, len(c.analyzers))
	callbacks := make([]rl.Callback, 0, len(c.analyzers)+1)
	for name, factory := range c.analyzers {
		a := factory()
		analyzers[name] = a
		callbacks = append(callbacks, a)
	}
	if c.cfg.RecordTraces {
		tracePath := filepath.Join(c.cfg.RecordPath, "traces", fmt.Sprintf("%s_%d.jsonl", e.Name, run))
		callbacks = append(callbacks, NewTraceRecorder(tracePath))
	}

	err = rl.Fit(agent, env, rl.FitConfig{
		Episodes:            c.cfg.Episodes,
		Steps:               c.cfg.Steps,
		ActionRepetition:    c.cfg.ActionRepetition,
		MaxRandomStartSteps: c.cfg.MaxRandomStartSteps,
		Verbose:             c.cfg.Verbose,
		Callbacks:           callbacks,
	})
	if err != nil {
		return nil, fmt.Errorf("experiment %s: %w", e.Name, err)
	}

	results := make(map[string]DataSet, len(analyzers))
	for name, a := range analyzers {
		results[name] = a.DataSet()
	}
	return results, nil
}
