package agents

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/mlsuite/gorl/rl"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// Exploration selects how the Q agent trades off exploration against
// exploitation.
type Exploration string

const (
	// EpsilonGreedy picks a uniformly random action with probability
	// epsilon and the greedy action otherwise.
	EpsilonGreedy Exploration = "epsilon-greedy"
	// Softmax samples actions from a Boltzmann distribution over the
	// action values.
	Softmax Exploration = "softmax"
)

// QConfig holds the learning parameters of a QAgent. It doubles as the
// agent's Optimizer: passing a QConfig to Compile replaces the parameters
// the agent was constructed with.
type QConfig struct {
	Alpha       float64
	Gamma       float64
	Epsilon     float64
	Temperature float64
	Exploration Exploration
	Seed        uint64
}

func (c QConfig) validate() error {
	if c.Alpha <= 0 || c.Alpha > 1 {
		return fmt.Errorf("%w: alpha must be in (0, 1], got %f", rl.ErrInvalidArgument, c.Alpha)
	}
	if c.Gamma < 0 || c.Gamma > 1 {
		return fmt.Errorf("%w: gamma must be in [0, 1], got %f", rl.ErrInvalidArgument, c.Gamma)
	}
	if c.Epsilon < 0 || c.Epsilon > 1 {
		return fmt.Errorf("%w: epsilon must be in [0, 1], got %f", rl.ErrInvalidArgument, c.Epsilon)
	}
	if c.Exploration == Softmax && c.Temperature <= 0 {
		return fmt.Errorf("%w: softmax needs a positive temperature, got %f", rl.ErrInvalidArgument, c.Temperature)
	}
	return nil
}

type transition struct {
	state  string
	action string
	reward float64
}

// QAgent is a tabular Q-learning agent over a discrete action space.
// Forward records the pending transition; the update for (s, a, r, s')
// completes on the next Forward, or immediately on a terminal Backward.
type QAgent struct {
	rl.AgentCore
	cfg       QConfig
	actions   *rl.Discrete[rl.Action]
	byHash    map[string]rl.Action
	qtable    *QTable
	processor rl.Processor
	rng       *rand.Rand

	last    *transition
	pending *transition
	lastTD  float64
}

var _ rl.Agent = &QAgent{}

func NewQAgent(actions *rl.Discrete[rl.Action], cfg QConfig) *QAgent {
	if cfg.Exploration == "" {
		cfg.Exploration = EpsilonGreedy
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	byHash := make(map[string]rl.Action, len(actions.Elements))
	for _, a := range actions.Elements {
		byHash[a.Hash()] = a
	}
	return &QAgent{
		cfg:     cfg,
		actions: actions,
		byHash:  byHash,
		qtable:  NewQTable(),
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// SetProcessor installs an observation processor applied inside Forward.
func (q *QAgent) SetProcessor(p rl.Processor) { q.processor = p }

// Table exposes the learned action values.
func (q *QAgent) Table() *QTable { return q.qtable }

func (q *QAgent) Compile(optimizer rl.Optimizer, metrics []string) error {
	if optimizer != nil {
		cfg, ok := optimizer.(QConfig)
		if !ok {
			return fmt.Errorf("%w: QAgent expects a QConfig optimizer, got %T", rl.ErrInvalidArgument, optimizer)
		}
		if cfg.Exploration == "" {
			cfg.Exploration = q.cfg.Exploration
		}
		cfg.Seed = q.cfg.Seed
		q.cfg = cfg
	}
	if err := q.cfg.validate(); err != nil {
		return err
	}
	q.MarkCompiled()
	return nil
}

// ResetStates drops the partial transition carried across steps.
func (q *QAgent) ResetStates() {
	q.last = nil
	q.pending = nil
}

func (q *QAgent) Forward(observation rl.Observation) (rl.Action, error) {
	if !q.Compiled() {
		return nil, fmt.Errorf("%w: call Compile before Forward", rl.ErrNotCompiled)
	}
	if q.processor != nil {
		observation = q.processor.ProcessObservation(observation)
	}
	state := observation.Hash()
	if q.pending != nil {
		q.learn(q.pending, state, false)
		q.pending = nil
	}
	action, err := q.selectAction(state)
	if err != nil {
		return nil, err
	}
	q.last = &transition{state: state, action: action.Hash()}
	return action, nil
}

func (q *QAgent) Backward(reward float64, terminal bool) (rl.Metrics, error) {
	if q.last == nil {
		return nil, fmt.Errorf("%w: Backward called before Forward", rl.ErrInvalidArgument)
	}
	q.last.reward = reward
	if terminal {
		q.learn(q.last, "", true)
		q.last = nil
		q.pending = nil
	} else {
		q.pending = q.last
		q.last = nil
	}
	return rl.Metrics{
		{Name: "td_error", Value: q.lastTD},
		{Name: "epsilon", Value: q.cfg.Epsilon},
	}, nil
}

func (q *QAgent) MetricsNames() []string {
	return []string{"td_error", "epsilon"}
}

// learn applies the Q update for a completed transition. Frozen when the
// agent is not in training mode.
func (q *QAgent) learn(t *transition, nextState string, terminal bool) {
	if !q.Training() {
		return
	}
	cur := q.qtable.Get(t.state, t.action, 0)
	next := 0.0
	if !terminal {
		_, next = q.qtable.Max(nextState, 0)
	}
	delta := t.reward + q.cfg.Gamma*next - cur
	q.qtable.Assign(t.state, t.action, cur+q.cfg.Alpha*delta)
	q.lastTD = delta
}

func (q *QAgent) selectAction(state string) (rl.Action, error) {
	actions := q.actions.Elements
	switch q.cfg.Exploration {
	case EpsilonGreedy:
		if q.rng.Float64() < q.cfg.Epsilon {
			return actions[q.rng.Intn(len(actions))], nil
		}
		hashes := make([]string, len(actions))
		for i, a := range actions {
			hashes[i] = a.Hash()
		}
		best, _ := q.qtable.MaxAmong(state, hashes, 0)
		return q.byHash[best], nil
	case Softmax:
		sum := 0.0
		weights := make([]float64, len(actions))
		for i, a := range actions {
			weights[i] = math.Exp(q.qtable.Get(state, a.Hash(), 0) / q.cfg.Temperature)
			sum += weights[i]
		}
		for i := range weights {
			weights[i] /= sum
		}
		i, ok := sampleuv.NewWeighted(weights, q.rng).Take()
		if !ok {
			return nil, fmt.Errorf("%w: softmax sampling failed over %d actions", rl.ErrInvalidArgument, len(actions))
		}
		return actions[i], nil
	default:
		return nil, fmt.Errorf("%w: unknown exploration %q", rl.ErrInvalidArgument, q.cfg.Exploration)
	}
}

// SaveWeights persists the Q table as JSON. It refuses to overwrite an
// existing file unless overwrite is set.
func (q *QAgent) SaveWeights(path string, overwrite bool) error {
	if _, err := os.Stat(path); err == nil && !overwrite {
		return fmt.Errorf("refusing to overwrite weights at %s: %w", path, os.ErrExist)
	}
	bs, err := json.Marshal(q.qtable)
	if err != nil {
		return fmt.Errorf("failed to marshal weights: %w", err)
	}
	return os.WriteFile(path, bs, 0644)
}

func (q *QAgent) LoadWeights(path string) error {
	bs, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read weights: %w", err)
	}
	table := NewQTable()
	if err := json.Unmarshal(bs, table); err != nil {
		return fmt.Errorf("failed to parse weights: %w", err)
	}
	q.qtable = table
	return nil
}
