package agents

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/mlsuite/gorl/rl"
)

// RandomAgent samples uniformly from the action space. It learns nothing
// and serves as the baseline in comparisons.
type RandomAgent struct {
	rl.AgentCore
	actions rl.Space[rl.Action]
	rng     *rand.Rand
}

var _ rl.Agent = &RandomAgent{}

func NewRandomAgent(actions rl.Space[rl.Action], seed int64) *RandomAgent {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandomAgent{
		actions: actions,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

func (r *RandomAgent) Compile(optimizer rl.Optimizer, metrics []string) error {
	if r.actions == nil {
		return fmt.Errorf("%w: RandomAgent needs an action space", rl.ErrInvalidArgument)
	}
	r.MarkCompiled()
	return nil
}

func (r *RandomAgent) Forward(observation rl.Observation) (rl.Action, error) {
	if !r.Compiled() {
		return nil, fmt.Errorf("%w: call Compile before Forward", rl.ErrNotCompiled)
	}
	return r.actions.Sample(r.rng), nil
}

func (r *RandomAgent) Backward(reward float64, terminal bool) (rl.Metrics, error) {
	return rl.Metrics{}, nil
}

func (r *RandomAgent) MetricsNames() []string { return []string{} }
