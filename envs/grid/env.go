// Package grid implements a multi-room gridworld environment. The agent
// starts in the bottom-left corner of the first room and is rewarded for
// reaching the goal cell; doors teleport it between rooms.
package grid

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/mlsuite/gorl/rl"
)

// Position of the agent: row I, column J in room K.
type Position struct {
	I int
	J int
	K int
}

var _ rl.Observation = Position{}

func (p Position) Hash() string {
	return fmt.Sprintf("(%d, %d, %d)", p.I, p.J, p.K)
}

func (p Position) Eq(other Position) bool {
	return p.I == other.I && p.J == other.J && p.K == other.K
}

// Movement is one step in a cardinal direction, a no-op, or a transition
// through a door.
type Movement struct {
	Direction string
}

var _ rl.Action = Movement{}

func (m Movement) Hash() string {
	return m.Direction
}

var (
	MovementUp    = Movement{"Up"}
	MovementDown  = Movement{"Down"}
	MovementLeft  = Movement{"Left"}
	MovementRight = Movement{"Right"}
	NoMovement    = Movement{"Nothing"}
	NextMovement  = Movement{"Next"}

	AllMovements = []rl.Action{MovementUp, MovementDown, MovementLeft, MovementRight, NoMovement, NextMovement}
)

// Door teleports the agent between rooms when it takes the Next movement
// while standing on the From cell.
type Door struct {
	From Position
	To   Position
}

// Config for the gridworld.
type Config struct {
	Height int
	Width  int
	Rooms  int
	Doors  []Door
	// Goal is the terminal cell.
	Goal Position
	// GoalReward is granted on reaching the goal.
	GoalReward float64
	// StepCost is subtracted on every step.
	StepCost float64
	// StepLimit ends the episode without the goal reward when positive.
	StepLimit int
	// SlipProb is the chance a movement is replaced by a random one.
	SlipProb float64
}

// Env is a gridworld implementing the rl.Env contract. Render and
// Configure are left to UnimplementedEnv.
type Env struct {
	rl.UnimplementedEnv
	cfg   Config
	pos   Position
	steps int
	rng   *rand.Rand
	seed  int64
}

var _ rl.Env = &Env{}

func NewEnv(cfg Config) *Env {
	seed := time.Now().UnixNano()
	return &Env{
		cfg:  cfg,
		pos:  Position{0, 0, 0},
		rng:  rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

func (e *Env) Reset() (rl.Observation, error) {
	e.pos = Position{0, 0, 0}
	e.steps = 0
	return e.pos, nil
}

func (e *Env) Step(a rl.Action) (rl.Timestep, error) {
	movement, ok := a.(Movement)
	if !ok {
		return rl.Timestep{}, fmt.Errorf("%w: not a grid movement: %T", rl.ErrInvalidArgument, a)
	}
	if e.cfg.SlipProb > 0 && e.rng.Float64() < e.cfg.SlipProb {
		movement = AllMovements[e.rng.Intn(len(AllMovements))].(Movement)
	}

	e.pos = e.move(movement)
	e.steps++

	reward := -e.cfg.StepCost
	done := false
	if e.pos.Eq(e.cfg.Goal) {
		reward += e.cfg.GoalReward
		done = true
	} else if e.cfg.StepLimit > 0 && e.steps >= e.cfg.StepLimit {
		done = true
	}

	return rl.Timestep{
		Observation: e.pos,
		Reward:      reward,
		Done:        done,
		Info:        map[string]any{"position": e.pos.Hash(), "steps": e.steps},
	}, nil
}

func (e *Env) move(movement Movement) Position {
	next := e.pos
	switch movement.Direction {
	case "Nothing":
	case "Up":
		next.I = min(e.cfg.Height-1, e.pos.I+1)
	case "Down":
		next.I = max(0, e.pos.I-1)
	case "Left":
		next.J = max(0, e.pos.J-1)
	case "Right":
		next.J = min(e.cfg.Width-1, e.pos.J+1)
	case "Next":
		for _, d := range e.cfg.Doors {
			if d.From.Eq(e.pos) {
				return d.To
			}
		}
	}
	return next
}

func (e *Env) Seed(seed int64) ([]int64, error) {
	e.seed = seed
	e.rng = rand.New(rand.NewSource(seed))
	return []int64{seed}, nil
}

func (e *Env) Close() error { return nil }

func (e *Env) Render(mode string, close bool) error {
	if mode != rl.RenderHuman && mode != rl.RenderAnsi {
		return fmt.Errorf("%w: render mode %q", rl.ErrNotImplemented, mode)
	}
	fmt.Fprintf(os.Stdout, "\rroom %d pos (%d, %d) step %d", e.pos.K, e.pos.I, e.pos.J, e.steps)
	return nil
}

func (e *Env) ActionSpace() rl.Space[rl.Action] {
	return rl.NewDiscrete[rl.Action](AllMovements...)
}

func (e *Env) ObservationSpace() rl.Space[rl.Observation] {
	cells := make([]rl.Observation, 0, e.cfg.Height*e.cfg.Width*max(e.cfg.Rooms, 1))
	for k := 0; k < max(e.cfg.Rooms, 1); k++ {
		for i := 0; i < e.cfg.Height; i++ {
			for j := 0; j < e.cfg.Width; j++ {
				cells = append(cells, Position{i, j, k})
			}
		}
	}
	return rl.NewDiscrete[rl.Observation](cells...)
}
