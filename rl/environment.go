package rl

import "fmt"

// Observation is what an agent perceives from an environment.
// Observations are indexed by their Hash, which should be deterministic.
type Observation interface {
	Hash() string
}

// Action that an agent can apply to an environment.
// Indexed by the Hash, which should be deterministic.
type Action interface {
	Hash() string
}

// Timestep is the result of applying one action to an environment.
type Timestep struct {
	// Observation of the environment after the action was applied.
	Observation Observation
	// Reward obtained for the action.
	Reward float64
	// Done reports whether the episode has ended. Once true, Step
	// behaviour is undefined until Reset is called.
	Done bool
	// Info carries auxiliary diagnostic information.
	Info map[string]any
}

// Render modes supported by convention.
const (
	RenderHuman = "human"
	RenderAnsi  = "ansi"
)

// Env is a stateful simulator driven by the training loop.
type Env interface {
	// Reset starts a new episode and returns the initial observation,
	// which must not be nil.
	Reset() (Observation, error)
	// Step runs one timestep of the environment's dynamics.
	Step(action Action) (Timestep, error)
	// Render draws the current state in the given mode.
	Render(mode string, close bool) error
	// Close releases any resources held by the environment.
	Close() error
	// Seed seeds the environment's random number generators and returns
	// the list of seeds in use, main seed first.
	Seed(seed int64) ([]int64, error)
	// Configure provides runtime configuration that does not affect the
	// semantics of the environment.
	Configure(opts map[string]any) error

	ActionSpace() Space[Action]
	ObservationSpace() Space[Observation]
}

// UnimplementedEnv returns ErrNotImplemented from every operation.
// Embed it in concrete environments to implement only a subset of Env.
type UnimplementedEnv struct{}

func (UnimplementedEnv) Reset() (Observation, error) {
	return nil, fmt.Errorf("%w: Reset", ErrNotImplemented)
}

func (UnimplementedEnv) Step(Action) (Timestep, error) {
	return Timestep{}, fmt.Errorf("%w: Step", ErrNotImplemented)
}

func (UnimplementedEnv) Render(string, bool) error {
	return fmt.Errorf("%w: Render", ErrNotImplemented)
}

func (UnimplementedEnv) Close() error {
	return fmt.Errorf("%w: Close", ErrNotImplemented)
}

func (UnimplementedEnv) Seed(int64) ([]int64, error) {
	return nil, fmt.Errorf("%w: Seed", ErrNotImplemented)
}

func (UnimplementedEnv) Configure(map[string]any) error {
	return fmt.Errorf("%w: Configure", ErrNotImplemented)
}

func (UnimplementedEnv) ActionSpace() Space[Action] { return nil }

func (UnimplementedEnv) ObservationSpace() Space[Observation] { return nil }
