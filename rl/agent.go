package rl

import "fmt"

// Optimizer configures how a concrete agent learns. The core treats it as
// opaque; concrete agents interpret it during Compile.
type Optimizer any

// Agent delegates perception to Forward and learning to Backward.
// Agents must be compiled before they can be fitted or tested, and
// persist across many episodes. Fit and Test are not reentrant on the
// same Agent instance.
type Agent interface {
	// ResetStates clears any internal recurrent or temporal state.
	// Called at the start of every episode.
	ResetStates()
	// Forward computes the action for the current observation. It must
	// not mutate the environment; side effects are limited to internal
	// agent state.
	Forward(observation Observation) (Action, error)
	// Backward consumes the reward obtained from the most recent action
	// and whether the episode ended, and returns the metrics of the
	// learning update.
	Backward(reward float64, terminal bool) (Metrics, error)
	// Compile prepares the agent for training. Compiled reports true
	// afterwards.
	Compile(optimizer Optimizer, metrics []string) error
	// LoadWeights restores the agent's learned state from a file.
	LoadWeights(path string) error
	// SaveWeights persists the agent's learned state. It must refuse to
	// overwrite an existing file unless overwrite is set.
	SaveWeights(path string, overwrite bool) error
	// MetricsNames returns the names matching the Metrics positions.
	// Constant length once compiled.
	MetricsNames() []string

	Compiled() bool
	Training() bool
	SetTraining(training bool)
}

// AgentCore holds the mode flags shared by all agents and supplies
// not-implemented defaults for the abstract operations. Concrete agents
// embed it and override what they support.
type AgentCore struct {
	training bool
	compiled bool
}

func (c *AgentCore) Compiled() bool { return c.compiled }

func (c *AgentCore) Training() bool { return c.training }

func (c *AgentCore) SetTraining(training bool) { c.training = training }

// MarkCompiled is called by a concrete Compile once the agent is ready.
func (c *AgentCore) MarkCompiled() { c.compiled = true }

// ResetStates is a no-op by default.
func (c *AgentCore) ResetStates() {}

func (c *AgentCore) Forward(Observation) (Action, error) {
	return nil, fmt.Errorf("%w: Forward", ErrNotImplemented)
}

func (c *AgentCore) Backward(float64, bool) (Metrics, error) {
	return nil, fmt.Errorf("%w: Backward", ErrNotImplemented)
}

func (c *AgentCore) Compile(Optimizer, []string) error {
	return fmt.Errorf("%w: Compile", ErrNotImplemented)
}

func (c *AgentCore) LoadWeights(string) error {
	return fmt.Errorf("%w: LoadWeights", ErrNotImplemented)
}

func (c *AgentCore) SaveWeights(string, bool) error {
	return fmt.Errorf("%w: SaveWeights", ErrNotImplemented)
}

func (c *AgentCore) MetricsNames() []string { return nil }
