package rl

// Processor transforms observations between the environment and an agent.
// The training loop does not invoke it directly; concrete agents apply it
// inside Forward and Backward.
type Processor interface {
	// ProcessObservation shapes a raw observation before it is stored.
	ProcessObservation(observation Observation) Observation
	// ProcessStateBatch shapes a batch of stacked observations before it
	// is handed to a learned function approximator.
	ProcessStateBatch(batch []Observation) []Observation
}

// NoopProcessor passes observations through unchanged.
type NoopProcessor struct{}

var _ Processor = NoopProcessor{}

func (NoopProcessor) ProcessObservation(observation Observation) Observation {
	return observation
}

func (NoopProcessor) ProcessStateBatch(batch []Observation) []Observation {
	return batch
}
