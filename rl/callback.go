package rl

// Params describes the run a callback is attached to.
type Params struct {
	// Episodes is the episode budget, 0 when the run is step bounded.
	Episodes int
	// Steps is the step budget, 0 when the run is episode bounded.
	Steps int
	// Env being driven by the loop.
	Env Env
}

// StepLogs is passed to OnStepEnd after every recorded step.
type StepLogs struct {
	Action      Action
	Observation Observation
	Reward      float64
	Metrics     Metrics
	Episode     int
}

// EpisodeLogs is passed to OnEpisodeEnd when an episode finishes.
type EpisodeLogs struct {
	// EpisodeReward is the sum of rewards accumulated in the episode.
	EpisodeReward float64
	// EpisodeSteps is the number of recorded steps in the episode.
	EpisodeSteps int
	// TotalSteps is the cumulative step count of the run.
	TotalSteps int
}

// Callback observes the lifecycle of a training or evaluation run.
// Callbacks own logging and visualization side effects; they take no part
// in the loop's decisions.
type Callback interface {
	SetAgent(agent Agent)
	SetParams(params Params)
	OnTrainBegin()
	OnTrainEnd()
	OnEpisodeBegin(episode int)
	OnEpisodeEnd(episode int, logs EpisodeLogs)
	OnStepBegin(step int)
	OnStepEnd(step int, logs StepLogs)
}

// CallbackBase is a no-op Callback to embed in implementations that only
// care about a subset of the lifecycle.
type CallbackBase struct{}

var _ Callback = CallbackBase{}

func (CallbackBase) SetAgent(Agent)               {}
func (CallbackBase) SetParams(Params)             {}
func (CallbackBase) OnTrainBegin()                {}
func (CallbackBase) OnTrainEnd()                  {}
func (CallbackBase) OnEpisodeBegin(int)           {}
func (CallbackBase) OnEpisodeEnd(int, EpisodeLogs) {}
func (CallbackBase) OnStepBegin(int)              {}
func (CallbackBase) OnStepEnd(int, StepLogs)      {}

// CallbackList fans notifications out to an ordered list of callbacks.
type CallbackList struct {
	callbacks []Callback
}

// NewCallbackList builds a list from the caller's callbacks followed by
// extra ones appended by the loop. The caller's slice is never mutated.
func NewCallbackList(callbacks []Callback, extra ...Callback) *CallbackList {
	list := make([]Callback, 0, len(callbacks)+len(extra))
	list = append(list, callbacks...)
	list = append(list, extra...)
	return &CallbackList{callbacks: list}
}

func (c *CallbackList) SetAgent(agent Agent) {
	for _, cb := range c.callbacks {
		cb.SetAgent(agent)
	}
}

func (c *CallbackList) SetParams(params Params) {
	for _, cb := range c.callbacks {
		cb.SetParams(params)
	}
}

func (c *CallbackList) OnTrainBegin() {
	for _, cb := range c.callbacks {
		cb.OnTrainBegin()
	}
}

func (c *CallbackList) OnTrainEnd() {
	for _, cb := range c.callbacks {
		cb.OnTrainEnd()
	}
}

func (c *CallbackList) OnEpisodeBegin(episode int) {
	for _, cb := range c.callbacks {
		cb.OnEpisodeBegin(episode)
	}
}

func (c *CallbackList) OnEpisodeEnd(episode int, logs EpisodeLogs) {
	for _, cb := range c.callbacks {
		cb.OnEpisodeEnd(episode, logs)
	}
}

func (c *CallbackList) OnStepBegin(step int) {
	for _, cb := range c.callbacks {
		cb.OnStepBegin(step)
	}
}

func (c *CallbackList) OnStepEnd(step int, logs StepLogs) {
	for _, cb := range c.callbacks {
		cb.OnStepEnd(step, logs)
	}
}
