package rl

import (
	"fmt"
	"log"
	"math/rand"
	"time"
)

// DefaultLogInterval is the step interval of the interval logger when
// FitConfig.LogInterval is left zero.
const DefaultLogInterval = 10000

// FitConfig configures a training run.
type FitConfig struct {
	// Episodes bounds the run by completed episodes. 0 means no episode
	// budget.
	Episodes int
	// Steps bounds the run by recorded steps. 0 means no step budget.
	Steps int
	// ActionRepetition applies each chosen action up to this many times
	// per step. Must be >= 1.
	ActionRepetition int
	// Callbacks are notified at lifecycle boundaries, in order.
	Callbacks []Callback
	// Verbose > 0 appends a console logger: an episode logger when an
	// episode budget is set, an interval logger otherwise.
	Verbose int
	// Visualize appends a callback that renders the env on every step.
	Visualize bool
	// MaxRandomStartSteps bounds the random warm-up actions taken at
	// episode start. The count is drawn uniformly from [0, max).
	MaxRandomStartSteps int
	// LogInterval is the step period of the interval logger.
	LogInterval int
	// Unbounded must be set explicitly to run without any budget, in
	// which case termination depends solely on the step budget of the
	// caller's process.
	Unbounded bool
	// Rand is the source for warm-up sampling. Time-seeded when nil.
	Rand *rand.Rand
}

// TestConfig configures an evaluation run.
type TestConfig struct {
	// Episodes is the number of full episodes to run. Defaults to 1.
	Episodes int
	// ActionRepetition as in FitConfig. Must be >= 1.
	ActionRepetition int
	Callbacks        []Callback
	Visualize        bool
}

// Fit trains the agent on the environment until an episode or step budget
// is exhausted. The agent must be compiled first.
func Fit(agent Agent, env Env, cfg FitConfig) error {
	if !agent.Compiled() {
		return fmt.Errorf("%w: call Compile before Fit", ErrNotCompiled)
	}
	if cfg.ActionRepetition < 1 {
		return fmt.Errorf("%w: action repetition must be >= 1, got %d", ErrInvalidArgument, cfg.ActionRepetition)
	}
	if cfg.MaxRandomStartSteps < 0 {
		return fmt.Errorf("%w: max random start steps must be >= 0, got %d", ErrInvalidArgument, cfg.MaxRandomStartSteps)
	}
	if cfg.Episodes <= 0 && cfg.Steps <= 0 && !cfg.Unbounded {
		return fmt.Errorf("%w: no episode or step budget, set Unbounded to run without one", ErrInvalidArgument)
	}

	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	agent.SetTraining(true)

	extra := make([]Callback, 0, 2)
	if cfg.Verbose > 0 {
		if cfg.Episodes > 0 {
			extra = append(extra, NewTrainEpisodeLogger())
		} else {
			interval := cfg.LogInterval
			if interval <= 0 {
				interval = DefaultLogInterval
			}
			extra = append(extra, NewTrainIntervalLogger(interval))
		}
	}
	if cfg.Visualize {
		extra = append(extra, NewVisualizer())
	}

	callbacks := NewCallbackList(cfg.Callbacks, extra...)
	callbacks.SetAgent(agent)
	callbacks.SetParams(Params{Episodes: cfg.Episodes, Steps: cfg.Steps, Env: env})
	callbacks.OnTrainBegin()

	episode := 0
	step := 0
	episodeStep := 0
	episodeReward := 0.0
	metricsChecked := false
	var observation Observation

	for (cfg.Episodes <= 0 || episode < cfg.Episodes) && (cfg.Steps <= 0 || step < cfg.Steps) {
		if observation == nil {
			// Start of a new episode.
			callbacks.OnEpisodeBegin(episode)
			episodeStep = 0
			episodeReward = 0

			agent.ResetStates()
			obs, err := resetEnv(env)
			if err != nil {
				return err
			}
			observation = obs

			// Random warm-up actions diversify the initial state and
			// are not recorded as training steps.
			warmup := 0
			if cfg.MaxRandomStartSteps > 0 {
				warmup = rng.Intn(cfg.MaxRandomStartSteps)
			}
			for i := 0; i < warmup; i++ {
				ts, err := env.Step(env.ActionSpace().Sample(rng))
				if err != nil {
					return err
				}
				observation = ts.Observation
				if ts.Done {
					log.Printf("rl: env ended before %d random start steps could be performed, lower MaxRandomStartSteps", warmup)
					obs, err := resetEnv(env)
					if err != nil {
						return err
					}
					observation = obs
					break
				}
			}
		}

		callbacks.OnStepBegin(episodeStep)
		action, err := agent.Forward(observation)
		if err != nil {
			return err
		}
		reward := 0.0
		done := false
		for i := 0; i < cfg.ActionRepetition; i++ {
			ts, err := env.Step(action)
			if err != nil {
				return err
			}
			observation = ts.Observation
			reward += ts.Reward
			if ts.Done {
				done = true
				break
			}
		}
		metrics, err := agent.Backward(reward, done)
		if err != nil {
			return err
		}
		if !metricsChecked {
			if err := checkMetrics(agent, metrics); err != nil {
				return err
			}
			metricsChecked = true
		}
		episodeReward += reward

		callbacks.OnStepEnd(episodeStep, StepLogs{
			Action:      action,
			Observation: observation,
			Reward:      reward,
			Metrics:     metrics,
			Episode:     episode,
		})
		episodeStep++
		step++

		if done {
			callbacks.OnEpisodeEnd(episode, EpisodeLogs{
				EpisodeReward: episodeReward,
				EpisodeSteps:  episodeStep,
				TotalSteps:    step,
			})
			episode++
			observation = nil
			episodeStep = 0
			episodeReward = 0
		}
	}

	callbacks.OnTrainEnd()
	return nil
}

// Test evaluates the agent for a fixed number of full episodes, each run
// to its own terminal state. Backward is still invoked so that agents
// which learn during evaluation may do so, but its metrics are kept out
// of the step logs.
func Test(agent Agent, env Env, cfg TestConfig) error {
	if !agent.Compiled() {
		return fmt.Errorf("%w: call Compile before Test", ErrNotCompiled)
	}
	if cfg.ActionRepetition < 1 {
		return fmt.Errorf("%w: action repetition must be >= 1, got %d", ErrInvalidArgument, cfg.ActionRepetition)
	}
	episodes := cfg.Episodes
	if episodes <= 0 {
		episodes = 1
	}

	agent.SetTraining(false)

	extra := []Callback{NewTestLogger()}
	if cfg.Visualize {
		extra = append(extra, NewVisualizer())
	}

	callbacks := NewCallbackList(cfg.Callbacks, extra...)
	callbacks.SetAgent(agent)
	callbacks.SetParams(Params{Episodes: episodes, Env: env})

	metricsChecked := false
	for episode := 0; episode < episodes; episode++ {
		callbacks.OnEpisodeBegin(episode)
		episodeStep := 0
		episodeReward := 0.0

		agent.ResetStates()
		observation, err := resetEnv(env)
		if err != nil {
			return err
		}

		done := false
		for !done {
			callbacks.OnStepBegin(episodeStep)
			action, err := agent.Forward(observation)
			if err != nil {
				return err
			}
			reward := 0.0
			for i := 0; i < cfg.ActionRepetition; i++ {
				ts, err := env.Step(action)
				if err != nil {
					return err
				}
				observation = ts.Observation
				reward += ts.Reward
				if ts.Done {
					done = true
					break
				}
			}
			metrics, err := agent.Backward(reward, done)
			if err != nil {
				return err
			}
			if !metricsChecked {
				if err := checkMetrics(agent, metrics); err != nil {
					return err
				}
				metricsChecked = true
			}
			episodeReward += reward

			callbacks.OnStepEnd(episodeStep, StepLogs{
				Action:      action,
				Observation: observation,
				Reward:      reward,
				Episode:     episode,
			})
			episodeStep++
		}

		callbacks.OnEpisodeEnd(episode, EpisodeLogs{
			EpisodeReward: episodeReward,
			EpisodeSteps:  episodeStep,
			TotalSteps:    episodeStep,
		})
	}
	return nil
}

func resetEnv(env Env) (Observation, error) {
	obs, err := env.Reset()
	if err != nil {
		return nil, err
	}
	if obs == nil {
		return nil, fmt.Errorf("%w: Reset returned a nil observation", ErrEnvContract)
	}
	return obs, nil
}

func checkMetrics(agent Agent, metrics Metrics) error {
	names := agent.MetricsNames()
	if len(metrics) != len(names) {
		return fmt.Errorf("%w: Backward returned %d metrics, MetricsNames declares %d",
			ErrInvalidArgument, len(metrics), len(names))
	}
	return nil
}
