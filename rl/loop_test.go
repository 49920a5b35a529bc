package rl

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"
)

type testObs struct{ id string }

func (o testObs) Hash() string { return o.id }

type testAction struct{ id string }

func (a testAction) Hash() string { return a.id }

// scriptedEnv runs fixed-length episodes with a constant per-step reward.
type scriptedEnv struct {
	UnimplementedEnv
	episodeLen int
	stepReward float64

	steps     int
	resets    int
	stepCalls int
}

func (e *scriptedEnv) Reset() (Observation, error) {
	e.resets++
	e.steps = 0
	return testObs{fmt.Sprintf("reset-%d", e.resets)}, nil
}

func (e *scriptedEnv) Step(a Action) (Timestep, error) {
	e.stepCalls++
	e.steps++
	return Timestep{
		Observation: testObs{fmt.Sprintf("obs-%d-%d", e.resets, e.steps)},
		Reward:      e.stepReward,
		Done:        e.steps >= e.episodeLen,
	}, nil
}

func (e *scriptedEnv) ActionSpace() Space[Action] {
	return NewDiscrete[Action](testAction{"left"}, testAction{"right"})
}

type backwardCall struct {
	reward   float64
	terminal bool
}

type countingAgent struct {
	AgentCore
	forwardCalls int
	resetCalls   int
	backward     []backwardCall
	metrics      Metrics
	names        []string
}

func (a *countingAgent) Compile(Optimizer, []string) error {
	a.MarkCompiled()
	return nil
}

func (a *countingAgent) ResetStates() { a.resetCalls++ }

func (a *countingAgent) Forward(obs Observation) (Action, error) {
	if obs == nil {
		return nil, errors.New("nil observation in Forward")
	}
	a.forwardCalls++
	return testAction{"left"}, nil
}

func (a *countingAgent) Backward(reward float64, terminal bool) (Metrics, error) {
	a.backward = append(a.backward, backwardCall{reward, terminal})
	return a.metrics, nil
}

func (a *countingAgent) MetricsNames() []string { return a.names }

// recorder captures every callback notification in order.
type recorder struct {
	events      []string
	stepEnds    []StepLogs
	episodeEnds []EpisodeLogs
}

func (r *recorder) SetAgent(Agent)   { r.events = append(r.events, "set_agent") }
func (r *recorder) SetParams(Params) { r.events = append(r.events, "set_params") }
func (r *recorder) OnTrainBegin()    { r.events = append(r.events, "train_begin") }
func (r *recorder) OnTrainEnd()      { r.events = append(r.events, "train_end") }

func (r *recorder) OnEpisodeBegin(episode int) {
	r.events = append(r.events, fmt.Sprintf("episode_begin:%d", episode))
}

func (r *recorder) OnEpisodeEnd(episode int, logs EpisodeLogs) {
	r.events = append(r.events, fmt.Sprintf("episode_end:%d", episode))
	r.episodeEnds = append(r.episodeEnds, logs)
}

func (r *recorder) OnStepBegin(step int) {
	r.events = append(r.events, fmt.Sprintf("step_begin:%d", step))
}

func (r *recorder) OnStepEnd(step int, logs StepLogs) {
	r.events = append(r.events, fmt.Sprintf("step_end:%d", step))
	r.stepEnds = append(r.stepEnds, logs)
}

func compiledAgent(t *testing.T) *countingAgent {
	t.Helper()
	agent := &countingAgent{}
	if err := agent.Compile(nil, nil); err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	return agent
}

func TestFitCallbackOrdering(t *testing.T) {
	agent := compiledAgent(t)
	env := &scriptedEnv{episodeLen: 2, stepReward: 1}
	rec := &recorder{}

	err := Fit(agent, env, FitConfig{Episodes: 1, ActionRepetition: 1, Callbacks: []Callback{rec}})
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	want := []string{
		"set_agent", "set_params", "train_begin",
		"episode_begin:0",
		"step_begin:0", "step_end:0",
		"step_begin:1", "step_end:1",
		"episode_end:0",
		"train_end",
	}
	if len(rec.events) != len(want) {
		t.Fatalf("got %d events %v, want %d", len(rec.events), rec.events, len(want))
	}
	for i, e := range want {
		if rec.events[i] != e {
			t.Errorf("event %d: got %q, want %q", i, rec.events[i], e)
		}
	}
}

func TestFitEpisodeCounts(t *testing.T) {
	agent := compiledAgent(t)
	env := &scriptedEnv{episodeLen: 3, stepReward: 0.5}
	rec := &recorder{}

	err := Fit(agent, env, FitConfig{Episodes: 4, ActionRepetition: 1, Callbacks: []Callback{rec}})
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	begins, ends, trainBegins, trainEnds := 0, 0, 0, 0
	for _, e := range rec.events {
		switch e {
		case "train_begin":
			trainBegins++
		case "train_end":
			trainEnds++
		}
		var idx int
		if _, err := fmt.Sscanf(e, "episode_begin:%d", &idx); err == nil {
			if idx != begins {
				t.Errorf("episode_begin out of order: got %d, want %d", idx, begins)
			}
			begins++
		}
		if _, err := fmt.Sscanf(e, "episode_end:%d", &idx); err == nil {
			if idx != ends {
				t.Errorf("episode_end out of order: got %d, want %d", idx, ends)
			}
			ends++
		}
	}
	if begins != 4 || ends != 4 {
		t.Errorf("got %d begins, %d ends, want 4 each", begins, ends)
	}
	if trainBegins != 1 || trainEnds != 1 {
		t.Errorf("got %d train begins, %d train ends, want 1 each", trainBegins, trainEnds)
	}
	if agent.resetCalls != 4 {
		t.Errorf("ResetStates called %d times, want 4", agent.resetCalls)
	}
}

func TestFitEpisodeRewardSum(t *testing.T) {
	agent := compiledAgent(t)
	env := &scriptedEnv{episodeLen: 5, stepReward: 0.25}
	rec := &recorder{}

	err := Fit(agent, env, FitConfig{Episodes: 2, ActionRepetition: 1, Callbacks: []Callback{rec}})
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	if len(rec.episodeEnds) != 2 {
		t.Fatalf("got %d episode ends, want 2", len(rec.episodeEnds))
	}
	for i, logs := range rec.episodeEnds {
		if logs.EpisodeReward != 1.25 {
			t.Errorf("episode %d reward: got %f, want 1.25", i, logs.EpisodeReward)
		}
		if logs.EpisodeSteps != 5 {
			t.Errorf("episode %d steps: got %d, want 5", i, logs.EpisodeSteps)
		}
	}
}

func TestFitActionRepetition(t *testing.T) {
	agent := compiledAgent(t)
	env := &scriptedEnv{episodeLen: 5, stepReward: 1}
	rec := &recorder{}

	err := Fit(agent, env, FitConfig{Episodes: 1, ActionRepetition: 2, Callbacks: []Callback{rec}})
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	// 5 env steps: two full repetitions then an early stop on done.
	if agent.forwardCalls != 3 {
		t.Errorf("forward calls: got %d, want 3", agent.forwardCalls)
	}
	if env.stepCalls != 5 {
		t.Errorf("env step calls: got %d, want 5", env.stepCalls)
	}
	wantRewards := []backwardCall{{2, false}, {2, false}, {1, true}}
	if len(agent.backward) != len(wantRewards) {
		t.Fatalf("backward calls: got %d, want %d", len(agent.backward), len(wantRewards))
	}
	for i, want := range wantRewards {
		if agent.backward[i] != want {
			t.Errorf("backward %d: got %+v, want %+v", i, agent.backward[i], want)
		}
	}
	if rec.episodeEnds[0].EpisodeReward != 5 {
		t.Errorf("episode reward: got %f, want 5", rec.episodeEnds[0].EpisodeReward)
	}
}

func TestFitNotCompiled(t *testing.T) {
	agent := &countingAgent{}
	env := &scriptedEnv{episodeLen: 2}

	err := Fit(agent, env, FitConfig{Episodes: 1, ActionRepetition: 1})
	if !errors.Is(err, ErrNotCompiled) {
		t.Fatalf("got %v, want ErrNotCompiled", err)
	}
	if env.resets != 0 || env.stepCalls != 0 {
		t.Errorf("env touched before precondition check: resets=%d steps=%d", env.resets, env.stepCalls)
	}
}

func TestFitBadActionRepetition(t *testing.T) {
	agent := compiledAgent(t)
	env := &scriptedEnv{episodeLen: 2}

	err := Fit(agent, env, FitConfig{Episodes: 1, ActionRepetition: 0})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("got %v, want ErrInvalidArgument", err)
	}
	if env.resets != 0 || env.stepCalls != 0 {
		t.Errorf("env touched before argument check: resets=%d steps=%d", env.resets, env.stepCalls)
	}
}

func TestFitRequiresBudget(t *testing.T) {
	agent := compiledAgent(t)
	env := &scriptedEnv{episodeLen: 2}

	err := Fit(agent, env, FitConfig{ActionRepetition: 1})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("got %v, want ErrInvalidArgument without a budget", err)
	}
}

func TestFitStepBudget(t *testing.T) {
	agent := compiledAgent(t)
	env := &scriptedEnv{episodeLen: 2, stepReward: 1}
	rec := &recorder{}

	err := Fit(agent, env, FitConfig{Steps: 3, ActionRepetition: 1, Callbacks: []Callback{rec}})
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	// The budget cuts the second episode after its first step.
	if len(rec.stepEnds) != 3 {
		t.Errorf("recorded steps: got %d, want 3", len(rec.stepEnds))
	}
	if len(rec.episodeEnds) != 1 {
		t.Errorf("completed episodes: got %d, want 1", len(rec.episodeEnds))
	}
}

func TestFitNilObservationFromReset(t *testing.T) {
	agent := compiledAgent(t)
	env := &nilResetEnv{}

	err := Fit(agent, env, FitConfig{Episodes: 1, ActionRepetition: 1})
	if !errors.Is(err, ErrEnvContract) {
		t.Fatalf("got %v, want ErrEnvContract", err)
	}
}

type nilResetEnv struct {
	UnimplementedEnv
}

func (e *nilResetEnv) Reset() (Observation, error) { return nil, nil }

func TestFitNoRandomStarts(t *testing.T) {
	agent := compiledAgent(t)
	env := &scriptedEnv{episodeLen: 4, stepReward: 1}
	rec := &recorder{}

	err := Fit(agent, env, FitConfig{Episodes: 2, ActionRepetition: 1, Callbacks: []Callback{rec}})
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if env.stepCalls != len(rec.stepEnds) {
		t.Errorf("extra env steps without random starts: %d env calls, %d recorded", env.stepCalls, len(rec.stepEnds))
	}
}

func TestFitRandomStarts(t *testing.T) {
	const maxStarts = 5
	for seed := int64(0); seed < 10; seed++ {
		agent := compiledAgent(t)
		env := &scriptedEnv{episodeLen: 100, stepReward: 1}
		rec := &recorder{}

		err := Fit(agent, env, FitConfig{
			Episodes:            1,
			ActionRepetition:    1,
			MaxRandomStartSteps: maxStarts,
			Callbacks:           []Callback{rec},
			Rand:                rand.New(rand.NewSource(seed)),
		})
		if err != nil {
			t.Fatalf("seed %d: Fit failed: %v", seed, err)
		}

		warmup := env.stepCalls - len(rec.stepEnds)
		if warmup < 0 || warmup >= maxStarts {
			t.Errorf("seed %d: warmup steps %d outside [0, %d)", seed, warmup, maxStarts)
		}
		// Warm-up steps are invisible to callbacks and to the reward.
		logs := rec.episodeEnds[0]
		if logs.EpisodeSteps != len(rec.stepEnds) {
			t.Errorf("seed %d: episode steps %d, recorded %d", seed, logs.EpisodeSteps, len(rec.stepEnds))
		}
		if logs.EpisodeReward != float64(logs.EpisodeSteps) {
			t.Errorf("seed %d: episode reward %f, want %f", seed, logs.EpisodeReward, float64(logs.EpisodeSteps))
		}
	}
}

func TestFitRandomStartEndsEpisode(t *testing.T) {
	// When the env terminates during warm-up the loop warns, resets again
	// and proceeds with the episode.
	sawRestart := false
	for seed := int64(0); seed < 20; seed++ {
		agent := compiledAgent(t)
		env := &scriptedEnv{episodeLen: 1, stepReward: 1}
		rec := &recorder{}

		err := Fit(agent, env, FitConfig{
			Episodes:            1,
			ActionRepetition:    1,
			MaxRandomStartSteps: 5,
			Callbacks:           []Callback{rec},
			Rand:                rand.New(rand.NewSource(seed)),
		})
		if err != nil {
			t.Fatalf("seed %d: Fit failed: %v", seed, err)
		}
		if len(rec.episodeEnds) != 1 || rec.episodeEnds[0].EpisodeSteps != 1 {
			t.Fatalf("seed %d: episode not completed after warm-up restart: %+v", seed, rec.episodeEnds)
		}
		if env.resets == 2 {
			sawRestart = true
		}
	}
	if !sawRestart {
		t.Error("no seed triggered a warm-up restart")
	}
}

func TestFitMetricsLengthMismatch(t *testing.T) {
	agent := compiledAgent(t)
	agent.metrics = Metrics{{Name: "loss", Value: 1}}
	agent.names = nil
	env := &scriptedEnv{episodeLen: 2, stepReward: 1}

	err := Fit(agent, env, FitConfig{Episodes: 1, ActionRepetition: 1})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("got %v, want ErrInvalidArgument on metrics drift", err)
	}
}

func TestFitSetsTrainingMode(t *testing.T) {
	agent := compiledAgent(t)
	env := &scriptedEnv{episodeLen: 2}
	if err := Fit(agent, env, FitConfig{Episodes: 1, ActionRepetition: 1}); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if !agent.Training() {
		t.Error("Fit did not set training mode")
	}
	if err := Test(agent, env, TestConfig{Episodes: 1, ActionRepetition: 1}); err != nil {
		t.Fatalf("Test failed: %v", err)
	}
	if agent.Training() {
		t.Error("Test did not clear training mode")
	}
}

func TestFitEndToEnd(t *testing.T) {
	agent := compiledAgent(t)
	env := &scriptedEnv{episodeLen: 2, stepReward: 1}
	rec := &recorder{}

	err := Fit(agent, env, FitConfig{Episodes: 3, ActionRepetition: 1, Callbacks: []Callback{rec}})
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	if len(rec.episodeEnds) != 3 {
		t.Fatalf("got %d episode ends, want 3", len(rec.episodeEnds))
	}
	wantTotals := []int{2, 4, 6}
	for i, logs := range rec.episodeEnds {
		if logs.EpisodeReward != 2.0 {
			t.Errorf("episode %d reward: got %f, want 2.0", i, logs.EpisodeReward)
		}
		if logs.TotalSteps != wantTotals[i] {
			t.Errorf("episode %d total steps: got %d, want %d", i, logs.TotalSteps, wantTotals[i])
		}
	}
}

func TestFitDoneOnFirstStep(t *testing.T) {
	agent := compiledAgent(t)
	env := &scriptedEnv{episodeLen: 1, stepReward: 1}
	rec := &recorder{}

	err := Fit(agent, env, FitConfig{Episodes: 2, ActionRepetition: 1, Callbacks: []Callback{rec}})
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	wantTotals := []int{1, 2}
	for i, logs := range rec.episodeEnds {
		if logs.EpisodeSteps != 1 {
			t.Errorf("episode %d steps: got %d, want 1", i, logs.EpisodeSteps)
		}
		if logs.TotalSteps != wantTotals[i] {
			t.Errorf("episode %d total: got %d, want %d", i, logs.TotalSteps, wantTotals[i])
		}
	}
}

func TestTestRunsFullEpisodes(t *testing.T) {
	agent := compiledAgent(t)
	env := &scriptedEnv{episodeLen: 3, stepReward: 1}
	rec := &recorder{}

	err := Test(agent, env, TestConfig{Episodes: 2, ActionRepetition: 1, Callbacks: []Callback{rec}})
	if err != nil {
		t.Fatalf("Test failed: %v", err)
	}

	if len(rec.episodeEnds) != 2 {
		t.Fatalf("got %d episode ends, want 2", len(rec.episodeEnds))
	}
	for i, logs := range rec.episodeEnds {
		if logs.EpisodeSteps != 3 {
			t.Errorf("episode %d steps: got %d, want 3", i, logs.EpisodeSteps)
		}
		if logs.TotalSteps != 3 {
			t.Errorf("episode %d steps since reset: got %d, want 3", i, logs.TotalSteps)
		}
		if logs.EpisodeReward != 3 {
			t.Errorf("episode %d reward: got %f, want 3", i, logs.EpisodeReward)
		}
	}
	// Backward still runs during evaluation but its metrics stay out of
	// the step logs.
	if len(agent.backward) != 6 {
		t.Errorf("backward calls: got %d, want 6", len(agent.backward))
	}
	for i, logs := range rec.stepEnds {
		if logs.Metrics != nil {
			t.Errorf("step %d: metrics leaked into test logs", i)
		}
	}
}

func TestTestDoneOnFirstStep(t *testing.T) {
	agent := compiledAgent(t)
	env := &scriptedEnv{episodeLen: 1, stepReward: 1}
	rec := &recorder{}

	err := Test(agent, env, TestConfig{Episodes: 1, ActionRepetition: 1, Callbacks: []Callback{rec}})
	if err != nil {
		t.Fatalf("Test failed: %v", err)
	}
	if len(rec.episodeEnds) != 1 || rec.episodeEnds[0].EpisodeSteps != 1 {
		t.Fatalf("got %+v, want a single 1-step episode", rec.episodeEnds)
	}
}

func TestTestNotCompiled(t *testing.T) {
	agent := &countingAgent{}
	env := &scriptedEnv{episodeLen: 2}

	err := Test(agent, env, TestConfig{Episodes: 1, ActionRepetition: 1})
	if !errors.Is(err, ErrNotCompiled) {
		t.Fatalf("got %v, want ErrNotCompiled", err)
	}
	if env.resets != 0 {
		t.Errorf("env touched before precondition check")
	}
}
