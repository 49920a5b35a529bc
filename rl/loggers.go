package rl

import (
	"fmt"
	"log"
	"strconv"
	"time"
)

// TrainEpisodeLogger prints one line per completed episode.
type TrainEpisodeLogger struct {
	CallbackBase
	params    Params
	start     time.Time
	epStart   time.Time
	epPadding int
}

func NewTrainEpisodeLogger() *TrainEpisodeLogger {
	return &TrainEpisodeLogger{}
}

func (l *TrainEpisodeLogger) SetParams(params Params) {
	l.params = params
	l.epPadding = len(strconv.Itoa(params.Episodes))
}

func (l *TrainEpisodeLogger) OnTrainBegin() {
	l.start = time.Now()
	fmt.Printf("Training for %d episodes\n", l.params.Episodes)
}

func (l *TrainEpisodeLogger) OnTrainEnd() {
	fmt.Printf("done, took %.3fs\n", time.Since(l.start).Seconds())
}

func (l *TrainEpisodeLogger) OnEpisodeBegin(episode int) {
	l.epStart = time.Now()
}

func (l *TrainEpisodeLogger) OnEpisodeEnd(episode int, logs EpisodeLogs) {
	fmt.Printf("Ep:%*d/%d, Steps:%4d, TSteps:%6d, Reward:%8.3f [%6.3fs]\n",
		l.epPadding, episode+1, l.params.Episodes,
		logs.EpisodeSteps, logs.TotalSteps, logs.EpisodeReward,
		time.Since(l.epStart).Seconds())
}

// TrainIntervalLogger prints a progress line every interval steps,
// rewriting the terminal line in place.
type TrainIntervalLogger struct {
	CallbackBase
	interval  int
	params    Params
	steps     int
	reward    float64
	tsPadding int
}

func NewTrainIntervalLogger(interval int) *TrainIntervalLogger {
	return &TrainIntervalLogger{interval: interval}
}

func (l *TrainIntervalLogger) SetParams(params Params) {
	l.params = params
	l.tsPadding = len(strconv.Itoa(params.Steps))
}

func (l *TrainIntervalLogger) OnTrainBegin() {
	if l.params.Steps > 0 {
		fmt.Printf("Training for %d steps\n", l.params.Steps)
	} else {
		fmt.Println("Training with no step budget")
	}
}

func (l *TrainIntervalLogger) OnTrainEnd() {
	fmt.Println("")
}

func (l *TrainIntervalLogger) OnStepEnd(step int, logs StepLogs) {
	l.steps++
	l.reward += logs.Reward
	if l.steps%l.interval != 0 {
		return
	}
	mean := l.reward / float64(l.interval)
	l.reward = 0
	fmt.Printf("\rTSteps:%*d/%d, Ep:%4d, MeanReward:%8.3f", l.tsPadding, l.steps, l.params.Steps, logs.Episode+1, mean)
	if len(logs.Metrics) > 0 {
		fmt.Printf(" || %s", logs.Metrics.String())
	}
}

// TestLogger prints one line per evaluated episode.
type TestLogger struct {
	CallbackBase
	params Params
}

func NewTestLogger() *TestLogger {
	return &TestLogger{}
}

func (l *TestLogger) SetParams(params Params) {
	l.params = params
}

func (l *TestLogger) OnTrainBegin() {
	fmt.Printf("Testing for %d episodes\n", l.params.Episodes)
}

func (l *TestLogger) OnEpisodeEnd(episode int, logs EpisodeLogs) {
	fmt.Printf("Episode %d: reward: %.3f, steps: %d\n", episode+1, logs.EpisodeReward, logs.EpisodeSteps)
}

// Visualizer renders the environment after every step. Environments that
// do not implement Render disable it after the first failure.
type Visualizer struct {
	CallbackBase
	env      Env
	disabled bool
}

func NewVisualizer() *Visualizer {
	return &Visualizer{}
}

func (v *Visualizer) SetParams(params Params) {
	v.env = params.Env
}

func (v *Visualizer) OnStepEnd(step int, logs StepLogs) {
	if v.disabled || v.env == nil {
		return
	}
	if err := v.env.Render(RenderHuman, false); err != nil {
		log.Printf("rl: disabling visualizer: %v", err)
		v.disabled = true
	}
}
