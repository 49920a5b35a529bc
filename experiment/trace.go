package experiment

import (
	"encoding/json"
	"log"

	"github.com/mlsuite/gorl/rl"
	"github.com/mlsuite/gorl/util"
)

type traceStep struct {
	Action      string  `json:"action"`
	Observation string  `json:"observation"`
	Reward      float64 `json:"reward"`
}

type traceEpisode struct {
	Episode     int         `json:"episode"`
	Reward      float64     `json:"episode_reward"`
	Steps       int         `json:"nb_episode_steps"`
	TotalSteps  int         `json:"nb_steps"`
	Transitions []traceStep `json:"transitions"`
}

// TraceRecorder appends one JSON line per completed episode to a file,
// carrying the full action/observation/reward transition list.
type TraceRecorder struct {
	rl.CallbackBase
	path  string
	steps []traceStep
}

var _ rl.Callback = &TraceRecorder{}

func NewTraceRecorder(path string) *TraceRecorder {
	return &TraceRecorder{path: path, steps: make([]traceStep, 0)}
}

func (t *TraceRecorder) OnEpisodeBegin(episode int) {
	t.steps = t.steps[:0]
}

func (t *TraceRecorder) OnStepEnd(step int, logs rl.StepLogs) {
	s := traceStep{Reward: logs.Reward}
	if logs.Action != nil {
		s.Action = logs.Action.Hash()
	}
	if logs.Observation != nil {
		s.Observation = logs.Observation.Hash()
	}
	t.steps = append(t.steps, s)
}

func (t *TraceRecorder) OnEpisodeEnd(episode int, logs rl.EpisodeLogs) {
	episodeTrace := traceEpisode{
		Episode:     episode,
		Reward:      logs.EpisodeReward,
		Steps:       logs.EpisodeSteps,
		TotalSteps:  logs.TotalSteps,
		Transitions: append([]traceStep(nil), t.steps...),
	}
	bs, err := json.Marshal(episodeTrace)
	if err != nil {
		log.Printf("failed to encode episode %d trace: %v", episode, err)
		return
	}
	if err := util.AppendToFile(t.path, string(bs)); err != nil {
		log.Printf("failed to record episode %d trace: %v", episode, err)
	}
}
