// Package monitor serves the live state of a training loop over HTTP.
// The Monitor is a callback: attach it to Fit or Test and query /status
// and /episodes while the loop runs.
package monitor

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mlsuite/gorl/rl"
)

type episodeRecord struct {
	Episode int     `json:"episode"`
	Reward  float64 `json:"episode_reward"`
	Steps   int     `json:"nb_episode_steps"`
}

type status struct {
	Training      bool    `json:"training"`
	Episode       int     `json:"episode"`
	Step          int     `json:"step"`
	EpisodeReward float64 `json:"episode_reward"`
	LastAction    string  `json:"last_action"`
	LastReward    float64 `json:"last_reward"`
}

// Monitor records callback events and serves them as JSON.
type Monitor struct {
	rl.CallbackBase

	server *http.Server

	lock     *sync.Mutex
	status   status
	episodes []episodeRecord
}

var _ rl.Callback = &Monitor{}

// NewMonitor builds a monitor listening on addr once Start is called.
func NewMonitor(addr string) *Monitor {
	m := &Monitor{
		lock:     new(sync.Mutex),
		episodes: make([]episodeRecord, 0),
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.GET("/status", m.handleStatus)
	r.GET("/episodes", m.handleEpisodes)
	m.server = &http.Server{
		Addr:    addr,
		Handler: r,
	}

	return m
}

// Routes exposes the handler, mainly for tests.
func (m *Monitor) Routes() http.Handler {
	return m.server.Handler
}

// Start serves in the background until ctx is cancelled.
func (m *Monitor) Start(ctx context.Context) {
	go func() {
		m.server.ListenAndServe()
	}()

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		m.server.Shutdown(sctx)
	}()
}

func (m *Monitor) handleStatus(c *gin.Context) {
	m.lock.Lock()
	s := m.status
	m.lock.Unlock()
	c.JSON(http.StatusOK, s)
}

func (m *Monitor) handleEpisodes(c *gin.Context) {
	m.lock.Lock()
	episodes := append([]episodeRecord(nil), m.episodes...)
	m.lock.Unlock()
	c.JSON(http.StatusOK, gin.H{"episodes": episodes})
}

func (m *Monitor) OnTrainBegin() {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.status.Training = true
}

func (m *Monitor) OnTrainEnd() {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.status.Training = false
}

func (m *Monitor) OnEpisodeBegin(episode int) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.status.Episode = episode
	m.status.EpisodeReward = 0
}

func (m *Monitor) OnEpisodeEnd(episode int, logs rl.EpisodeLogs) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.episodes = append(m.episodes, episodeRecord{
		Episode: episode,
		Reward:  logs.EpisodeReward,
		Steps:   logs.EpisodeSteps,
	})
}

func (m *Monitor) OnStepEnd(step int, logs rl.StepLogs) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.status.Step = step
	m.status.EpisodeReward += logs.Reward
	m.status.LastReward = logs.Reward
	if logs.Action != nil {
		m.status.LastAction = logs.Action.Hash()
	}
}
