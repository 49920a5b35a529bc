package monitor

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mlsuite/gorl/rl"
)

type fakeAction string

func (a fakeAction) Hash() string { return string(a) }

func getJSON(t *testing.T, handler http.Handler, path string, out any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET %s: status %d", path, w.Code)
	}
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("GET %s: bad body %q: %v", path, w.Body.String(), err)
	}
}

func TestMonitorStatus(t *testing.T) {
	m := NewMonitor("localhost:0")
	m.OnTrainBegin()
	m.OnEpisodeBegin(0)
	m.OnStepEnd(0, rl.StepLogs{Action: fakeAction("Up"), Reward: 0.5})
	m.OnStepEnd(1, rl.StepLogs{Action: fakeAction("Right"), Reward: 1})

	var s status
	getJSON(t, m.Routes(), "/status", &s)
	if !s.Training {
		t.Error("status not marked training")
	}
	if s.Step != 1 || s.LastAction != "Right" || s.LastReward != 1 {
		t.Errorf("unexpected step state: %+v", s)
	}
	if s.EpisodeReward != 1.5 {
		t.Errorf("episode reward: got %f, want 1.5", s.EpisodeReward)
	}

	m.OnEpisodeBegin(1)
	getJSON(t, m.Routes(), "/status", &s)
	if s.Episode != 1 || s.EpisodeReward != 0 {
		t.Errorf("episode begin did not reset: %+v", s)
	}
}

func TestMonitorEpisodes(t *testing.T) {
	m := NewMonitor("localhost:0")
	m.OnEpisodeEnd(0, rl.EpisodeLogs{EpisodeReward: 2, EpisodeSteps: 4})
	m.OnEpisodeEnd(1, rl.EpisodeLogs{EpisodeReward: 3, EpisodeSteps: 5})

	var resp struct {
		Episodes []episodeRecord `json:"episodes"`
	}
	getJSON(t, m.Routes(), "/episodes", &resp)
	if len(resp.Episodes) != 2 {
		t.Fatalf("got %d episodes, want 2", len(resp.Episodes))
	}
	if resp.Episodes[1].Reward != 3 || resp.Episodes[1].Steps != 5 {
		t.Errorf("episode record: %+v", resp.Episodes[1])
	}
}

func TestMonitorTrainEnd(t *testing.T) {
	m := NewMonitor("localhost:0")
	m.OnTrainBegin()
	m.OnTrainEnd()

	var s status
	getJSON(t, m.Routes(), "/status", &s)
	if s.Training {
		t.Error("status still marked training after the loop ended")
	}
}
