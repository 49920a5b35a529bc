package agents

import "math"

// QTable maps state and action keys to action values.
type QTable struct {
	Table map[string]map[string]float64 `json:"table"`
}

func NewQTable() *QTable {
	return &QTable{
		Table: make(map[string]map[string]float64),
	}
}

// Get returns the value for the state/action pair, initializing missing
// entries to def.
func (q *QTable) Get(state, action string, def float64) float64 {
	if _, ok := q.Table[state]; !ok {
		q.Table[state] = make(map[string]float64)
	}
	if _, ok := q.Table[state][action]; !ok {
		q.Table[state][action] = def
	}
	return q.Table[state][action]
}

func (q *QTable) Assign(state, action string, val float64) {
	if _, ok := q.Table[state]; !ok {
		q.Table[state] = make(map[string]float64)
	}
	q.Table[state][action] = val
}

// Max returns the best action and value known for the state.
func (q *QTable) Max(state string, def float64) (string, float64) {
	entries, ok := q.Table[state]
	if !ok || len(entries) == 0 {
		return "", def
	}
	maxAction := ""
	maxVal := math.Inf(-1)
	for a, val := range entries {
		if val > maxVal {
			maxAction = a
			maxVal = val
		}
	}
	return maxAction, maxVal
}

// MaxAmong returns the best of the given actions for the state,
// initializing missing entries to def.
func (q *QTable) MaxAmong(state string, actions []string, def float64) (string, float64) {
	maxAction := ""
	maxVal := math.Inf(-1)
	for _, a := range actions {
		val := q.Get(state, a, def)
		if val > maxVal {
			maxAction = a
			maxVal = val
		}
	}
	return maxAction, maxVal
}

// States returns the number of states with at least one entry.
func (q *QTable) States() int {
	return len(q.Table)
}
