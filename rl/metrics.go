package rl

import (
	"fmt"
	"strings"
)

// Metric is a single named training metric.
type Metric struct {
	Name  string
	Value float64
}

// Metrics is the ordered set of metrics produced by one backward pass.
// Its length must match the agent's MetricsNames once compiled.
type Metrics []Metric

func (m Metrics) Names() []string {
	names := make([]string, len(m))
	for i, metric := range m {
		names[i] = metric.Name
	}
	return names
}

func (m Metrics) String() string {
	parts := make([]string, len(m))
	for i, metric := range m {
		parts[i] = fmt.Sprintf("%s: %.4f", metric.Name, metric.Value)
	}
	return strings.Join(parts, ", ")
}
