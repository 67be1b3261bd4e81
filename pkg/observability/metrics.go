package observability

import (
	"errors"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/history"
	"github.com/prometheus/client_golang/prometheus"
)

// Result label values.
const (
	ResultOK       = "ok"
	ResultConflict = "conflict"
	ResultError    = "error"
)

// Metrics holds the collectors of one process.
type Metrics struct {
	Commands *prometheus.CounterVec
	Commits  *prometheus.CounterVec
	Warnings *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lattice_commands_total",
				Help: "Total number of executed editing commands",
			},
			[]string{"action", "cmd", "result"},
		),
		Commits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lattice_commits_total",
				Help: "Total number of change list commits",
			},
			[]string{"result"},
		),
		Warnings: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "lattice_analyzer_warnings",
				Help: "Analyzer warnings of the latest version of each document",
			},
			[]string{"doc"},
		),
	}
	for _, c := range []prometheus.Collector{m.Commands, m.Commits, m.Warnings} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns command hooks that count every execution.
func (m *Metrics) Hooks() history.Hooks {
	return history.Hooks{
		OnCommand: func(e history.Event) {
			m.Commands.WithLabelValues(string(e.Action), e.Cmd, result(e.Err)).Inc()
		},
	}
}

// ObserveCommit counts one commit attempt.
func (m *Metrics) ObserveCommit(err error) {
	m.Commits.WithLabelValues(result(err)).Inc()
}

// SetWarnings records the warning count of a document.
func (m *Metrics) SetWarnings(docID string, n int) {
	m.Warnings.WithLabelValues(docID).Set(float64(n))
}

func result(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, domain.ErrVersionConflict):
		return ResultConflict
	default:
		return ResultError
	}
}

// Chain merges hooks so they all observe the same events, in order.
func Chain(hooks ...history.Hooks) history.Hooks {
	return history.Hooks{
		OnCommand: func(e history.Event) {
			for _, h := range hooks {
				if h.OnCommand != nil {
					h.OnCommand(e)
				}
			}
		},
	}
}
