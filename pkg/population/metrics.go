package population

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	populationPrometheusMetrics sync.Once

	populationCommandsPlannedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rules_py",
			Subsystem: "venv",
			Name:      "population_commands_planned_total",
			Help:      "Number of commands emitted by population strategies, before collisions are resolved.",
		},
		[]string{"kind"})
	populationCommandsExecutedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rules_py",
			Subsystem: "venv",
			Name:      "population_commands_executed_total",
			Help:      "Number of commands executed while populating a virtual environment.",
		},
		[]string{"kind"})
	populationCommandsDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rules_py",
			Subsystem: "venv",
			Name:      "population_commands_dropped_total",
			Help:      "Number of commands that were dropped without being executed.",
		},
		[]string{"reason"})
	populationCollisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rules_py",
			Subsystem: "venv",
			Name:      "population_collisions_total",
			Help:      "Number of destinations targeted by more than one command.",
		},
		[]string{"outcome"})
	populationSymlinkTreeLinksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "rules_py",
			Subsystem: "venv",
			Name:      "population_symlink_tree_links_total",
			Help:      "Number of symbolic links created while materializing site-packages trees referenced by .pth files.",
		})
)

func registerMetrics() {
	populationPrometheusMetrics.Do(func() {
		prometheus.MustRegister(populationCommandsPlannedTotal)
		prometheus.MustRegister(populationCommandsExecutedTotal)
		prometheus.MustRegister(populationCommandsDroppedTotal)
		prometheus.MustRegister(populationCollisionsTotal)
		prometheus.MustRegister(populationSymlinkTreeLinksTotal)
	})
}
