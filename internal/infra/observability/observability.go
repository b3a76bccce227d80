// Package observability holds the Prometheus collectors for the ledger,
// task set and sweep. They are registered via promauto and exposed on the
// /metrics endpoint when metrics are enabled in the daemon config.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Ledger Metrics ─────────────────────────────────────────────────────────

// Balance tracks the current ledger balance.
var Balance = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "stakedo",
	Subsystem: "ledger",
	Name:      "balance",
	Help:      "Current ledger balance.",
})

// LedgerEntries tracks appended ledger entries by type.
var LedgerEntries = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "stakedo",
	Subsystem: "ledger",
	Name:      "entries_total",
	Help:      "Total ledger entries appended, by entry type.",
}, []string{"type"})

// ─── Task Metrics ───────────────────────────────────────────────────────────

// ActiveTasks tracks the number of pending tasks in the active set.
var ActiveTasks = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "stakedo",
	Subsystem: "tasks",
	Name:      "active",
	Help:      "Number of pending tasks in the active set.",
})

// TasksForfeited tracks tasks forfeited because their due date elapsed.
var TasksForfeited = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "stakedo",
	Subsystem: "tasks",
	Name:      "forfeited_total",
	Help:      "Total tasks forfeited after their due date elapsed.",
})

// HistoryEvents tracks appended history records by event kind.
var HistoryEvents = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "stakedo",
	Subsystem: "history",
	Name:      "events_total",
	Help:      "Total history events appended, by event kind.",
}, []string{"event"})

// ─── Sweep Metrics ──────────────────────────────────────────────────────────

// SweepRuns tracks completed sweep passes.
var SweepRuns = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "stakedo",
	Subsystem: "sweep",
	Name:      "runs_total",
	Help:      "Total completed sweep passes.",
})

// SweepSkipped tracks sweep ticks skipped because a pass was still running.
var SweepSkipped = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "stakedo",
	Subsystem: "sweep",
	Name:      "skipped_total",
	Help:      "Total sweep ticks skipped because the previous pass was still running.",
})

// HistoryRotations tracks weekly history purges performed by the sweep.
var HistoryRotations = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "stakedo",
	Subsystem: "sweep",
	Name:      "history_rotations_total",
	Help:      "Total weekly history purges performed.",
})
