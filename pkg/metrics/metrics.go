// Package metrics exposes Prometheus collectors for the pool and the
// acceptor, plus a fasthttp-based scrape endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hearthio/hearth/pkg/pool"
)

// Metrics holds the Prometheus collectors for one server instance.
type Metrics struct {
	TasksSubmitted prometheus.Counter
	TasksCompleted prometheus.Counter
	TasksFailed    prometheus.Counter
	QueueDepth     prometheus.Gauge
	BusyWorkers    prometheus.Gauge

	ConnectionsAccepted prometheus.Counter
	ConnectionsRejected prometheus.Counter
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TasksSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hearth",
			Subsystem: "pool",
			Name:      "tasks_submitted_total",
			Help:      "Total number of tasks submitted to the pool",
		}),
		TasksCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hearth",
			Subsystem: "pool",
			Name:      "tasks_completed_total",
			Help:      "Total number of tasks that ran to completion",
		}),
		TasksFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hearth",
			Subsystem: "pool",
			Name:      "tasks_failed_total",
			Help:      "Total number of tasks that panicked during execution",
		}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hearth",
			Subsystem: "pool",
			Name:      "queue_depth",
			Help:      "Number of tasks waiting for a worker",
		}),
		BusyWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hearth",
			Subsystem: "pool",
			Name:      "busy_workers",
			Help:      "Number of workers currently executing a task",
		}),
		ConnectionsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hearth",
			Subsystem: "server",
			Name:      "connections_accepted_total",
			Help:      "Total number of accepted TCP connections",
		}),
		ConnectionsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hearth",
			Subsystem: "server",
			Name:      "connections_rejected_total",
			Help:      "Total number of connections dropped because the pool was closed",
		}),
	}

	reg.MustRegister(
		m.TasksSubmitted,
		m.TasksCompleted,
		m.TasksFailed,
		m.QueueDepth,
		m.BusyWorkers,
		m.ConnectionsAccepted,
		m.ConnectionsRejected,
	)
	return m
}

// PoolHooks adapts the collectors to pool observation hooks.
func (m *Metrics) PoolHooks() pool.Hooks {
	return pool.Hooks{
		OnSubmit: func() {
			m.TasksSubmitted.Inc()
			m.QueueDepth.Inc()
		},
		OnStart: func() {
			m.QueueDepth.Dec()
			m.BusyWorkers.Inc()
		},
		OnFinish: func() {
			m.BusyWorkers.Dec()
			m.TasksCompleted.Inc()
		},
		OnPanic: func() {
			m.BusyWorkers.Dec()
			m.TasksFailed.Inc()
		},
	}
}
