// Package metrics exposes Prometheus instrumentation for the queue, worker
// pool and transfer volume.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every Prometheus collector the server registers.
type Metrics struct {
	Registry *prometheus.Registry

	// TaskQueueDepth, ClientQueueDepth and WorkersBusy are registered but
	// not set by any code path, so they always report 0.
	TaskQueueDepth   prometheus.Gauge
	ClientQueueDepth prometheus.Gauge
	WorkersBusy      prometheus.Gauge
	TasksTotal       *prometheus.CounterVec
	TaskErrorsTotal  *prometheus.CounterVec
	BytesUploaded    prometheus.Counter
	BytesDownloaded  prometheus.Counter
	ActiveClients    prometheus.Gauge
}

// New creates a Metrics instance backed by a fresh registry, registering the
// standard Go runtime and process collectors alongside the application's
// own.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector())
	reg.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	return &Metrics{
		Registry: reg,
		TaskQueueDepth: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "dropvault_task_queue_depth",
			Help: "Number of tasks currently buffered in the worker queue.",
		}),
		ClientQueueDepth: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "dropvault_client_queue_depth",
			Help: "Number of accepted connections waiting for a handler goroutine.",
		}),
		WorkersBusy: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "dropvault_workers_busy",
			Help: "Number of worker goroutines currently executing a task.",
		}),
		TasksTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "dropvault_tasks_total",
			Help: "Total tasks executed, by kind.",
		}, []string{"kind"}),
		TaskErrorsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "dropvault_task_errors_total",
			Help: "Total tasks that failed, by kind and error code.",
		}, []string{"kind", "code"}),
		BytesUploaded: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "dropvault_bytes_uploaded_total",
			Help: "Total bytes accepted via UPLOAD.",
		}),
		BytesDownloaded: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "dropvault_bytes_downloaded_total",
			Help: "Total bytes served via DOWNLOAD.",
		}),
		ActiveClients: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "dropvault_active_clients",
			Help: "Number of connections currently being served.",
		}),
	}
}

// ObserveTask records the outcome of one executed task.
func (m *Metrics) ObserveTask(kind, code string) {
	m.TasksTotal.WithLabelValues(kind).Inc()
	if code != "" {
		m.TaskErrorsTotal.WithLabelValues(kind, code).Inc()
	}
}
