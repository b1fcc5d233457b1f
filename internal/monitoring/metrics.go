package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics. Each collector owns its own
// registry so independent instances never collide.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Syscall surface metrics
	SyscallsTotal   *prometheus.CounterVec
	SyscallDuration *prometheus.HistogramVec

	// IPC metrics
	MessagesSent     prometheus.Counter
	MessagesReceived prometheus.Counter
	ChannelsActive   prometheus.Gauge

	// Capability metrics
	PermissionDenials prometheus.Counter
	TokensGranted     prometheus.Counter
	AuditEntries      prometheus.Counter

	// Scheduler metrics
	TicksTotal      prometheus.Counter
	ContextSwitches prometheus.Counter
	TasksEnqueued   prometheus.Counter

	startTime time.Time
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	factory := promauto.With(reg)

	return &Metrics{
		registry:  reg,
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nucleus_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nucleus_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		SyscallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nucleus_syscalls_total",
				Help: "Total syscall surface executions by tool and status",
			},
			[]string{"tool", "status"},
		),
		SyscallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nucleus_syscall_duration_seconds",
				Help:    "Syscall execution duration in seconds",
				Buckets: []float64{.00001, .0001, .001, .01, .1, 1},
			},
			[]string{"tool"},
		),

		MessagesSent: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "nucleus_ipc_messages_sent_total",
				Help: "Messages admitted to channels",
			},
		),
		MessagesReceived: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "nucleus_ipc_messages_received_total",
				Help: "Messages consumed from channels",
			},
		),
		ChannelsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "nucleus_ipc_channels_active",
				Help: "Channels allocated in the channel table",
			},
		),

		PermissionDenials: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "nucleus_capability_denials_total",
				Help: "Capability checks that were denied",
			},
		),
		TokensGranted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "nucleus_capability_tokens_granted_total",
				Help: "Capability tokens issued",
			},
		),
		AuditEntries: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "nucleus_audit_entries_total",
				Help: "Entries appended to the audit log",
			},
		),

		TicksTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "nucleus_sched_ticks_total",
				Help: "Timer ticks delivered to the scheduler",
			},
		),
		ContextSwitches: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "nucleus_sched_context_switches_total",
				Help: "Scheduling decisions that selected a task",
			},
		),
		TasksEnqueued: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "nucleus_sched_tasks_enqueued_total",
				Help: "Tasks admitted to run queues",
			},
		),
	}
}

// Registry returns the collector's registry, for serving /metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records metrics for an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordSyscall records one syscall surface execution
func (m *Metrics) RecordSyscall(tool, status string, duration time.Duration) {
	m.SyscallsTotal.WithLabelValues(tool, status).Inc()
	m.SyscallDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

// Uptime returns time since the collector was created
func (m *Metrics) Uptime() time.Duration {
	return time.Since(m.startTime)
}
