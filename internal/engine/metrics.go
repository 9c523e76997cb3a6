package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Latency: сколько заняла резолюция (включая поход в бэкенд)
	RequestDuration *prometheus.HistogramVec

	// Traffic: резолюции по итоговому уровню и баннеру
	Resolutions *prometheus.CounterVec

	// Errors: отказы бэкенда по типу
	ErrorTotal *prometheus.CounterVec

	// Качество метаданных бэкенда
	QualityIssues *prometheus.CounterVec

	// Saturation: состояние Circuit Breaker (0 - closed, 1 - half-open, 2 - open)
	CircuitBreakerState *prometheus.GaugeVec

	// Журнал: заполненность буфера (backpressure)
	JournalBufferFill prometheus.Gauge

	TrackedSearches prometheus.Gauge
	PendingNotices  prometheus.Gauge
	NoticesFound    prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Null Object: без регистратора метрики пишутся в локальный, никуда не подключенный
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)

	return &Metrics{
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pncp_state_resolve_duration_seconds",
			Help:    "Histogram of state resolution latencies.",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"source", "tier"}),

		Resolutions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pncp_state_resolutions_total",
			Help: "Total number of resolved operational states.",
		}, []string{"tier", "banner"}),

		ErrorTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pncp_backend_errors_total",
			Help: "Total number of backend fetch errors by type.",
		}, []string{"type"}), // типы: not_found, throttled, circuit_open, rate_limit, timeout, upstream

		QualityIssues: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pncp_data_quality_issues_total",
			Help: "Inconsistencies found in backend search metadata.",
		}, []string{"kind"}),

		CircuitBreakerState: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pncp_circuit_breaker_state",
			Help: "Current state of the circuit breaker (0=closed, 1=half-open, 2=open).",
		}, []string{"name"}),

		JournalBufferFill: f.NewGauge(prometheus.GaugeOpts{
			Name: "pncp_journal_buffer_utilization",
			Help: "Current number of entries in the journal buffer.",
		}),

		TrackedSearches: f.NewGauge(prometheus.GaugeOpts{
			Name: "pncp_tracked_searches",
			Help: "Searches currently polled for refreshed results.",
		}),

		PendingNotices: f.NewGauge(prometheus.GaugeOpts{
			Name: "pncp_refresh_notices_pending",
			Help: "Refresh notices waiting for the user.",
		}),

		NoticesFound: f.NewCounter(prometheus.CounterOpts{
			Name: "pncp_refresh_notices_found_total",
			Help: "Refresh notices produced by the poller.",
		}),
	}
}
