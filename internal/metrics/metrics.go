package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "seatwatch"

// Metrics holds the prometheus collectors of the poller.
type Metrics struct {
	registry *prometheus.Registry

	Cycles         *prometheus.CounterVec
	CycleDuration  prometheus.Histogram
	FetchErrors    *prometheus.CounterVec
	NewlyAvailable prometheus.Counter
	Notifications  *prometheus.CounterVec
	LastSuccess    prometheus.Gauge
	SeatsAvailable *prometheus.GaugeVec
	Forbidden      prometheus.Counter
}

// New registers every collector on a private registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Cycles: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Poll cycles by outcome",
		}, []string{"outcome"}),
		CycleDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of a poll cycle",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}),
		FetchErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_errors_total",
			Help:      "Failed provider fetches by kind",
		}, []string{"kind"}),
		NewlyAvailable: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "newly_available_coaches_total",
			Help:      "Coaches reported as newly available",
		}),
		Notifications: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification attempts by result",
		}, []string{"result"}),
		LastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last cycle that completed without error",
		}),
		SeatsAvailable: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "seats_available",
			Help:      "Allow-listed seats seen at the last check, per date",
		}, []string{"date"}),
		Forbidden: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_forbidden_total",
			Help:      "Requests refused by the allowed networks list",
		}),
	}
}

// Handler exposes the registry in the text exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) ObserveCycle(outcome string, elapsed time.Duration) {
	m.Cycles.WithLabelValues(outcome).Inc()
	m.CycleDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) MarkSuccess(at time.Time) {
	m.LastSuccess.Set(float64(at.Unix()))
}
