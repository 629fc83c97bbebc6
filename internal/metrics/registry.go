package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	io_prometheus_client "github.com/prometheus/client_model/go"
	"github.com/rs/zerolog/log"
)

// Registry holds all Prometheus metrics for PropFlow.
type Registry struct {
	registry *prometheus.Registry

	// Request metrics
	RequestDuration *prometheus.HistogramVec

	// Selection lifecycle metrics
	Toggles            *prometheus.CounterVec
	CapacityRejections *prometheus.CounterVec
	CustomFirmsCreated prometheus.Counter
	Saves              *prometheus.CounterVec
	Discards           prometheus.Counter
	SaveSuccessRatio   prometheus.Gauge

	// Session metrics
	ActiveSessions prometheus.Gauge
	Logins         *prometheus.CounterVec
}

// NewRegistry creates a registry with all PropFlow metrics registered
// on its own Prometheus registry, so tests can create as many as they
// need without duplicate-registration panics.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),

		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "propflow_request_duration_seconds",
				Help:    "HTTP request duration in seconds by route and status",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
			},
			[]string{"route", "status"},
		),

		Toggles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "propflow_toggles_total",
				Help: "Total number of firm toggle attempts by result",
			},
			[]string{"result"},
		),

		CapacityRejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "propflow_capacity_rejections_total",
				Help: "Total number of toggles rejected at the plan capacity limit by tier",
			},
			[]string{"tier"},
		),

		CustomFirmsCreated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "propflow_custom_firms_created_total",
				Help: "Total number of custom firms created",
			},
		),

		Saves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "propflow_saves_total",
				Help: "Total number of preference save attempts by result",
			},
			[]string{"result"},
		),

		Discards: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "propflow_discards_total",
				Help: "Total number of pending change discards",
			},
		),

		SaveSuccessRatio: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "propflow_save_success_ratio",
				Help: "Ratio of successful saves to all save attempts",
			},
		),

		ActiveSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "propflow_active_sessions",
				Help: "Number of currently open dashboard sessions",
			},
		),

		Logins: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "propflow_logins_total",
				Help: "Total number of login attempts by result",
			},
			[]string{"result"},
		),
	}

	r.registry.MustRegister(
		r.RequestDuration,
		r.Toggles,
		r.CapacityRejections,
		r.CustomFirmsCreated,
		r.Saves,
		r.Discards,
		r.SaveSuccessRatio,
		r.ActiveSessions,
		r.Logins,
	)

	return r
}

// RecordToggle records a toggle attempt and its outcome.
func (r *Registry) RecordToggle(result string) {
	r.Toggles.WithLabelValues(result).Inc()
}

// RecordCapacityRejection records a toggle bounced at the plan limit.
func (r *Registry) RecordCapacityRejection(tier string) {
	r.CapacityRejections.WithLabelValues(tier).Inc()
	r.Toggles.WithLabelValues("rejected").Inc()
}

// RecordSave records a save attempt and refreshes the derived ratio.
func (r *Registry) RecordSave(result string) {
	r.Saves.WithLabelValues(result).Inc()
	r.updateSaveSuccessRatio()
}

// updateSaveSuccessRatio recomputes the success ratio gauge from the
// underlying counters.
func (r *Registry) updateSaveSuccessRatio() {
	okMetric := &io_prometheus_client.Metric{}
	failedMetric := &io_prometheus_client.Metric{}

	ok := 0.0
	failed := 0.0

	if c, err := r.Saves.GetMetricWithLabelValues("ok"); err == nil {
		if err := c.Write(okMetric); err == nil {
			ok = okMetric.GetCounter().GetValue()
		}
	}
	if c, err := r.Saves.GetMetricWithLabelValues("failed"); err == nil {
		if err := c.Write(failedMetric); err == nil {
			failed = failedMetric.GetCounter().GetValue()
		}
	}

	total := ok + failed
	if total > 0 {
		r.SaveSuccessRatio.Set(ok / total)
	}
}

// Handler returns the /metrics endpoint handler for this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Default is the process-wide registry instance.
var Default *Registry

// Initialize sets up the process-wide registry.
func Initialize() {
	Default = NewRegistry()
	log.Info().Msg("Prometheus metrics registry initialized")
}
