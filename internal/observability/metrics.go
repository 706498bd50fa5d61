package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// assessment pipeline.
type Metrics struct {
	AssessmentsTotal   prometheus.Counter
	AssessmentFailures prometheus.Counter
	ObservationsLoaded prometheus.Counter
	RecordGaps         prometheus.Counter
	AssessmentRunning  prometheus.Gauge

	AssessmentDuration prometheus.Histogram
	FetchDuration      *prometheus.HistogramVec // labels: source={wtk,turbinedb}

	LastCapacityFactor prometheus.Gauge
	LastAnnualMWh      prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.AssessmentsTotal,
		m.AssessmentFailures,
		m.ObservationsLoaded,
		m.RecordGaps,
		m.AssessmentRunning,
		m.AssessmentDuration,
		m.FetchDuration,
		m.LastCapacityFactor,
		m.LastAnnualMWh,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		AssessmentsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "windsite",
			Name:      "assessments_total",
			Help:      "Total completed assessment runs.",
		}),
		AssessmentFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "windsite",
			Name:      "assessment_failures_total",
			Help:      "Total assessment runs aborted by acquisition or curve errors.",
		}),
		ObservationsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "windsite",
			Name:      "observations_loaded_total",
			Help:      "Total meteorological records fetched from the series source.",
		}),
		RecordGaps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "windsite",
			Name:      "record_gaps_total",
			Help:      "Records with undefined power (missing density inputs).",
		}),
		AssessmentRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "windsite",
			Name:      "assessment_running",
			Help:      "1 while an assessment run is in flight, 0 otherwise.",
		}),
		AssessmentDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "windsite",
			Name:      "assessment_duration_seconds",
			Help:      "Duration of a complete fetch-enrich-estimate-aggregate run.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "windsite",
			Name:      "fetch_duration_seconds",
			Help:      "Remote data acquisition duration by source.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"source"}),
		LastCapacityFactor: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "windsite",
			Name:      "last_annual_capacity_factor",
			Help:      "Annual net capacity factor from the most recent assessment.",
		}),
		LastAnnualMWh: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "windsite",
			Name:      "last_annual_energy_mwh",
			Help:      "Annual energy estimate in MWh from the most recent assessment.",
		}),
	}
}
