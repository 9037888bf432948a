package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	runsTotal       *prometheus.CounterVec
	runDuration     prometheus.Histogram
	sectionsTotal   *prometheus.CounterVec
	sectionLatency  *prometheus.HistogramVec
	allocation      *prometheus.GaugeVec
	biasTotal       *prometheus.CounterVec
	deliveriesTotal *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
}

// New registers the research metrics on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		runsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finresearch_runs_total",
				Help: "Total number of research runs",
			},
			[]string{"token"},
		),
		runDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "finresearch_run_duration_seconds",
				Help:    "Wall-clock duration of research runs",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 45, 60, 90},
			},
		),
		sectionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finresearch_section_results_total",
				Help: "Research section outcomes by status and error kind",
			},
			[]string{"section", "status", "kind"},
		),
		sectionLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finresearch_section_duration_seconds",
				Help:    "Duration of research sections in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"section"},
		),
		allocation: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "finresearch_allocation_percent",
				Help: "Latest weekly allocation percent per token",
			},
			[]string{"token"},
		),
		biasTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finresearch_bias_total",
				Help: "Allocation verdicts by bias",
			},
			[]string{"bias"},
		),
		deliveriesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finresearch_deliveries_total",
				Help: "Report deliveries by sink and result",
			},
			[]string{"sink", "result"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finresearch_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"kind"},
		),
	}
}

func (r *Recorder) RecordRun(token string, duration time.Duration) {
	r.runsTotal.WithLabelValues(token).Inc()
	r.runDuration.Observe(duration.Seconds())
}

func (r *Recorder) RecordSection(section, status, kind string, seconds float64) {
	r.sectionsTotal.WithLabelValues(section, status, kind).Inc()
	r.sectionLatency.WithLabelValues(section).Observe(seconds)
}

func (r *Recorder) RecordAllocation(token, bias string, percent int) {
	r.allocation.WithLabelValues(token).Set(float64(percent))
	r.biasTotal.WithLabelValues(bias).Inc()
}

// RecordDelivery counts a sink delivery as ok or error.
func (r *Recorder) RecordDelivery(sink string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.deliveriesTotal.WithLabelValues(sink, result).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}
