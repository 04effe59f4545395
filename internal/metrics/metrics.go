package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// Optimizer metrics
	optimizeRuns     *prometheus.CounterVec
	optimizeDuration prometheus.Histogram
	trialsEvaluated  prometheus.Counter

	// Universe metrics
	instrumentsTracked prometheus.Gauge
	instrumentsRemoved prometheus.Counter
	runsTotal          *prometheus.CounterVec
	runDuration        prometheus.Histogram

	// Trading metrics
	ordersSubmitted *prometheus.CounterVec
	barsFetched     *prometheus.CounterVec
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		optimizeRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "osprey_optimize_runs_total",
				Help: "Total number of per-symbol grid optimizations",
			},
			[]string{"status"},
		),
		optimizeDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "osprey_optimize_duration_seconds",
				Help:    "Per-symbol optimization duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		trialsEvaluated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "osprey_optimize_trials_total",
				Help: "Total number of ratio pairs evaluated",
			},
		),

		instrumentsTracked: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "osprey_instruments_tracked",
				Help: "Number of instruments currently tracked",
			},
		),
		instrumentsRemoved: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "osprey_instruments_removed_total",
				Help: "Total number of instruments removed for lack of a viable configuration",
			},
		),
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "osprey_runs_total",
				Help: "Total number of full universe runs",
			},
			[]string{"status"},
		),
		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "osprey_run_duration_seconds",
				Help:    "Full universe run duration in seconds",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
			},
		),

		ordersSubmitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "osprey_orders_submitted_total",
				Help: "Total number of bracket orders submitted",
			},
			[]string{"status"},
		),
		barsFetched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "osprey_bars_fetched_total",
				Help: "Total number of daily bars fetched",
			},
			[]string{"source"},
		),
	}

	reg.MustRegister(r.optimizeRuns)
	reg.MustRegister(r.optimizeDuration)
	reg.MustRegister(r.trialsEvaluated)
	reg.MustRegister(r.instrumentsTracked)
	reg.MustRegister(r.instrumentsRemoved)
	reg.MustRegister(r.runsTotal)
	reg.MustRegister(r.runDuration)
	reg.MustRegister(r.ordersSubmitted)
	reg.MustRegister(r.barsFetched)

	return r
}

// RecordOptimize records a per-symbol optimization.
func (r *Registry) RecordOptimize(status string, duration float64) {
	r.optimizeRuns.WithLabelValues(status).Inc()
	r.optimizeDuration.Observe(duration)
}

// AddTrials adds to the evaluated trial count.
func (r *Registry) AddTrials(n int) {
	r.trialsEvaluated.Add(float64(n))
}

// SetInstrumentsTracked sets the tracked instrument gauge.
func (r *Registry) SetInstrumentsTracked(n int) {
	r.instrumentsTracked.Set(float64(n))
}

// RecordInstrumentRemoved records an instrument removal.
func (r *Registry) RecordInstrumentRemoved() {
	r.instrumentsRemoved.Inc()
}

// RecordRun records a full universe run.
func (r *Registry) RecordRun(status string, duration float64) {
	r.runsTotal.WithLabelValues(status).Inc()
	r.runDuration.Observe(duration)
}

// RecordOrder records a submitted bracket order.
func (r *Registry) RecordOrder(status string) {
	r.ordersSubmitted.WithLabelValues(status).Inc()
}

// AddBarsFetched adds to the fetched bar count for a source.
func (r *Registry) AddBarsFetched(source string, n int) {
	r.barsFetched.WithLabelValues(source).Add(float64(n))
}
