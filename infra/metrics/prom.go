package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/mverdier/lineflow/core/metrics"
)

// PromSink records engine events in Prometheus metrics.
type PromSink struct {
	solves    *prometheus.CounterVec
	solveTime *prometheus.HistogramVec
	cycleTime *prometheus.GaugeVec
	unitsDay  *prometheus.GaugeVec
}

// NewPromSink registers engine metrics on the default Prometheus registerer.
// The metrics server is started separately using cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (coremetrics.Sink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(_ coremetrics.Config, reg prometheus.Registerer) (coremetrics.Sink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	solves := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "balance_solves_total",
		Help: "Total number of line-balancing solves by outcome",
	}, []string{"stations", "outcome"})
	solveTime := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "balance_solve_seconds",
		Help:    "Wall time of one line-balancing solve",
		Buckets: prometheus.DefBuckets,
	}, []string{"stations", "outcome"})
	cycleTime := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "line_cycle_time_minutes",
		Help: "Optimal cycle time per station count",
	}, []string{"stations"})
	unitsDay := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "line_units_per_day",
		Help: "Realizable daily output at the last evaluated operating point",
	}, []string{"stations"})

	if err := reg.Register(solves); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			solves = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(solveTime); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			solveTime = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(cycleTime); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			cycleTime = are.ExistingCollector.(*prometheus.GaugeVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(unitsDay); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			unitsDay = are.ExistingCollector.(*prometheus.GaugeVec)
		} else {
			return nil, err
		}
	}
	return &PromSink{solves: solves, solveTime: solveTime, cycleTime: cycleTime, unitsDay: unitsDay}, nil
}

// RecordSolve counts the solve and observes its duration.
func (s *PromSink) RecordSolve(rec coremetrics.SolveRecord) error {
	st := strconv.Itoa(rec.Stations)
	s.solves.WithLabelValues(st, rec.Outcome).Inc()
	s.solveTime.WithLabelValues(st, rec.Outcome).Observe(rec.Duration.Seconds())
	if rec.Outcome == "optimal" {
		s.cycleTime.WithLabelValues(st).Set(rec.CycleTime)
	}
	return nil
}

// RecordCapacity gauges the daily output of the evaluated configuration.
func (s *PromSink) RecordCapacity(rec coremetrics.CapacityRecord) error {
	s.unitsDay.WithLabelValues(strconv.Itoa(rec.Stations)).Set(float64(rec.UnitsPerDay))
	return nil
}
