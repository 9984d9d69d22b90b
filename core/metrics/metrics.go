package metrics

import "time"

// SolveRecord captures the outcome of one balancer solve for a station count.
type SolveRecord struct {
	Stations  int
	Outcome   string // "optimal", "infeasible" or "error"
	CycleTime float64
	Duration  time.Duration
	Time      time.Time
}

// CapacityRecord is a snapshot of one capacity computation at an operating
// point.
type CapacityRecord struct {
	Stations           int
	DailyDemand        int
	UnitsPerDay        int
	EffectiveCycleTime float64
	ConveyorSpeed      float64
	WIP                float64
	DemandBound        bool
	Time               time.Time
}

// Sink records engine events for observability purposes.
type Sink interface {
	RecordSolve(SolveRecord) error
	RecordCapacity(CapacityRecord) error
}

// NopSink implements Sink with no-op methods.
type NopSink struct{}

func (NopSink) RecordSolve(SolveRecord) error       { return nil }
func (NopSink) RecordCapacity(CapacityRecord) error { return nil }

// Config selects and parameterizes the metrics sinks.
type Config struct {
	PrometheusEnabled bool   `json:"prometheus_enabled"`
	PrometheusPort    string `json:"prometheus_port"`
	InfluxEnabled     bool   `json:"influx_enabled"`
	InfluxURL         string `json:"influx_url"`
	InfluxToken       string `json:"influx_token"`
	InfluxOrg         string `json:"influx_org"`
	InfluxBucket      string `json:"influx_bucket"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.PrometheusPort == "" {
		c.PrometheusPort = "2112"
	}
}
