package scenarios

import (
	"context"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mverdier/lineflow/core/balance"
	coremetrics "github.com/mverdier/lineflow/core/metrics"
	"github.com/mverdier/lineflow/core/sequence"
	"github.com/mverdier/lineflow/core/sim"
	"github.com/mverdier/lineflow/core/throughput"
	infralogger "github.com/mverdier/lineflow/infra/logger"
	"github.com/mverdier/lineflow/infra/metrics"
)

// RunScenario drives the full pipeline for one scenario: balance, capacity,
// sequencing and simulation, checking the declared expectations.
func RunScenario(t *testing.T, sc *Scenario) {
	tm, err := sc.TaskModel()
	if err != nil {
		t.Fatalf("scenario %s: task model: %v", sc.Name, err)
	}

	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}
	solver := balance.NewSolver(
		balance.Config{MinStations: sc.Stations, MaxStations: sc.Stations},
		infralogger.NopLogger{}, nil, sink,
	)
	configs, err := solver.Solve(context.Background(), tm)
	if err != nil {
		t.Fatalf("scenario %s: solve: %v", sc.Name, err)
	}
	cfg, ok := configs[sc.Stations]
	if !ok {
		t.Fatalf("scenario %s: no feasible balance for %d stations", sc.Name, sc.Stations)
	}
	if v := cfg.Stations.Violations(tm); len(v) != 0 {
		t.Fatalf("scenario %s: assignment violations: %v", sc.Name, v)
	}
	if sc.Expected.CycleTime > 0 && math.Abs(cfg.CycleTime-sc.Expected.CycleTime) > 1e-6 {
		t.Errorf("scenario %s: cycle time %v, expected %v", sc.Name, cfg.CycleTime, sc.Expected.CycleTime)
	}

	stationMetrics := throughput.StationMetrics(cfg.Stations, tm)
	cap := throughput.Capacity(sc.OperatingPoint(), stationMetrics, sc.Geometry())
	if sc.Expected.UnitsPerDay > 0 && cap.UnitsPerDay != sc.Expected.UnitsPerDay {
		t.Errorf("scenario %s: units/day %d, expected %d", sc.Name, cap.UnitsPerDay, sc.Expected.UnitsPerDay)
	}
	if cap.DemandBound != sc.Expected.DemandBound {
		t.Errorf("scenario %s: demand_bound %v, expected %v", sc.Name, cap.DemandBound, sc.Expected.DemandBound)
	}
	if err := sink.RecordCapacity(coremetrics.CapacityRecord{
		Stations:    sc.Stations,
		DailyDemand: sc.DailyDemand,
		UnitsPerDay: cap.UnitsPerDay,
	}); err != nil {
		t.Fatalf("record capacity: %v", err)
	}

	units := sequence.BuildUnits(tm.Models(), cap.UnitsPerDay)
	travel := sim.ProportionalTravel(stationMetrics, cap.WIP*stationMetrics.Bottleneck)
	res := sim.Simulate(cfg, tm, units, cap.EffectiveCycleTime, travel)
	if len(res.Units) != len(units) {
		t.Fatalf("scenario %s: simulated %d of %d units", sc.Name, len(res.Units), len(units))
	}
	for i := 1; i < len(res.Units); i++ {
		if res.Units[i].Exit < res.Units[i-1].Exit {
			t.Fatalf("scenario %s: completions out of order at unit %d", sc.Name, i)
		}
	}
	// The line can never beat its own pace: realized cycle time stays at or
	// above the launch interval.
	if len(res.Units) > 1 && res.RealizedCycleTime < cap.EffectiveCycleTime-1e-9 {
		t.Errorf("scenario %s: realized cycle time %v below launch pace %v",
			sc.Name, res.RealizedCycleTime, cap.EffectiveCycleTime)
	}
}
