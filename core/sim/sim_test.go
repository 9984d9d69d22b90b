package sim

import (
	"math"
	"testing"

	"github.com/mverdier/lineflow/core/model"
	"github.com/mverdier/lineflow/core/throughput"
)

func singleStationLine(t *testing.T) (model.LineConfig, *model.TaskModel) {
	t.Helper()
	tm, err := model.NewTaskModel([]model.Task{
		{ID: "a", BaseTime: 2},
		{ID: "b", BaseTime: 3, Predecessors: []string{"a"}},
	}, nil)
	if err != nil {
		t.Fatalf("task model: %v", err)
	}
	cfg := model.LineConfig{
		StationCount: 1,
		Stations:     model.StationAssignment{1: {"a", "b"}},
		CycleTime:    5,
	}
	return cfg, tm
}

func mkUnits(modelIDs ...string) []model.ProductionUnit {
	units := make([]model.ProductionUnit, len(modelIDs))
	for i, mid := range modelIDs {
		units[i] = model.ProductionUnit{ID: string(rune('u' + i)), ModelID: mid, Index: i}
	}
	return units
}

func TestSimulatePacedLaunches(t *testing.T) {
	cfg, tm := singleStationLine(t)
	units := mkUnits("", "", "")
	res := Simulate(cfg, tm, units, 5, nil)

	if len(res.Tasks) != 6 {
		t.Fatalf("scheduled tasks: %d", len(res.Tasks))
	}
	for k, u := range res.Units {
		if u.Enter != float64(k)*5 {
			t.Fatalf("unit %d enter %v", k, u.Enter)
		}
		if u.Exit != float64(k)*5+5 {
			t.Fatalf("unit %d exit %v", k, u.Exit)
		}
	}
	if res.RealizedCycleTime != 5 {
		t.Fatalf("realized cycle time: %v", res.RealizedCycleTime)
	}
}

func TestSimulateQueuesAtStation(t *testing.T) {
	cfg, tm := singleStationLine(t)
	units := mkUnits("", "", "", "")
	// Launching faster than the station can work makes the server the pace.
	res := Simulate(cfg, tm, units, 1, nil)

	for k, u := range res.Units {
		want := float64(k)*5 + 5
		if u.Exit != want {
			t.Fatalf("unit %d exit %v want %v", k, u.Exit, want)
		}
	}
	if res.RealizedCycleTime != 5 {
		t.Fatalf("realized cycle time: %v", res.RealizedCycleTime)
	}
}

func TestSimulateSkipsInapplicableTasks(t *testing.T) {
	tm, err := model.NewTaskModel([]model.Task{
		{ID: "base", BaseTime: 2},
		{ID: "trim", BaseTime: 4, UsedBy: []string{"super"}},
	}, []model.Model{
		{ID: "super", Ratio: 0.5},
		{ID: "basic", Ratio: 0.5},
	})
	if err != nil {
		t.Fatalf("task model: %v", err)
	}
	cfg := model.LineConfig{StationCount: 1, Stations: model.StationAssignment{1: {"base", "trim"}}}

	res := Simulate(cfg, tm, mkUnits("super", "basic"), 10, nil)
	if len(res.Tasks) != 3 {
		t.Fatalf("scheduled tasks: %d", len(res.Tasks))
	}
	if res.Units[0].Exit != 6 {
		t.Fatalf("super exit: %v", res.Units[0].Exit)
	}
	if res.Units[1].Exit != 12 {
		t.Fatalf("basic exit: %v", res.Units[1].Exit)
	}
	for _, st := range res.Tasks {
		if st.TaskID == "trim" && st.ModelID != "super" {
			t.Fatalf("trim scheduled for %q", st.ModelID)
		}
	}
}

func TestSimulateConveyorDominates(t *testing.T) {
	cfg, tm := singleStationLine(t)
	res := Simulate(cfg, tm, mkUnits(""), 0, TravelTimes{1: 20})
	if res.Units[0].Exit != 20 {
		t.Fatalf("exit should wait for the conveyor: %v", res.Units[0].Exit)
	}
	// Processing still starts on arrival.
	if res.Tasks[0].Start != 0 || res.Tasks[0].End != 2 {
		t.Fatalf("task timing: %+v", res.Tasks[0])
	}
}

func TestSimulateEmpty(t *testing.T) {
	cfg, tm := singleStationLine(t)
	if res := Simulate(cfg, tm, nil, 5, nil); len(res.Tasks) != 0 || res.RealizedCycleTime != 0 {
		t.Fatalf("empty sequence: %+v", res)
	}
}

func TestProportionalTravel(t *testing.T) {
	m := throughput.Metrics{
		Stations: []throughput.StationMetric{
			{StationID: 1, CycleTime: 6},
			{StationID: 2, CycleTime: 2},
		},
	}
	tt := ProportionalTravel(m, 16)
	if tt[1] != 12 || tt[2] != 4 {
		t.Fatalf("travel times: %v", tt)
	}
	if tt := ProportionalTravel(throughput.Metrics{Stations: []throughput.StationMetric{{StationID: 1}}}, 10); tt[1] != 0 {
		t.Fatalf("zero-work travel: %v", tt)
	}
}

// The simulated inter-completion gap must reproduce the analytic effective
// cycle time whenever units are launched at that pace and the line never
// queues.
func TestSimulateMatchesAnalyticCycleTime(t *testing.T) {
	tm, err := model.NewTaskModel([]model.Task{
		{ID: "a", BaseTime: 6},
		{ID: "b", BaseTime: 6, Predecessors: []string{"a"}},
	}, nil)
	if err != nil {
		t.Fatalf("task model: %v", err)
	}
	cfg := model.LineConfig{
		StationCount: 2,
		Stations:     model.StationAssignment{1: {"a"}, 2: {"b"}},
		CycleTime:    6,
	}
	metrics := throughput.StationMetrics(cfg.Stations, tm)
	geom := throughput.Geometry{LineLength: 12, UnitConversion: 1}
	cap := throughput.Capacity(throughput.OperatingPoint{DailyDemand: 50, OpHours: 8}, metrics, geom)
	if !cap.DemandBound {
		t.Fatalf("fixture should be demand-bound: %+v", cap)
	}

	units := make([]model.ProductionUnit, cap.UnitsPerDay)
	for i := range units {
		units[i] = model.ProductionUnit{ID: string(rune('A' + i%26)), ModelID: "", Index: i}
	}
	travel := ProportionalTravel(metrics, cap.WIP*metrics.Bottleneck)
	res := Simulate(cfg, tm, units, cap.EffectiveCycleTime, travel)

	if math.Abs(res.RealizedCycleTime-cap.EffectiveCycleTime) > 1e-9 {
		t.Fatalf("realized %v vs analytic %v", res.RealizedCycleTime, cap.EffectiveCycleTime)
	}
	// Last completion lands one traversal past the final launch.
	last := res.Units[len(res.Units)-1]
	wantExit := float64(cap.UnitsPerDay-1)*cap.EffectiveCycleTime + 12
	if math.Abs(last.Exit-wantExit) > 1e-9 {
		t.Fatalf("last exit %v want %v", last.Exit, wantExit)
	}
}
