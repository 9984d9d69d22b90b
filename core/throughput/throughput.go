package throughput

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/mverdier/lineflow/core/model"
)

// StationMetric is the work content of one station in effective minutes.
type StationMetric struct {
	StationID int
	CycleTime float64
	TaskCount int
}

// Metrics summarizes the per-station work content of an assignment.
type Metrics struct {
	Stations   []StationMetric
	Bottleneck float64 // max station cycle time, 0 when no stations
	Fastest    float64 // min over stations with work, +Inf when none
}

// StationMetrics computes per-station cycle times for the assignment using
// mix-weighted effective task times.
func StationMetrics(a model.StationAssignment, tm *model.TaskModel) Metrics {
	m := Metrics{Fastest: math.Inf(1)}
	for _, sid := range a.StationIDs() {
		ct := 0.0
		for _, tid := range a[sid] {
			ct += tm.EffectiveTime(tid)
		}
		m.Stations = append(m.Stations, StationMetric{StationID: sid, CycleTime: ct, TaskCount: len(a[sid])})
		if ct > m.Bottleneck {
			m.Bottleneck = ct
		}
		if ct > 0 && ct < m.Fastest {
			m.Fastest = ct
		}
	}
	return m
}

// Geometry describes the physical line.
type Geometry struct {
	// LineLength is the conveyor length in meters.
	LineLength float64 `json:"line_length_m" yaml:"line_length_m"`
	// UnitConversion converts the fastest station time into the distance
	// one product occupies on the conveyor, fixed by the physical product
	// pitch (meters per minute of launch interval).
	UnitConversion float64 `json:"unit_conversion" yaml:"unit_conversion"`
}

// SetDefaults applies sane defaults.
func (g *Geometry) SetDefaults() {
	if g.UnitConversion == 0 {
		g.UnitConversion = 1
	}
}

// OperatingPoint is one set of operating parameters to evaluate.
type OperatingPoint struct {
	DailyDemand int     `json:"daily_demand" yaml:"daily_demand"`
	OpHours     float64 `json:"op_hours" yaml:"op_hours"`
	Employees   int     `json:"employees" yaml:"employees"`
}

// StationResult holds per-station idle and efficiency figures at an
// operating point.
type StationResult struct {
	StationID    int     `json:"station_id"`
	CycleTime    float64 `json:"cycle_time"`
	IdlePerCycle float64 `json:"idle_per_cycle"`
	DailyIdle    float64 `json:"daily_idle"`
	Efficiency   float64 `json:"efficiency"`
}

// Result is the capacity of the line at one operating point. A zero Result
// means the inputs were degenerate (no stations, no work or no spacing).
type Result struct {
	UnitsPerDay        int             `json:"throughput_units_per_day"`
	UnitsPerHour       float64         `json:"throughput_units_per_hour"`
	EffectiveCycleTime float64         `json:"effective_cycle_time"`
	ConveyorSpeed      float64         `json:"conveyor_speed"`
	ProductSpacing     float64         `json:"product_spacing"`
	WIP                float64         `json:"wip"`
	PhysicalMaxUnits   int             `json:"physical_max_units"`
	DemandBound        bool            `json:"demand_bound"`
	Workstations       []StationResult `json:"workstations"`
	AverageEfficiency  float64         `json:"average_efficiency"`
	TotalIdleTime      float64         `json:"total_idle_time"`
	BalanceDelay       float64         `json:"balance_delay"`
	IdleTimeCV         float64         `json:"idle_time_cv"`
}

// Capacity evaluates the line at an operating point. The fastest station
// fixes the product spacing on the conveyor; the bottleneck fixes the pace.
// When demand exceeds the physical maximum the line is capacity-bound and
// runs at bottleneck pace; otherwise the horizon is stretched across the
// demanded launches plus one full traversal.
func Capacity(op OperatingPoint, m Metrics, geom Geometry) Result {
	spacing := m.Fastest * geom.UnitConversion
	if m.Bottleneck <= 0 || spacing <= 0 || math.IsInf(spacing, 1) || geom.LineLength <= 0 {
		return Result{}
	}

	horizon := op.OpHours * 60
	lineUnits := geom.LineLength / spacing // units simultaneously on the line
	traversal := lineUnits * m.Bottleneck  // one unit end to end at bottleneck pace

	physicalMax := 0
	launchWindow := horizon - traversal
	switch {
	case launchWindow > 0:
		physicalMax = int(math.Floor(launchWindow/m.Bottleneck)) + 1
	case horizon >= traversal:
		physicalMax = 1
	}

	res := Result{
		ProductSpacing:   spacing,
		WIP:              lineUnits,
		PhysicalMaxUnits: physicalMax,
	}
	if op.DailyDemand > physicalMax {
		res.EffectiveCycleTime = m.Bottleneck
		res.UnitsPerDay = physicalMax
	} else {
		res.DemandBound = true
		res.UnitsPerDay = op.DailyDemand
		if op.DailyDemand <= 1 {
			res.EffectiveCycleTime = m.Bottleneck
		} else {
			res.EffectiveCycleTime = horizon / (float64(op.DailyDemand-1) + lineUnits)
		}
	}
	if res.EffectiveCycleTime > 0 {
		res.ConveyorSpeed = spacing / res.EffectiveCycleTime
	}

	// Elapsed production time spans the launch intervals plus one full
	// traversal at the effective pace, which differs from the operating
	// horizon by the partial first/last traversal.
	if res.UnitsPerDay > 0 {
		elapsed := res.EffectiveCycleTime * (float64(res.UnitsPerDay-1) + lineUnits)
		if elapsed > 0 {
			res.UnitsPerHour = float64(res.UnitsPerDay) / elapsed * 60
		}
	}

	idles := make([]float64, 0, len(m.Stations))
	effs := make([]float64, 0, len(m.Stations))
	for _, st := range m.Stations {
		idle := m.Bottleneck - st.CycleTime
		sr := StationResult{
			StationID:    st.StationID,
			CycleTime:    st.CycleTime,
			IdlePerCycle: idle,
			DailyIdle:    idle * float64(res.UnitsPerDay),
			Efficiency:   st.CycleTime / m.Bottleneck,
		}
		res.Workstations = append(res.Workstations, sr)
		res.TotalIdleTime += sr.DailyIdle
		idles = append(idles, idle)
		effs = append(effs, sr.Efficiency)
	}
	if len(m.Stations) > 0 {
		res.AverageEfficiency = stat.Mean(effs, nil)
		totalWork := 0.0
		for _, st := range m.Stations {
			totalWork += st.CycleTime
		}
		denom := float64(len(m.Stations)) * m.Bottleneck
		res.BalanceDelay = (denom - totalWork) / denom
		if mean := stat.Mean(idles, nil); mean > 0 && len(idles) > 1 {
			res.IdleTimeCV = stat.StdDev(idles, nil) / mean
		}
	}
	return res
}
