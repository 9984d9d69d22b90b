// Package scenarios runs end-to-end line scenarios defined in YAML files:
// each scenario declares a work content, a product mix and an operating
// point, and asserts the cycle time and daily output the engine must
// produce for them.
package scenarios

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mverdier/lineflow/core/model"
	"github.com/mverdier/lineflow/core/throughput"
)

type TaskDef struct {
	ID           string   `yaml:"id"`
	BaseTime     float64  `yaml:"base_time"`
	Predecessors []string `yaml:"predecessors,omitempty"`
	UsedBy       []string `yaml:"used_by,omitempty"`
}

func (t TaskDef) ToModel() model.Task {
	return model.Task{
		ID:           t.ID,
		BaseTime:     t.BaseTime,
		Predecessors: t.Predecessors,
		UsedBy:       t.UsedBy,
	}
}

type ModelDef struct {
	ID    string  `yaml:"id"`
	Ratio float64 `yaml:"ratio"`
}

func (m ModelDef) ToModel() model.Model {
	return model.Model{ID: m.ID, Ratio: m.Ratio}
}

type Expected struct {
	CycleTime   float64 `yaml:"cycle_time"`
	UnitsPerDay int     `yaml:"units_per_day"`
	DemandBound bool    `yaml:"demand_bound"`
}

type Scenario struct {
	Name           string     `yaml:"name"`
	Description    string     `yaml:"description,omitempty"`
	Tasks          []TaskDef  `yaml:"tasks"`
	Models         []ModelDef `yaml:"models,omitempty"`
	Stations       int        `yaml:"stations"`
	DailyDemand    int        `yaml:"daily_demand"`
	OpHours        float64    `yaml:"op_hours"`
	LineLength     float64    `yaml:"line_length_m"`
	UnitConversion float64    `yaml:"unit_conversion,omitempty"`
	Expected       Expected   `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (sc *Scenario) TaskModel() (*model.TaskModel, error) {
	tasks := make([]model.Task, len(sc.Tasks))
	for i, t := range sc.Tasks {
		tasks[i] = t.ToModel()
	}
	models := make([]model.Model, len(sc.Models))
	for i, m := range sc.Models {
		models[i] = m.ToModel()
	}
	return model.NewTaskModel(tasks, models)
}

func (sc *Scenario) Geometry() throughput.Geometry {
	g := throughput.Geometry{LineLength: sc.LineLength, UnitConversion: sc.UnitConversion}
	g.SetDefaults()
	return g
}

func (sc *Scenario) OperatingPoint() throughput.OperatingPoint {
	return throughput.OperatingPoint{DailyDemand: sc.DailyDemand, OpHours: sc.OpHours}
}
