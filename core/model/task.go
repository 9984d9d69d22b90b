package model

import (
	"fmt"
	"math"
)

// Task is an atomic work element performed somewhere on the line.
type Task struct {
	ID           string
	BaseTime     float64  // minutes per physical unit
	Predecessors []string // task ids that must be completed at the same or an earlier station
	UsedBy       []string // model ids the task applies to; empty means every model
}

// AppliesTo reports whether the task is performed on units of the given model.
func (t Task) AppliesTo(modelID string) bool {
	if len(t.UsedBy) == 0 {
		return true
	}
	for _, id := range t.UsedBy {
		if id == modelID {
			return true
		}
	}
	return false
}

// Model is one product variant built on the line.
type Model struct {
	ID     string
	Ratio  float64 // fraction of the daily mix, ratios across models sum to 1
	Length float64 // meters, consumed by line-length sizing
	Width  float64 // meters
}

// ratioTolerance bounds the accepted drift of the model ratio sum from 1.0.
const ratioTolerance = 1e-3

// TaskModel is an immutable snapshot of the work content and product mix.
// All balancing and capacity computations consume it by value; editing
// tooling builds a fresh one rather than mutating in place.
type TaskModel struct {
	tasks  []Task
	models []Model
	byID   map[string]int
}

// NewTaskModel validates the tasks and models and returns a snapshot.
func NewTaskModel(tasks []Task, models []Model) (*TaskModel, error) {
	tm := &TaskModel{
		tasks:  append([]Task(nil), tasks...),
		models: append([]Model(nil), models...),
		byID:   make(map[string]int, len(tasks)),
	}
	for i, t := range tm.tasks {
		if t.ID == "" {
			return nil, fmt.Errorf("task %d has empty id", i)
		}
		if _, dup := tm.byID[t.ID]; dup {
			return nil, fmt.Errorf("duplicate task id %q", t.ID)
		}
		if t.BaseTime < 0 {
			return nil, fmt.Errorf("task %q has negative base time", t.ID)
		}
		tm.byID[t.ID] = i
	}
	for _, t := range tm.tasks {
		for _, p := range t.Predecessors {
			if _, ok := tm.byID[p]; !ok {
				return nil, fmt.Errorf("task %q references unknown predecessor %q", t.ID, p)
			}
		}
	}
	seen := make(map[string]bool, len(tm.models))
	sum := 0.0
	for _, m := range tm.models {
		if m.ID == "" {
			return nil, fmt.Errorf("model with empty id")
		}
		if seen[m.ID] {
			return nil, fmt.Errorf("duplicate model id %q", m.ID)
		}
		seen[m.ID] = true
		sum += m.Ratio
	}
	if len(tm.models) > 0 && math.Abs(sum-1) > ratioTolerance {
		return nil, fmt.Errorf("model ratios sum to %.4f, expected 1.0", sum)
	}
	if cycle := tm.findCycle(); cycle != "" {
		return nil, fmt.Errorf("precedence cycle through task %q", cycle)
	}
	return tm, nil
}

// findCycle returns the id of a task on a precedence cycle, or "".
func (tm *TaskModel) findCycle() string {
	const (
		white = iota
		grey
		black
	)
	color := make([]int, len(tm.tasks))
	var visit func(int) bool
	visit = func(i int) bool {
		color[i] = grey
		for _, p := range tm.tasks[i].Predecessors {
			j := tm.byID[p]
			switch color[j] {
			case grey:
				return true
			case white:
				if visit(j) {
					return true
				}
			}
		}
		color[i] = black
		return false
	}
	for i := range tm.tasks {
		if color[i] == white && visit(i) {
			return tm.tasks[i].ID
		}
	}
	return ""
}

// Tasks returns the task list in load order.
func (tm *TaskModel) Tasks() []Task { return tm.tasks }

// Models returns the product variants.
func (tm *TaskModel) Models() []Model { return tm.models }

// Task looks up a task by id.
func (tm *TaskModel) Task(id string) (Task, bool) {
	i, ok := tm.byID[id]
	if !ok {
		return Task{}, false
	}
	return tm.tasks[i], true
}

// EffectiveTime is the mix-weighted expected work content of the task per
// launched unit: BaseTime scaled by the combined ratio of the models that
// use it. A task no model uses falls back to its raw BaseTime.
func (tm *TaskModel) EffectiveTime(id string) float64 {
	t, ok := tm.Task(id)
	if !ok {
		return 0
	}
	if len(tm.models) == 0 {
		return t.BaseTime
	}
	share := 0.0
	for _, m := range tm.models {
		if t.AppliesTo(m.ID) {
			share += m.Ratio
		}
	}
	if share == 0 {
		return t.BaseTime
	}
	return t.BaseTime * share
}

// TotalWork is the sum of effective times over all tasks.
func (tm *TaskModel) TotalWork() float64 {
	total := 0.0
	for _, t := range tm.tasks {
		total += tm.EffectiveTime(t.ID)
	}
	return total
}

// MaxTaskTime is the largest single-task effective time.
func (tm *TaskModel) MaxTaskTime() float64 {
	max := 0.0
	for _, t := range tm.tasks {
		if et := tm.EffectiveTime(t.ID); et > max {
			max = et
		}
	}
	return max
}
