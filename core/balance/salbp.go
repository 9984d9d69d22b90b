package balance

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/mverdier/lineflow/core/model"
)

// BalanceStations solves the SALBP-2 program for a fixed station count:
// minimize the cycle time subject to every task landing on exactly one
// station and no predecessor landing downstream of its successor.
//
// Decision variables are one binary per (task, station) pair plus a single
// continuous cycle-time variable bounded by
// [max(maxTaskTime, totalWork/m), totalWork]. Precedence is linearized as the
// weighted station-index inequality sum(j*x[p][j]) <= sum(j*x[t][j]); the
// extracted assignment is re-checked against the pairwise reading afterwards,
// which is the authoritative invariant.
func BalanceStations(ctx context.Context, tm *model.TaskModel, m int) (model.LineConfig, error) {
	tasks := tm.Tasks()
	if m < 1 {
		return model.LineConfig{}, fmt.Errorf("station count %d out of range", m)
	}
	if len(tasks) == 0 {
		return model.LineConfig{}, ErrInfeasible
	}

	totalWork := tm.TotalWork()
	maxTask := tm.MaxTaskTime()
	lbC := math.Max(maxTask, totalWork/float64(m))

	p := NewProblem()
	x := make([][]Var, len(tasks))
	for i := range tasks {
		x[i] = make([]Var, m)
		for j := 0; j < m; j++ {
			x[i][j] = p.Binary()
		}
	}
	c := p.Continuous(lbC, totalWork)

	// Every task lands on exactly one station.
	for i := range tasks {
		assign := NewExpr()
		for j := 0; j < m; j++ {
			assign.Add(x[i][j], 1)
		}
		p.AddConstraint(assign, Equal, 1)
	}

	// Station load never exceeds the cycle time.
	for j := 0; j < m; j++ {
		load := NewExpr()
		for i, t := range tasks {
			load.Add(x[i][j], tm.EffectiveTime(t.ID))
		}
		load.Add(c, -1)
		p.AddConstraint(load, LessEq, 0)
	}

	// Weighted station-index precedence rows.
	index := make(map[string]int, len(tasks))
	for i, t := range tasks {
		index[t.ID] = i
	}
	for i, t := range tasks {
		for _, pred := range t.Predecessors {
			pi := index[pred]
			edge := NewExpr()
			for j := 0; j < m; j++ {
				edge.Add(x[pi][j], float64(j+1))
				edge.Add(x[i][j], -float64(j+1))
			}
			p.AddConstraint(edge, LessEq, 0)
		}
	}

	obj := NewExpr()
	obj.Add(c, 1)
	p.Minimize(obj)

	sol, _, err := p.Solve(ctx)
	if err != nil {
		return model.LineConfig{}, err
	}

	assignment := extractAssignment(tm, sol, x, m)
	if v := assignment.Violations(tm); len(v) > 0 {
		// The LP encoding admitted an assignment the pairwise reading
		// rejects; treat the station count as not offerable.
		return model.LineConfig{}, fmt.Errorf("%w: precedence check failed for %v", ErrInfeasible, v)
	}
	return model.LineConfig{
		StationCount: m,
		Stations:     assignment,
		CycleTime:    Bottleneck(assignment, tm),
	}, nil
}

// extractAssignment reads the binary solution into a station map, ordering
// tasks within a station by topological rank so the simulator executes them
// in a precedence-consistent order.
func extractAssignment(tm *model.TaskModel, sol []float64, x [][]Var, m int) model.StationAssignment {
	rank := topoRank(tm)
	assignment := make(model.StationAssignment, m)
	for j := 1; j <= m; j++ {
		assignment[j] = nil
	}
	for i, t := range tm.Tasks() {
		best, bestVal := 1, math.Inf(-1)
		for j := 0; j < m; j++ {
			if v := sol[x[i][j]]; v > bestVal {
				best, bestVal = j+1, v
			}
		}
		assignment[best] = append(assignment[best], t.ID)
	}
	for j := range assignment {
		tasks := assignment[j]
		sort.SliceStable(tasks, func(a, b int) bool { return rank[tasks[a]] < rank[tasks[b]] })
	}
	return assignment
}

// topoRank orders tasks so every predecessor ranks before its successors.
func topoRank(tm *model.TaskModel) map[string]int {
	rank := make(map[string]int, len(tm.Tasks()))
	seen := make(map[string]bool, len(tm.Tasks()))
	var visit func(id string)
	visit = func(id string) {
		if seen[id] {
			return
		}
		seen[id] = true // NewTaskModel already rejected cycles
		t, _ := tm.Task(id)
		for _, p := range t.Predecessors {
			visit(p)
		}
		rank[id] = len(rank)
	}
	for _, t := range tm.Tasks() {
		visit(t.ID)
	}
	return rank
}

// Bottleneck recomputes the realized cycle time of an assignment: the largest
// station load in effective minutes. This is authoritative over the solver's
// C variable.
func Bottleneck(a model.StationAssignment, tm *model.TaskModel) float64 {
	max := 0.0
	for _, tasks := range a {
		load := 0.0
		for _, id := range tasks {
			load += tm.EffectiveTime(id)
		}
		if load > max {
			max = load
		}
	}
	return max
}
