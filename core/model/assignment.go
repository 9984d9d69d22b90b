package model

import "sort"

// StationAssignment maps a station id (1..m) to the ordered list of task ids
// performed there. A well-formed assignment places every task exactly once
// and never puts a predecessor downstream of its successor.
type StationAssignment map[int][]string

// StationIDs returns the station ids in increasing order.
func (a StationAssignment) StationIDs() []int {
	ids := make([]int, 0, len(a))
	for id := range a {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// TaskStations inverts the assignment into a task-id → station-id map.
// When a task appears in several stations the lowest wins; Violations
// reports the duplication separately.
func (a StationAssignment) TaskStations() map[string]int {
	out := make(map[string]int)
	for _, sid := range a.StationIDs() {
		for _, tid := range a[sid] {
			if _, ok := out[tid]; !ok {
				out[tid] = sid
			}
		}
	}
	return out
}

// TaskCount is the number of task slots across all stations, duplicates
// included.
func (a StationAssignment) TaskCount() int {
	n := 0
	for _, tasks := range a {
		n += len(tasks)
	}
	return n
}

// Violations checks the assignment against the pairwise precedence reading:
// station(p) <= station(t) for every edge p->t. It returns the ids of tasks
// that are duplicated, unknown, missing, or placed ahead of a predecessor.
// This is a user-facing validation state, not an error; callers keep
// computing on the well-formed remainder.
func (a StationAssignment) Violations(tm *TaskModel) []string {
	bad := make(map[string]bool)
	seen := make(map[string]int)
	for _, sid := range a.StationIDs() {
		for _, tid := range a[sid] {
			if _, ok := tm.Task(tid); !ok {
				bad[tid] = true
				continue
			}
			if _, dup := seen[tid]; dup {
				bad[tid] = true
				continue
			}
			seen[tid] = sid
		}
	}
	for _, t := range tm.Tasks() {
		st, placed := seen[t.ID]
		if !placed {
			bad[t.ID] = true
			continue
		}
		for _, p := range t.Predecessors {
			if ps, ok := seen[p]; ok && ps > st {
				bad[t.ID] = true
			}
		}
	}
	out := make([]string, 0, len(bad))
	for id := range bad {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// LineConfig is the balanced configuration for one station count: the task
// assignment and the cycle time it realizes. Built once per m by the
// balancer, cached by the caller for the session, and rebuilt whenever the
// task model changes.
type LineConfig struct {
	StationCount int
	Stations     StationAssignment
	CycleTime    float64 // minutes, bottleneck station work content
}
