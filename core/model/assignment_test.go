package model

import (
	"reflect"
	"testing"
)

func chainFixture(t *testing.T) *TaskModel {
	t.Helper()
	tm, err := NewTaskModel([]Task{
		{ID: "a", BaseTime: 2},
		{ID: "b", BaseTime: 3, Predecessors: []string{"a"}},
		{ID: "c", BaseTime: 1, Predecessors: []string{"b"}},
	}, nil)
	if err != nil {
		t.Fatalf("task model: %v", err)
	}
	return tm
}

func TestViolationsWellFormed(t *testing.T) {
	tm := chainFixture(t)
	a := StationAssignment{1: {"a", "b"}, 2: {"c"}}
	if v := a.Violations(tm); len(v) != 0 {
		t.Fatalf("unexpected violations: %v", v)
	}
}

func TestViolationsPrecedence(t *testing.T) {
	tm := chainFixture(t)
	a := StationAssignment{1: {"b", "c"}, 2: {"a"}}
	got := a.Violations(tm)
	if !reflect.DeepEqual(got, []string{"b"}) {
		t.Fatalf("expected [b], got %v", got)
	}
}

func TestViolationsMissingAndDuplicate(t *testing.T) {
	tm := chainFixture(t)
	a := StationAssignment{1: {"a", "a"}, 2: {"b"}}
	got := a.Violations(tm)
	// "a" is duplicated and "c" is missing.
	want := []string{"a", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestViolationsUnknownTask(t *testing.T) {
	tm := chainFixture(t)
	a := StationAssignment{1: {"a", "b", "c", "zz"}}
	got := a.Violations(tm)
	if !reflect.DeepEqual(got, []string{"zz"}) {
		t.Fatalf("expected [zz], got %v", got)
	}
}

func TestTaskStationsAndIDs(t *testing.T) {
	a := StationAssignment{2: {"c"}, 1: {"a", "b"}}
	if !reflect.DeepEqual(a.StationIDs(), []int{1, 2}) {
		t.Fatalf("station ids not sorted: %v", a.StationIDs())
	}
	ts := a.TaskStations()
	if ts["a"] != 1 || ts["b"] != 1 || ts["c"] != 2 {
		t.Fatalf("task stations wrong: %v", ts)
	}
	if a.TaskCount() != 3 {
		t.Fatalf("task count: %d", a.TaskCount())
	}
}
