package events

// SolveEvent reports the progress of one per-station-count balancer solve on
// the event bus. Action is one of "start", "optimal", "infeasible" or
// "error".
type SolveEvent struct {
	Stations  int
	Action    string
	CycleTime float64
	Err       error
}
