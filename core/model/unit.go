package model

// ProductionUnit is one physical unit to be built: a concrete instance of a
// model at a position in the day's build order. Created by the sequencer,
// consumed by the schedule simulator.
type ProductionUnit struct {
	ID      string // unique, assigned at sequencing time
	ModelID string
	Index   int // 0-based launch position in the sequence
}

// ScheduledTask is one simulated task execution. Pure output, never mutated
// after creation.
type ScheduledTask struct {
	TaskID    string
	StationID int
	ModelID   string
	UnitID    string
	Start     float64 // minutes from first launch
	End       float64
}
