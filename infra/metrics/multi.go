package metrics

import coremetrics "github.com/mverdier/lineflow/core/metrics"

// MultiSink fans records out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordSolve forwards the record to all sinks, returning the first error.
func (m *MultiSink) RecordSolve(rec coremetrics.SolveRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordSolve(rec); err != nil {
			return err
		}
	}
	return nil
}

// RecordCapacity forwards the record to all sinks, returning the first error.
func (m *MultiSink) RecordCapacity(rec coremetrics.CapacityRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordCapacity(rec); err != nil {
			return err
		}
	}
	return nil
}
