package metrics

// MultiSink fans events out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordGeneration forwards the event to all sinks, returning the first error encountered.
func (m *MultiSink) RecordGeneration(ev GenerationEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordGeneration(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordReassignment forwards the event to the sinks that support it.
func (m *MultiSink) RecordReassignment(ev ReassignmentEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(ReassignmentRecorder); ok {
			if err := rec.RecordReassignment(ev); err != nil {
				return err
			}
		}
	}
	return nil
}
