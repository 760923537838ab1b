package metrics

// MultiSink fans events out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordRun forwards the event to all sinks, returning the first error encountered.
func (m *MultiSink) RecordRun(ev RunEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordRun(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordOutput forwards output events when supported by the sink.
func (m *MultiSink) RecordOutput(ev OutputEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(OutputRecorder); ok {
			if err := rec.RecordOutput(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordOutput records ev on sink when it supports outputs.
func RecordOutput(sink MetricsSink, ev OutputEvent) error {
	if rec, ok := sink.(OutputRecorder); ok {
		return rec.RecordOutput(ev)
	}
	return nil
}
