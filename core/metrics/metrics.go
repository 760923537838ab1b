package metrics

import "time"

// RunEvent describes one generation from a booking export.
type RunEvent struct {
	RunID       string
	Source      string
	Bookings    int
	Tables      int
	Unscheduled int
	ClearSlots  int
	Duration    time.Duration
	Err         error
	Time        time.Time
}

// Status returns "ok" or "error".
func (e RunEvent) Status() string {
	if e.Err != nil {
		return "error"
	}
	return "ok"
}

// MetricsSink records runs for observability purposes.
type MetricsSink interface {
	RecordRun(ev RunEvent) error
}

// OutputEvent describes one rendered output file.
type OutputEvent struct {
	RunID    string
	Format   string
	Bytes    int64
	Duration time.Duration
	Err      error
	Time     time.Time
}

// Status returns "ok" or "error".
func (e OutputEvent) Status() string {
	if e.Err != nil {
		return "error"
	}
	return "ok"
}

// OutputRecorder is implemented by sinks able to record rendered outputs.
type OutputRecorder interface {
	RecordOutput(ev OutputEvent) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordRun(RunEvent) error       { return nil }
func (NopSink) RecordOutput(OutputEvent) error { return nil }
