package metrics

import (
	"github.com/kilianp07/brunch/core/logger"
	coremetrics "github.com/kilianp07/brunch/core/metrics"
)

// LogSink writes run events as structured log lines.
type LogSink struct {
	log logger.Logger
}

// NewLogSink returns a sink logging through l.
func NewLogSink(l logger.Logger) *LogSink {
	if l == nil {
		l = logger.NopLogger{}
	}
	return &LogSink{log: l}
}

func (s *LogSink) RecordRun(ev coremetrics.RunEvent) error {
	fields := map[string]any{
		"run_id":      ev.RunID,
		"source":      ev.Source,
		"status":      ev.Status(),
		"bookings":    ev.Bookings,
		"tables":      ev.Tables,
		"unscheduled": ev.Unscheduled,
		"clear_slots": ev.ClearSlots,
		"duration_ms": ev.Duration.Milliseconds(),
	}
	if ev.Err != nil {
		fields["error"] = ev.Err.Error()
	}
	s.log.Infow("run recorded", fields)
	return nil
}

func (s *LogSink) RecordOutput(ev coremetrics.OutputEvent) error {
	fields := map[string]any{
		"run_id": ev.RunID,
		"format": ev.Format,
		"status": ev.Status(),
		"bytes":  ev.Bytes,
	}
	if ev.Err != nil {
		fields["error"] = ev.Err.Error()
	}
	s.log.Debugw("output rendered", fields)
	return nil
}
