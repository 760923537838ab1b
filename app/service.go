// Package app wires the booking import, turnover scheduling and output
// rendering into a single service used by the CLI and the web server.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/brunch/config"
	"github.com/kilianp07/brunch/core/logger"
	coremetrics "github.com/kilianp07/brunch/core/metrics"
	"github.com/kilianp07/brunch/core/model"
	coremon "github.com/kilianp07/brunch/core/monitoring"
	"github.com/kilianp07/brunch/core/runlog"
	"github.com/kilianp07/brunch/core/runsheet"
	"github.com/kilianp07/brunch/core/scheduler"
	"github.com/kilianp07/brunch/infra/bookingcsv"
	infralogger "github.com/kilianp07/brunch/infra/logger"
	_ "github.com/kilianp07/brunch/infra/metrics"
	"github.com/kilianp07/brunch/pkg/export"
)

// Request describes one generation.
type Request struct {
	Source    model.Source
	InputName string
	Input     io.Reader
	// DoubleSided overrides the configured card layout when set.
	DoubleSided *bool
	// Outputs names the files or formats the caller intends to produce.
	Outputs []string
}

// Result holds a computed run sheet ready for rendering.
type Result struct {
	ID          string
	CreatedAt   time.Time
	Source      model.Source
	InputName   string
	DoubleSided bool
	Entries     []scheduler.Entry
	Rows        []runsheet.Row
	Summary     scheduler.Summary
	Issues      []bookingcsv.Issue
}

// Deps are the collaborators of a Service. Zero values fall back to
// defaults or no-op implementations.
type Deps struct {
	Reader    *bookingcsv.Reader
	Scheduler scheduler.Scheduler
	Builder   runsheet.Builder
	Cards     export.CardConfig
	Store     runlog.Store
	Sink      coremetrics.MetricsSink
	Monitor   coremon.Monitor
	Log       logger.Logger
	Now       func() time.Time
	NewID     func() string
}

// Service orchestrates import, scheduling, rendering and run bookkeeping.
type Service struct {
	reader  *bookingcsv.Reader
	sched   scheduler.Scheduler
	builder runsheet.Builder
	cards   export.CardConfig
	store   runlog.Store
	sink    coremetrics.MetricsSink
	monitor coremon.Monitor
	log     logger.Logger
	now     func() time.Time
	newID   func() string
}

// New creates a Service from the configuration. A nil cfg uses the defaults.
func New(cfg *config.Config) (*Service, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	reader, err := bookingcsv.NewReader(cfg.Import)
	if err != nil {
		return nil, fmt.Errorf("booking reader: %w", err)
	}
	store, err := runlog.Open(cfg.RunLog)
	if err != nil {
		return nil, fmt.Errorf("run log: %w", err)
	}
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	sched := scheduler.New(cfg.Turnover)
	return NewService(Deps{
		Reader:    reader,
		Scheduler: sched,
		Builder:   runsheet.NewBuilder(cfg.Venue, cfg.Turnover.Service()),
		Cards:     cfg.Cards,
		Store:     store,
		Sink:      sink,
		Monitor:   coremon.Current(),
		Log:       infralogger.New("service"),
	})
}

// NewService assembles a Service from explicit dependencies.
func NewService(d Deps) (*Service, error) {
	s := &Service{
		reader:  d.Reader,
		sched:   d.Scheduler,
		builder: d.Builder,
		cards:   d.Cards,
		store:   d.Store,
		sink:    d.Sink,
		monitor: d.Monitor,
		log:     d.Log,
		now:     d.Now,
		newID:   d.NewID,
	}
	if s.reader == nil {
		r, err := bookingcsv.NewReader(bookingcsv.Config{})
		if err != nil {
			return nil, err
		}
		s.reader = r
	}
	if s.sched.Config == (scheduler.Config{}) {
		s.sched = scheduler.New(scheduler.DefaultConfig())
	}
	if s.builder.Service == 0 {
		s.builder = runsheet.NewBuilder(s.builder.Config, s.sched.Config.Service())
	}
	s.cards.SetDefaults()
	if s.store == nil {
		s.store = runlog.NopStore{}
	}
	if s.sink == nil {
		s.sink = coremetrics.NopSink{}
	}
	if s.monitor == nil {
		s.monitor = coremon.NopMonitor{}
	}
	if s.log == nil {
		s.log = logger.NopLogger{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s, nil
}

// Generate reads the booking export of req, computes the turnover plan and
// builds the run sheet. Every call is recorded in the run log and metrics,
// including failed ones.
func (s *Service) Generate(ctx context.Context, req Request) (*Result, error) {
	started := s.now()
	res := &Result{
		ID:          s.newID(),
		CreatedAt:   started,
		Source:      req.Source,
		InputName:   req.InputName,
		DoubleSided: s.cards.DoubleSided,
	}
	if req.DoubleSided != nil {
		res.DoubleSided = *req.DoubleSided
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	parsed, err := s.reader.Read(req.Input)
	if err != nil {
		err = fmt.Errorf("import %s: %w", req.InputName, err)
		s.record(ctx, res, req.Outputs, err, started)
		return nil, err
	}
	for _, is := range parsed.Issues {
		s.log.Warnf("line %d (%s): %s %q %s, left blank", is.Line, is.Name, is.Field, is.Value, is.Reason)
	}

	res.Issues = parsed.Issues
	res.Entries = s.sched.Plan(parsed.Bookings)
	res.Rows = s.builder.Build(res.Entries)
	res.Summary = scheduler.Summarize(res.Entries)
	s.record(ctx, res, req.Outputs, nil, started)
	s.log.Infow("run sheet generated", map[string]any{
		"run_id":      res.ID,
		"source":      res.Source.String(),
		"bookings":    res.Summary.Bookings,
		"tables":      res.Summary.Tables,
		"clear_slots": res.Summary.ClearSlots,
	})
	return res, nil
}

func (s *Service) record(ctx context.Context, res *Result, outputs []string, runErr error, started time.Time) {
	rec := runlog.RunRecord{
		ID:          res.ID,
		Timestamp:   started,
		Source:      res.Source.String(),
		InputName:   res.InputName,
		Bookings:    res.Summary.Bookings,
		Tables:      res.Summary.Tables,
		Unscheduled: res.Summary.Unscheduled,
		ClearSlots:  res.Summary.ClearSlots,
		FirstClear:  res.Summary.FirstClear,
		LastClear:   res.Summary.LastClear,
		Outputs:     outputs,
	}
	if runErr != nil {
		rec.Error = runErr.Error()
		s.log.Errorf("run %s failed: %v", res.ID, runErr)
		s.monitor.CaptureException(runErr, map[string]string{
			coremon.TagRunID:  res.ID,
			coremon.TagSource: rec.Source,
			coremon.TagStage:  "import",
		})
	}
	if err := s.store.Append(ctx, rec); err != nil {
		s.log.Errorf("append run %s: %v", res.ID, err)
	}
	if err := s.sink.RecordRun(coremetrics.RunEvent{
		RunID:       res.ID,
		Source:      rec.Source,
		Bookings:    rec.Bookings,
		Tables:      rec.Tables,
		Unscheduled: rec.Unscheduled,
		ClearSlots:  rec.ClearSlots,
		Duration:    s.now().Sub(started),
		Err:         runErr,
		Time:        started,
	}); err != nil {
		s.log.Warnf("record run metrics: %v", err)
	}
}

// Render writes one output of res to w.
func (s *Service) Render(ctx context.Context, res *Result, f Format, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	started := s.now()
	cw := &countingWriter{w: w}
	var err error
	switch f {
	case FormatXLSX:
		err = export.WriteXLSX(cw, res.Rows)
	case FormatPDF:
		cards := s.cards
		cards.DoubleSided = res.DoubleSided
		err = export.WriteCards(cw, res.Rows, cards)
	case FormatChart:
		err = export.WriteChart(cw, res.Entries)
	case FormatJSON:
		err = export.WriteJSON(cw, res.Rows)
	case FormatCSV:
		err = export.WriteCSV(cw, res.Rows)
	default:
		err = fmt.Errorf("unknown output format %q", f)
	}
	if err != nil {
		err = fmt.Errorf("render %s: %w", f, err)
		s.log.Errorf("run %s: %v", res.ID, err)
		s.monitor.CaptureException(err, map[string]string{
			coremon.TagRunID:  res.ID,
			coremon.TagSource: res.Source.String(),
			coremon.TagStage:  "render_" + string(f),
		})
	}
	if merr := coremetrics.RecordOutput(s.sink, coremetrics.OutputEvent{
		RunID:    res.ID,
		Format:   string(f),
		Bytes:    cw.n,
		Duration: s.now().Sub(started),
		Err:      err,
		Time:     started,
	}); merr != nil {
		s.log.Warnf("record output metrics: %v", merr)
	}
	return err
}

// WriteFile renders f into path. The file is written next to its
// destination and renamed so a failed render leaves no partial output.
func (s *Service) WriteFile(ctx context.Context, res *Result, f Format, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".brunch-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if err := s.Render(ctx, res, f, tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return err
	}
	s.log.Infof("wrote %s", path)
	return nil
}

// Runs returns recorded runs matching q.
func (s *Service) Runs(ctx context.Context, q runlog.Query) ([]runlog.RunRecord, error) {
	return s.store.Query(ctx, q)
}

// Close releases the run log.
func (s *Service) Close() error { return s.store.Close() }

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
