package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/brunch/core/metrics"
	"github.com/kilianp07/brunch/core/model"
	"github.com/kilianp07/brunch/core/runlog"
	"github.com/kilianp07/brunch/infra/bookingcsv"
)

const sampleExport = "Saturday brunch\n" +
	"Name,Time,Guests,Area,Customer requests,Deposits\n" +
	"Smith,12:00,4,Wilson's 4,High chair,£20\n" +
	"Jones,13:45,2,Wilson's 4,,£79\n" +
	"Patel,11:00,6,Wilson's 3,,\n" +
	"Late,soon,2,Wilson's 7,,\n"

type memStore struct {
	recs []runlog.RunRecord
}

func (m *memStore) Append(_ context.Context, r runlog.RunRecord) error {
	m.recs = append(m.recs, r)
	return nil
}

func (m *memStore) Query(_ context.Context, q runlog.Query) ([]runlog.RunRecord, error) {
	var out []runlog.RunRecord
	for _, r := range m.recs {
		if q.Match(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) Close() error { return nil }

type memSink struct {
	runs    []coremetrics.RunEvent
	outputs []coremetrics.OutputEvent
}

func (m *memSink) RecordRun(ev coremetrics.RunEvent) error {
	m.runs = append(m.runs, ev)
	return nil
}

func (m *memSink) RecordOutput(ev coremetrics.OutputEvent) error {
	m.outputs = append(m.outputs, ev)
	return nil
}

type memMonitor struct {
	errs []error
	tags []map[string]string
}

func (m *memMonitor) CaptureException(err error, tags map[string]string) {
	m.errs = append(m.errs, err)
	m.tags = append(m.tags, tags)
}
func (m *memMonitor) CapturePanic(any)    {}
func (m *memMonitor) Flush(time.Duration) {}

type fixture struct {
	svc     *Service
	store   *memStore
	sink    *memSink
	monitor *memMonitor
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	f := fixture{store: &memStore{}, sink: &memSink{}, monitor: &memMonitor{}}
	now := time.Date(2026, 5, 9, 8, 0, 0, 0, time.UTC)
	svc, err := NewService(Deps{
		Store:   f.store,
		Sink:    f.sink,
		Monitor: f.monitor,
		Now:     func() time.Time { return now },
		NewID:   func() string { return "run-1" },
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func TestGenerate(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.Generate(context.Background(), Request{
		Source:    model.SourceCLI,
		InputName: "sat.csv",
		Input:     strings.NewReader(sampleExport),
		Outputs:   []string{"sheet.xlsx", "cards.pdf"},
	})
	require.NoError(t, err)

	assert.Equal(t, "run-1", res.ID)
	require.Len(t, res.Rows, 4)
	assert.Equal(t, "Patel", res.Rows[0].Name)
	assert.Equal(t, "Smith", res.Rows[1].Name)
	assert.Equal(t, "13:30", res.Rows[1].NeededBack)
	assert.Equal(t, "15 mins", res.Rows[1].FlipTime)
	assert.Equal(t, "1", res.Rows[1].ClearOrder)
	assert.Equal(t, "Late", res.Rows[3].Name)
	assert.Len(t, res.Issues, 1)

	assert.Equal(t, 4, res.Summary.Bookings)
	assert.Equal(t, 3, res.Summary.Tables)
	assert.Equal(t, 1, res.Summary.Unscheduled)

	require.Len(t, f.store.recs, 1)
	rec := f.store.recs[0]
	assert.Equal(t, "cli", rec.Source)
	assert.Equal(t, "sat.csv", rec.InputName)
	assert.Equal(t, []string{"sheet.xlsx", "cards.pdf"}, rec.Outputs)
	assert.Equal(t, "13:30", rec.FirstClear)
	assert.False(t, rec.Failed())

	require.Len(t, f.sink.runs, 1)
	assert.NoError(t, f.sink.runs[0].Err)
	assert.Empty(t, f.monitor.errs)
}

func TestGenerateFailureIsRecorded(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Generate(context.Background(), Request{
		Source:    model.SourceWeb,
		InputName: "notes.txt",
		Input:     strings.NewReader("nothing useful here\n"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, bookingcsv.ErrHeaderNotFound)

	require.Len(t, f.store.recs, 1)
	assert.True(t, f.store.recs[0].Failed())
	assert.Equal(t, "web", f.store.recs[0].Source)
	require.Len(t, f.sink.runs, 1)
	assert.Error(t, f.sink.runs[0].Err)
	require.Len(t, f.monitor.errs, 1)
	assert.Equal(t, "run-1", f.monitor.tags[0]["run_id"])
	assert.Equal(t, "import", f.monitor.tags[0]["stage"])
}

func TestGenerateCanceled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.svc.Generate(ctx, Request{Input: strings.NewReader(sampleExport)})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.store.recs)
}

func TestRenderFormats(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.Generate(context.Background(), Request{Input: strings.NewReader(sampleExport)})
	require.NoError(t, err)

	for _, format := range Formats {
		var buf bytes.Buffer
		require.NoError(t, f.svc.Render(context.Background(), res, format, &buf), format)
		assert.NotZero(t, buf.Len(), format)
	}
	require.Len(t, f.sink.outputs, len(Formats))
	assert.Equal(t, "xlsx", f.sink.outputs[0].Format)
	assert.Positive(t, f.sink.outputs[0].Bytes)

	err = f.svc.Render(context.Background(), res, Format("docx"), &bytes.Buffer{})
	assert.Error(t, err)
	require.Len(t, f.monitor.errs, 1)
	assert.Equal(t, "render_docx", f.monitor.tags[0]["stage"])
}

func TestRenderDoubleSidedOverride(t *testing.T) {
	f := newFixture(t)
	yes := true
	res, err := f.svc.Generate(context.Background(), Request{Input: strings.NewReader(sampleExport), DoubleSided: &yes})
	require.NoError(t, err)
	assert.True(t, res.DoubleSided)

	var single, double bytes.Buffer
	require.NoError(t, f.svc.Render(context.Background(), res, FormatPDF, &double))
	res.DoubleSided = false
	require.NoError(t, f.svc.Render(context.Background(), res, FormatPDF, &single))
	assert.Greater(t, double.Len(), single.Len())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteFile(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.Generate(context.Background(), Request{Input: strings.NewReader(sampleExport)})
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "out", "sheet.csv")
	require.NoError(t, f.svc.WriteFile(context.Background(), res, FormatCSV, path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "NAME,GUESTS,TIME,TABLE"))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file must be cleaned up")

	assert.Error(t, f.svc.Render(context.Background(), res, FormatCSV, failingWriter{}))
}

func TestRuns(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Generate(context.Background(), Request{Source: model.SourceWeb, Input: strings.NewReader(sampleExport)})
	require.NoError(t, err)
	runs, err := f.svc.Runs(context.Background(), runlog.Query{Source: "web"})
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestFormatNames(t *testing.T) {
	assert.Equal(t, "application/pdf", FormatPDF.ContentType())
	assert.Equal(t, "Formatted_Brunch_Sheet.xlsx", FormatXLSX.FileName())
	assert.Equal(t, "Brunch_Sheet.csv", FormatCSV.FileName())
}
