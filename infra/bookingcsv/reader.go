// Package bookingcsv reads booking exports from the reservation system.
package bookingcsv

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/kilianp07/brunch/core/model"
)

var (
	// ErrHeaderNotFound is returned when no line holds both Time and Guests.
	ErrHeaderNotFound = errors.New("header row with Time and Guests not found")
	// ErrMissingColumn is returned when a required column is absent.
	ErrMissingColumn = errors.New("missing column")
)

// Column names looked up in the export, compared case-insensitively.
const (
	colTime          = "time"
	colGuests        = "guests"
	colArea          = "area"
	colTable         = "table"
	colDeposits      = "deposits"
	colRunSheetNotes = "run sheet notes"
)

var noteColumns = []string{"customer preorder notes", "customer requests", "dietary requirements"}

// Issue describes a record that was read with a blank field.
type Issue struct {
	Line   int
	Name   string
	Field  string
	Value  string
	Reason string
}

// Result is the outcome of reading an export.
type Result struct {
	Bookings []model.Booking
	Issues   []Issue
}

// Reader parses booking exports.
type Reader struct {
	cfg     Config
	table   *regexp.Regexp
	deposit *regexp.Regexp
}

// NewReader compiles the patterns of cfg.
func NewReader(cfg Config) (*Reader, error) {
	cfg.SetDefaults()
	table, err := cfg.tablePattern()
	if err != nil {
		return nil, fmt.Errorf("area_prefix: %w", err)
	}
	return &Reader{cfg: cfg, table: table, deposit: cfg.depositPattern()}, nil
}

// Read parses an export. Preamble lines before the header are skipped;
// the header is the first line mentioning both Time and Guests.
func (r *Reader) Read(src io.Reader) (Result, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return Result{}, fmt.Errorf("read export: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	start, headerLine, err := findHeader(data)
	if err != nil {
		return Result{}, err
	}

	cr := csv.NewReader(bytes.NewReader(data[start:]))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	header, err := cr.Read()
	if err != nil {
		return Result{}, fmt.Errorf("parse header: %w", err)
	}
	cols := newColumns(header)
	for _, name := range []string{colTime, colGuests} {
		if _, ok := cols.index[name]; !ok {
			return Result{}, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}

	var res Result
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Result{}, fmt.Errorf("parse export: %w", err)
		}
		if blank(rec) {
			continue
		}
		line, _ := cr.FieldPos(0)
		b, issues := r.booking(cols, rec, headerLine+line-1)
		res.Bookings = append(res.Bookings, b)
		res.Issues = append(res.Issues, issues...)
	}
	return res, nil
}

func (r *Reader) booking(cols columns, rec []string, line int) (model.Booking, []Issue) {
	var issues []Issue
	name := cols.at(rec, 0)
	guestsRaw := cols.get(rec, colGuests)
	guests, err := strconv.Atoi(guestsRaw)
	if err != nil {
		if f, ferr := strconv.ParseFloat(guestsRaw, 64); ferr == nil {
			guests = int(f)
		} else {
			issues = append(issues, Issue{Line: line, Name: name, Field: "Guests", Value: guestsRaw, Reason: "not a number"})
		}
	}

	b := model.NewBooking(name, r.tableOf(cols, rec), cols.get(rec, colTime), guests)
	if !b.HasStart {
		issues = append(issues, Issue{Line: line, Name: name, Field: "Time", Value: b.Time, Reason: "not HH:MM"})
	}
	b.Deposit = r.Deposit(cols.at(rec, cols.depositIndex()))
	b.Notes = notesOf(cols, rec)
	return b, issues
}

func (r *Reader) tableOf(cols columns, rec []string) string {
	if _, ok := cols.index[colTable]; ok {
		if t := cols.get(rec, colTable); t != "" {
			return t
		}
	}
	return r.TableNumbers(cols.get(rec, colArea))
}

// TableNumbers extracts table numbers from an area description. Aliased
// numbers are renamed and several tables are joined with ", ".
func (r *Reader) TableNumbers(area string) string {
	matches := r.table.FindAllStringSubmatch(area, -1)
	if len(matches) == 0 {
		return model.TableUnassigned
	}
	tables := make([]string, 0, len(matches))
	for _, m := range matches {
		t := m[1]
		if alias, ok := r.cfg.TableAliases[t]; ok {
			t = alias
		}
		tables = append(tables, t)
	}
	return strings.Join(tables, ", ")
}

// Deposit reads the amount paid in advance. The first currency amount
// wins; a bare number is accepted; anything else counts as nothing paid.
func (r *Reader) Deposit(v string) float64 {
	if m := r.deposit.FindStringSubmatch(v); m != nil {
		f, _ := strconv.ParseFloat(m[1], 64)
		return f
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
		return f
	}
	return 0
}

func notesOf(cols columns, rec []string) string {
	if _, ok := cols.index[colRunSheetNotes]; ok {
		return cols.get(rec, colRunSheetNotes)
	}
	var parts []string
	for _, c := range noteColumns {
		if v := cols.get(rec, c); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, "\n")
}

// findHeader returns the byte offset and line number of the header row.
func findHeader(data []byte) (int, int, error) {
	offset, line := 0, 1
	for offset < len(data) {
		text := data[offset:]
		end := bytes.IndexByte(text, '\n')
		if end >= 0 {
			text = text[:end]
		}
		if bytes.Contains(text, []byte("Time")) && bytes.Contains(text, []byte("Guests")) {
			return offset, line, nil
		}
		if end < 0 {
			break
		}
		offset += end + 1
		line++
	}
	return 0, 0, ErrHeaderNotFound
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

type columns struct {
	names []string
	index map[string]int
}

func newColumns(header []string) columns {
	c := columns{index: make(map[string]int, len(header))}
	for i, h := range header {
		h = strings.TrimSpace(h)
		c.names = append(c.names, h)
		key := strings.ToLower(h)
		if _, dup := c.index[key]; !dup {
			c.index[key] = i
		}
	}
	return c
}

func (c columns) get(rec []string, name string) string {
	i, ok := c.index[name]
	if !ok {
		return ""
	}
	return c.at(rec, i)
}

func (c columns) at(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

// depositIndex picks the Deposits column, then any column that looks like
// a prepayment, then the last column.
func (c columns) depositIndex() int {
	if i, ok := c.index[colDeposits]; ok {
		return i
	}
	for i, n := range c.names {
		l := strings.ToLower(n)
		if strings.Contains(l, "deposit") || strings.Contains(l, "paid") || strings.Contains(l, "pre") {
			return i
		}
	}
	return len(c.names) - 1
}
