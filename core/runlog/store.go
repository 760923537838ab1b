// Package runlog keeps an audit trail of formatter runs.
package runlog

import (
	"context"
	"errors"
	"time"
)

// ErrRunNotFound is returned when no record carries the requested id.
var ErrRunNotFound = errors.New("run not found")

// RunRecord captures one generation and its outcome.
type RunRecord struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Source      string    `json:"source"`
	InputName   string    `json:"input_name"`
	Bookings    int       `json:"bookings"`
	Tables      int       `json:"tables"`
	Unscheduled int       `json:"unscheduled"`
	ClearSlots  int       `json:"clear_slots"`
	FirstClear  string    `json:"first_clear,omitempty"`
	LastClear   string    `json:"last_clear,omitempty"`
	Outputs     []string  `json:"outputs,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// Failed reports whether the run ended in error.
func (r RunRecord) Failed() bool { return r.Error != "" }

// Query defines filters for retrieving records. Zero values match all.
type Query struct {
	Start  time.Time
	End    time.Time
	Source string
	// Limit keeps only the most recent records when positive.
	Limit int
}

// Match reports whether r passes the filters of q.
func (q Query) Match(r RunRecord) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.Source != "" && r.Source != q.Source {
		return false
	}
	return true
}

func (q Query) limit(recs []RunRecord) []RunRecord {
	if q.Limit > 0 && len(recs) > q.Limit {
		return recs[len(recs)-q.Limit:]
	}
	return recs
}

// Store persists RunRecords and supports querying.
type Store interface {
	Append(ctx context.Context, rec RunRecord) error
	Query(ctx context.Context, q Query) ([]RunRecord, error)
	Close() error
}

// NopStore discards records.
type NopStore struct{}

func (NopStore) Append(context.Context, RunRecord) error           { return nil }
func (NopStore) Query(context.Context, Query) ([]RunRecord, error) { return nil, nil }
func (NopStore) Close() error                                      { return nil }

// Get returns the record with the given id.
func Get(ctx context.Context, s Store, id string) (RunRecord, error) {
	recs, err := s.Query(ctx, Query{})
	if err != nil {
		return RunRecord{}, err
	}
	for i := len(recs) - 1; i >= 0; i-- {
		if recs[i].ID == id {
			return recs[i], nil
		}
	}
	return RunRecord{}, ErrRunNotFound
}
