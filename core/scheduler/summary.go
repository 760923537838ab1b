package scheduler

import "github.com/kilianp07/brunch/core/model"

// Summary aggregates a computed plan.
type Summary struct {
	Bookings    int    `json:"bookings"`
	Tables      int    `json:"tables"`
	Unscheduled int    `json:"unscheduled"`
	ClearSlots  int    `json:"clear_slots"`
	FirstClear  string `json:"first_clear,omitempty"`
	LastClear   string `json:"last_clear,omitempty"`
}

// Summarize reports counts and the clearing window of entries.
func Summarize(entries []Entry) Summary {
	s := Summary{Bookings: len(entries)}
	tables := make(map[string]struct{})
	var first, last *Turnover
	for i := range entries {
		e := &entries[i]
		if !e.Booking.HasStart {
			s.Unscheduled++
		}
		if key, ok := e.Booking.TableKey(); ok {
			tables[key] = struct{}{}
		}
		if e.Turnover.ClearOrder == 0 {
			continue
		}
		if e.Turnover.ClearOrder > s.ClearSlots {
			s.ClearSlots = e.Turnover.ClearOrder
		}
		if first == nil || e.Turnover.NeededBack.Before(first.NeededBack) {
			first = &e.Turnover
		}
		if last == nil || e.Turnover.NeededBack.After(last.NeededBack) {
			last = &e.Turnover
		}
	}
	s.Tables = len(tables)
	if first != nil {
		s.FirstClear = first.NeededBack.Format(model.ClockLayout)
		s.LastClear = last.NeededBack.Format(model.ClockLayout)
	}
	return s
}

// Slots groups entries by clear order. The result is indexed by
// ClearOrder-1 and lists the tables to clear in each slot.
func Slots(entries []Entry) [][]Entry {
	var slots [][]Entry
	for _, e := range entries {
		o := e.Turnover.ClearOrder
		if o == 0 {
			continue
		}
		for len(slots) < o {
			slots = append(slots, nil)
		}
		slots[o-1] = append(slots[o-1], e)
	}
	return slots
}
