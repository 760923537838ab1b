package scheduler

import (
	"sort"
	"strconv"
	"time"

	"github.com/kilianp07/brunch/core/model"
)

// Turnover is the derived schedule of a single booking.
type Turnover struct {
	// NeededBack is when the table must be cleared and reset.
	NeededBack    time.Time
	HasNeededBack bool
	// FlipMinutes is the buffer between NeededBack and the next arrival.
	FlipMinutes int
	HasFlip     bool
	// ClearOrder ranks NeededBack across the venue, starting at 1.
	// Zero means the booking has no later booking on its table.
	ClearOrder int
}

// NeededBackString formats NeededBack as HH:MM or returns "".
func (t Turnover) NeededBackString() string {
	if !t.HasNeededBack {
		return ""
	}
	return t.NeededBack.Format(model.ClockLayout)
}

// FlipString formats the flip buffer as "N mins" or returns "".
func (t Turnover) FlipString() string {
	if !t.HasFlip {
		return ""
	}
	return strconv.Itoa(t.FlipMinutes) + " mins"
}

// ClearOrderString formats the clear order or returns "".
func (t Turnover) ClearOrderString() string {
	if t.ClearOrder == 0 {
		return ""
	}
	return strconv.Itoa(t.ClearOrder)
}

// Entry pairs a booking with its turnover.
type Entry struct {
	Booking  model.Booking
	Turnover Turnover
}

// Scheduler computes table turnover for a booking set.
type Scheduler struct {
	Config Config
}

// New returns a Scheduler using cfg with defaults applied.
func New(cfg Config) Scheduler {
	cfg.SetDefaults()
	return Scheduler{Config: cfg}
}

// Compute returns one entry per booking, in input order. Bookings are not
// modified. Bookings without a parseable start get an empty Turnover and
// are ignored when looking for the next booking on a table.
func (s Scheduler) Compute(bookings []model.Booking) []Entry {
	cfg := s.Config
	cfg.SetDefaults()

	entries := make([]Entry, len(bookings))
	tables := make(map[string][]int)
	for i, b := range bookings {
		entries[i].Booking = b
		end, ok := b.End(cfg.Service())
		if !ok {
			continue
		}
		entries[i].Turnover = Turnover{NeededBack: end, HasNeededBack: true}
		if key, ok := b.TableKey(); ok {
			tables[key] = append(tables[key], i)
		}
	}

	for _, idx := range tables {
		sort.SliceStable(idx, func(a, b int) bool {
			return bookings[idx[a]].Start.Before(bookings[idx[b]].Start)
		})
		for pos, i := range idx {
			next, ok := nextStart(bookings, idx, pos)
			if !ok {
				continue
			}
			entries[i].Turnover = cfg.turnover(bookings[i].Start, next)
		}
	}

	assignClearOrder(entries)
	return entries
}

// Plan computes the turnover and returns the entries sorted by start time,
// bookings without a start last.
func (s Scheduler) Plan(bookings []model.Booking) []Entry {
	entries := s.Compute(bookings)
	SortByStart(entries)
	return entries
}

// SortByStart orders entries by booking start. The sort is stable and puts
// entries without a start at the end.
func SortByStart(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].Booking, entries[j].Booking
		if a.HasStart != b.HasStart {
			return a.HasStart
		}
		return a.Start.Before(b.Start)
	})
}

// nextStart returns the earliest start on the table strictly after the
// booking at pos. idx must be sorted by start.
func nextStart(bookings []model.Booking, idx []int, pos int) (time.Time, bool) {
	cur := bookings[idx[pos]].Start
	for _, j := range idx[pos+1:] {
		if bookings[j].Start.After(cur) {
			return bookings[j].Start, true
		}
	}
	return time.Time{}, false
}

func (c Config) turnover(start, next time.Time) Turnover {
	end := start.Add(c.Service())
	gap := next.Sub(end)

	var back time.Time
	switch {
	case gap <= minutes(c.ImmediateGapMinutes):
		back = end
	case gap <= minutes(c.ShortGapMinutes):
		back = end.Add(minutes(c.ShortBufferMinutes))
	default:
		back = next.Add(-minutes(c.LeadMinutes))
	}
	return Turnover{
		NeededBack:    back,
		HasNeededBack: true,
		FlipMinutes:   int(next.Sub(back) / time.Minute),
		HasFlip:       true,
	}
}

// assignClearOrder ranks the distinct NeededBack times of entries that
// have a following booking. Equal times share a rank.
func assignClearOrder(entries []Entry) {
	seen := make(map[int64]bool)
	var times []time.Time
	for _, e := range entries {
		if !e.Turnover.HasFlip {
			continue
		}
		k := e.Turnover.NeededBack.UnixNano()
		if !seen[k] {
			seen[k] = true
			times = append(times, e.Turnover.NeededBack)
		}
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	rank := make(map[int64]int, len(times))
	for i, t := range times {
		rank[t.UnixNano()] = i + 1
	}
	for i := range entries {
		if entries[i].Turnover.HasFlip {
			entries[i].Turnover.ClearOrder = rank[entries[i].Turnover.NeededBack.UnixNano()]
		}
	}
}

func minutes(n int) time.Duration { return time.Duration(n) * time.Minute }
