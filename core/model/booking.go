package model

import (
	"strings"
	"time"
)

// ClockLayout is the hour:minute layout used for booking times.
const ClockLayout = "15:04"

// TableUnassigned marks a booking whose area did not name a table.
const TableUnassigned = "TBC"

// Booking is a single reserved seating read from a booking export.
type Booking struct {
	Name   string
	Guests int
	Table  string

	// Time is the start time as written in the export.
	Time string
	// Start is the parsed start time. It is only meaningful when HasStart is true.
	Start    time.Time
	HasStart bool

	Deposit float64
	Notes   string
}

// ParseClock parses an hour:minute time of day such as "9:30" or "13:45".
func ParseClock(s string) (time.Time, bool) {
	t, err := time.Parse(ClockLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// NewBooking builds a booking and parses its start time.
func NewBooking(name, table, clock string, guests int) Booking {
	b := Booking{Name: name, Table: table, Time: strings.TrimSpace(clock), Guests: guests}
	b.Start, b.HasStart = ParseClock(clock)
	return b
}

// TableKey returns the grouping key of the booking's table. The second value is
// false when the booking has no table assigned.
func (b Booking) TableKey() (string, bool) {
	key := strings.TrimSpace(b.Table)
	if key == "" || strings.EqualFold(key, TableUnassigned) {
		return "", false
	}
	return key, true
}

// End returns the time the booking finishes for the given service length.
func (b Booking) End(d time.Duration) (time.Time, bool) {
	if !b.HasStart {
		return time.Time{}, false
	}
	return b.Start.Add(d), true
}
