// Package runsheet turns a turnover plan into the rows staff work from.
package runsheet

import (
	"fmt"
	"strconv"
	"time"

	"github.com/kilianp07/brunch/core/model"
	"github.com/kilianp07/brunch/core/scheduler"
)

// Column headers of the run sheet, in order.
const (
	ColName       = "NAME"
	ColGuests     = "GUESTS"
	ColTime       = "TIME"
	ColTable      = "TABLE"
	ColPrePayment = "PRE-PAYMENT:"
	ColAmountDue  = "AMOUNT DUE:"
	ColLastOrders = "LAST ORDERS:"
	ColNotes      = "RUN SHEET NOTES:"
	ColNeededBack = "TIME TABLE IS NEEDED BACK:"
	ColFlipTime   = "FLIP TIME"
	ColClearOrder = "CLEAR ORDER"
	ColFreeShots  = "FREE SHOTS?"
)

// Columns lists the headers in sheet order.
var Columns = []string{
	ColName, ColGuests, ColTime, ColTable, ColPrePayment, ColAmountDue,
	ColLastOrders, ColNotes, ColNeededBack, ColFlipTime, ColClearOrder, ColFreeShots,
}

// Config holds venue pricing and service settings.
type Config struct {
	PricePerHead      float64 `json:"price_per_head"`
	Currency          string  `json:"currency"`
	LastOrdersMinutes int     `json:"last_orders_minutes"`
}

func (c *Config) SetDefaults() {
	if c.PricePerHead == 0 {
		c.PricePerHead = 39.5
	}
	if c.Currency == "" {
		c.Currency = "£"
	}
	if c.LastOrdersMinutes == 0 {
		c.LastOrdersMinutes = 75
	}
}

func (c Config) Validate() error {
	if c.PricePerHead < 0 {
		return fmt.Errorf("price_per_head must not be negative")
	}
	if c.LastOrdersMinutes < 0 {
		return fmt.Errorf("last_orders_minutes must not be negative")
	}
	return nil
}

// Row is one line of the run sheet.
type Row struct {
	Name       string `json:"name"`
	Guests     int    `json:"guests"`
	Time       string `json:"time"`
	Table      string `json:"table"`
	PrePayment string `json:"pre_payment"`
	AmountDue  string `json:"amount_due"`
	// Outstanding is true when AmountDue is a positive amount.
	Outstanding bool   `json:"outstanding"`
	LastOrders  string `json:"last_orders"`
	Notes       string `json:"notes"`
	NeededBack  string `json:"needed_back"`
	FlipTime    string `json:"flip_time"`
	ClearOrder  string `json:"clear_order"`
	FreeShots   string `json:"free_shots"`

	// TimeRange is the card label, "HH:MM - HH:MM" or the raw time.
	TimeRange string `json:"time_range"`
}

// Values returns the row cells in Columns order.
func (r Row) Values() []string {
	return []string{
		r.Name, strconv.Itoa(r.Guests), r.Time, r.Table, r.PrePayment, r.AmountDue,
		r.LastOrders, r.Notes, r.NeededBack, r.FlipTime, r.ClearOrder, r.FreeShots,
	}
}

// Builder formats plan entries into rows.
type Builder struct {
	Config  Config
	Service time.Duration
}

// NewBuilder returns a Builder with defaults applied to cfg.
func NewBuilder(cfg Config, service time.Duration) Builder {
	cfg.SetDefaults()
	if service <= 0 {
		service = time.Duration(scheduler.DefaultServiceMinutes) * time.Minute
	}
	return Builder{Config: cfg, Service: service}
}

// Build returns one row per entry, keeping the entry order.
func (b Builder) Build(entries []scheduler.Entry) []Row {
	rows := make([]Row, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, b.row(e))
	}
	return rows
}

func (b Builder) row(e scheduler.Entry) Row {
	bk := e.Booking
	due, outstanding := b.AmountDue(bk)
	r := Row{
		Name:        bk.Name,
		Guests:      bk.Guests,
		Time:        bk.Time,
		Table:       bk.Table,
		PrePayment:  b.money(bk.Deposit),
		AmountDue:   due,
		Outstanding: outstanding,
		Notes:       bk.Notes,
		NeededBack:  e.Turnover.NeededBackString(),
		FlipTime:    e.Turnover.FlipString(),
		ClearOrder:  e.Turnover.ClearOrderString(),
		TimeRange:   bk.Time,
	}
	if bk.HasStart {
		lo := time.Duration(b.Config.LastOrdersMinutes) * time.Minute
		r.LastOrders = bk.Start.Add(lo).Format(model.ClockLayout)
		r.TimeRange = bk.Start.Format(model.ClockLayout) + " - " + bk.Start.Add(b.Service).Format(model.ClockLayout)
	}
	return r
}

// AmountDue returns the balance left to pay and whether it is positive.
// A settled booking is shown as "-".
func (b Builder) AmountDue(bk model.Booking) (string, bool) {
	due := float64(bk.Guests)*b.Config.PricePerHead - bk.Deposit
	if due <= 0 {
		return "-", false
	}
	return b.money(due), true
}

func (b Builder) money(v float64) string {
	return fmt.Sprintf("%s%.2f", b.Config.Currency, v)
}
