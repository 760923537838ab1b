package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kilianp07/brunch/core/model"
	"github.com/kilianp07/brunch/core/scheduler"
)

// WriteChart renders an HTML bar chart of how many tables must be cleared
// in each clear-order slot.
func WriteChart(w io.Writer, entries []scheduler.Entry) error {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Table turnover", Subtitle: "Tables to clear per slot"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Needed back"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Tables"}),
	)

	var xAxis []string
	var data []opts.BarData
	for i, slot := range scheduler.Slots(entries) {
		if len(slot) == 0 {
			continue
		}
		tables := make([]string, 0, len(slot))
		for _, e := range slot {
			tables = append(tables, e.Booking.Table)
		}
		back := slot[0].Turnover.NeededBack.Format(model.ClockLayout)
		xAxis = append(xAxis, fmt.Sprintf("%d (%s)", i+1, back))
		data = append(data, opts.BarData{Name: strings.Join(tables, " / "), Value: len(slot)})
	}

	bar.SetXAxis(xAxis).AddSeries("Tables", data)
	if err := bar.Render(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}
