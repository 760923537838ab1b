// Package export renders run sheets to the formats staff and tooling use.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"

	"github.com/kilianp07/brunch/core/runsheet"
)

// WriteJSON writes the run sheet rows to w in JSON format.
func WriteJSON(w io.Writer, rows []runsheet.Row) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

// WriteCSV writes the run sheet rows to w in CSV format with sheet headers.
func WriteCSV(w io.Writer, rows []runsheet.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(runsheet.Columns); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r.Values()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
