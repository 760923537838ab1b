package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/kilianp07/brunch/core/runsheet"
)

// SheetName is the name of the run sheet tab.
const SheetName = "Run Sheet"

var columnWidths = map[string]float64{
	runsheet.ColGuests:     7,
	runsheet.ColTime:       7,
	runsheet.ColPrePayment: 10,
	runsheet.ColAmountDue:  10,
	runsheet.ColLastOrders: 10,
	runsheet.ColFreeShots:  6,
	runsheet.ColNeededBack: 15,
	runsheet.ColFlipTime:   8,
	runsheet.ColClearOrder: 10,
	runsheet.ColNotes:      40,
}

const defaultColumnWidth = 20

// WriteXLSX writes the run sheet workbook to w.
func WriteXLSX(w io.Writer, rows []runsheet.Row) error {
	f, err := BuildWorkbook(rows)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// BuildWorkbook lays out the run sheet: bold headers, thin borders,
// centred wrapped text and outstanding amounts in red.
func BuildWorkbook(rows []runsheet.Row) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, err
	}
	styles, err := newSheetStyles(f)
	if err != nil {
		return nil, err
	}

	last, err := excelize.ColumnNumberToName(len(runsheet.Columns))
	if err != nil {
		return nil, err
	}
	for i, h := range runsheet.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return nil, err
		}
		col, _ := excelize.ColumnNumberToName(i + 1)
		width, ok := columnWidths[h]
		if !ok {
			width = defaultColumnWidth
		}
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return nil, err
		}
	}
	if err := f.SetCellStyle(SheetName, "A1", last+"1", styles.header); err != nil {
		return nil, err
	}
	if err := f.SetRowHeight(SheetName, 1, 30); err != nil {
		return nil, err
	}

	dueCol := indexOf(runsheet.Columns, runsheet.ColAmountDue) + 1
	for r, row := range rows {
		line := r + 2
		for c, v := range row.Values() {
			cell, _ := excelize.CoordinatesToCellName(c+1, line)
			var value any = v
			if c == 1 {
				value = row.Guests
			}
			if err := f.SetCellValue(SheetName, cell, value); err != nil {
				return nil, err
			}
		}
		first, _ := excelize.CoordinatesToCellName(1, line)
		end, _ := excelize.CoordinatesToCellName(len(runsheet.Columns), line)
		if err := f.SetCellStyle(SheetName, first, end, styles.body); err != nil {
			return nil, err
		}
		if row.Outstanding {
			cell, _ := excelize.CoordinatesToCellName(dueCol, line)
			if err := f.SetCellStyle(SheetName, cell, cell, styles.outstanding); err != nil {
				return nil, err
			}
		}
	}
	return f, nil
}

type sheetStyles struct {
	header, body, outstanding int
}

func newSheetStyles(f *excelize.File) (sheetStyles, error) {
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	align := &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true}

	var s sheetStyles
	var err error
	if s.header, err = f.NewStyle(&excelize.Style{Border: border, Alignment: align, Font: &excelize.Font{Bold: true}}); err != nil {
		return s, fmt.Errorf("header style: %w", err)
	}
	if s.body, err = f.NewStyle(&excelize.Style{Border: border, Alignment: align}); err != nil {
		return s, fmt.Errorf("body style: %w", err)
	}
	if s.outstanding, err = f.NewStyle(&excelize.Style{Border: border, Alignment: align, Font: &excelize.Font{Color: "FF0000"}}); err != nil {
		return s, fmt.Errorf("outstanding style: %w", err)
	}
	return s, nil
}

func indexOf(list []string, v string) int {
	for i, s := range list {
		if s == v {
			return i
		}
	}
	return -1
}
