package export

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/go-pdf/fpdf"

	"github.com/kilianp07/brunch/core/runsheet"
)

// A4 geometry in millimetres.
const (
	pageWidthMM  = 210.0
	pageHeightMM = 297.0
	pointMM      = 25.4 / 72
)

// CardConfig controls the table card layout.
type CardConfig struct {
	// DoubleSided adds a back page with table and guest count to each card.
	DoubleSided bool    `json:"double_sided"`
	MaxWidthMM  float64 `json:"max_width_mm"`
	StartSize   float64 `json:"start_size"`
	MinTimeSize float64 `json:"min_time_size"`
}

func (c *CardConfig) SetDefaults() {
	if c.MaxWidthMM == 0 {
		c.MaxWidthMM = 157.5
	}
	if c.StartSize == 0 {
		c.StartSize = 60
	}
	if c.MinTimeSize == 0 {
		c.MinTimeSize = 40
	}
}

func (c CardConfig) Validate() error {
	if c.MaxWidthMM <= 0 || c.MaxWidthMM > pageWidthMM {
		return fmt.Errorf("max_width_mm must be in (0, %v]", pageWidthMM)
	}
	if c.StartSize <= 0 {
		return errors.New("start_size must be positive")
	}
	if c.MinTimeSize <= 0 || c.MinTimeSize > c.StartSize {
		return errors.New("min_time_size must be positive and not above start_size")
	}
	return nil
}

// WriteCards writes one A4 card per row to w.
func WriteCards(w io.Writer, rows []runsheet.Row, cfg CardConfig) error {
	cfg.SetDefaults()
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle("Table cards", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for _, r := range rows {
		pdf.AddPage()
		name := tr(r.Name)
		pdf.SetFont("Courier", "BI", fitSize(pdf, name, cfg.StartSize, 1, cfg.MaxWidthMM))
		centred(pdf, pageHeightMM-95, name)

		label := tr(r.TimeRange)
		pdf.SetFont("Courier", "BI", fitSize(pdf, label, cfg.StartSize, cfg.MinTimeSize, cfg.MaxWidthMM))
		centred(pdf, pageHeightMM-30, label)

		if cfg.DoubleSided {
			pdf.AddPage()
			pdf.SetFont("Helvetica", "B", 14)
			pdf.Text(10, 10, tr("Table: "+r.Table))
			pdf.Text(10, 10+18*pointMM, "Guests: "+strconv.Itoa(r.Guests))
		}
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write cards: %w", err)
	}
	return nil
}

// fitSize shrinks the Courier Bold Oblique size one point at a time until
// s fits maxWidth or floor is reached.
func fitSize(pdf *fpdf.Fpdf, s string, start, floor, maxWidth float64) float64 {
	size := start
	for size > floor {
		pdf.SetFont("Courier", "BI", size)
		if pdf.GetStringWidth(s) <= maxWidth {
			break
		}
		size--
	}
	return size
}

func centred(pdf *fpdf.Fpdf, y float64, s string) {
	pdf.Text((pageWidthMM-pdf.GetStringWidth(s))/2, y, s)
}
