package app

// Format names a rendered output.
type Format string

const (
	FormatXLSX  Format = "xlsx"
	FormatPDF   Format = "pdf"
	FormatChart Format = "html"
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
)

// Formats lists every output in the order they are offered.
var Formats = []Format{FormatXLSX, FormatPDF, FormatChart, FormatJSON, FormatCSV}

// ContentType is the MIME type served for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	case FormatChart:
		return "text/html; charset=utf-8"
	case FormatJSON:
		return "application/json"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

// FileName is the download name used for the format.
func (f Format) FileName() string {
	switch f {
	case FormatXLSX:
		return "Formatted_Brunch_Sheet.xlsx"
	case FormatPDF:
		return "Brunch_Table_Cards.pdf"
	case FormatChart:
		return "Turnover_Chart.html"
	default:
		return "Brunch_Sheet." + string(f)
	}
}
