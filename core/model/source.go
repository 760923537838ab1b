package model

// Source identifies which surface started a run.
type Source int

const (
	SourceCLI Source = iota
	SourceWeb
)

// String returns the lower-case name of the source.
func (s Source) String() string {
	switch s {
	case SourceCLI:
		return "cli"
	case SourceWeb:
		return "web"
	default:
		return "unknown"
	}
}

// ParseSource maps a source name back to its value.
func ParseSource(s string) (Source, bool) {
	switch s {
	case "cli":
		return SourceCLI, true
	case "web":
		return SourceWeb, true
	default:
		return 0, false
	}
}
