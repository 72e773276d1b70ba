package export

import (
	"fmt"
	"strings"
)

// Dataset defines tabular export content.
type Dataset struct {
	Title    string
	Subtitle []string
	Headers  []string
	Rows     []map[string]string
}

func (d Dataset) record(row map[string]string) []string {
	record := make([]string, len(d.Headers))
	for i, header := range d.Headers {
		record[i] = row[header]
	}
	return record
}

// Exporter renders a dataset into a downloadable document.
type Exporter interface {
	Render(data Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}

// ForFormat returns the exporter for "csv" or "pdf" (case-insensitive).
// An empty format selects CSV.
func ForFormat(format string) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "csv":
		return NewCSVExporter(), nil
	case "pdf":
		return NewPDFExporter(), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}
