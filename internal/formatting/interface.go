// Package formatting renders listings for the CLI as a table, JSON or YAML.
//
// A Listing carries both a tabular view (headers and rows) and the
// structured items behind it. The table formatter uses the former, the
// JSON and YAML formatters the latter.
package formatting

import (
	"fmt"
	"io"
	"strings"
)

// OutputFormat represents the desired output format
type OutputFormat string

const (
	FormatTable OutputFormat = "table" // Rich table output
	FormatJSON  OutputFormat = "json"  // JSON output
	FormatYAML  OutputFormat = "yaml"  // YAML output
)

// Formats lists the supported output formats.
var Formats = []OutputFormat{FormatTable, FormatJSON, FormatYAML}

// ParseFormat parses a format name, case-insensitively.
func ParseFormat(name string) (OutputFormat, error) {
	f := OutputFormat(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown output format %q, must be one of table, json, yaml", name)
}

// Listing is a set of items to render.
type Listing struct {
	// Title is printed above tables. It may be empty.
	Title   string
	Headers []string
	Rows    [][]string
	// Items is what JSON and YAML output marshal.
	Items interface{}
}

// Options configures the formatter behavior
type Options struct {
	Format OutputFormat
	Quiet  bool // Suppress decorative elements
}

// Formatter renders listings.
type Formatter interface {
	Format(w io.Writer, listing Listing) error
}

// New creates the formatter for options.Format. Unknown formats fall back
// to tables.
func New(options Options) Formatter {
	switch options.Format {
	case FormatJSON:
		return NewJSONFormatter(options)
	case FormatYAML:
		return NewYAMLFormatter(options)
	default:
		return NewTableFormatter(options)
	}
}
