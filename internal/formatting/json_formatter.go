package formatting

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONFormatter provides structured JSON output formatting
type JSONFormatter struct {
	options Options
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(options Options) Formatter {
	return &JSONFormatter{
		options: options,
	}
}

// Format writes the listing's items as JSON.
func (f *JSONFormatter) Format(w io.Writer, listing Listing) error {
	data, err := f.marshal(listing.Items)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, data)
	return err
}

// marshal converts data to JSON string with appropriate formatting
func (f *JSONFormatter) marshal(data interface{}) (string, error) {
	if !f.options.Quiet {
		b, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to format JSON: %w", err)
		}
		return string(b), nil
	}

	// Compact JSON for quiet mode
	b, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to format JSON: %w", err)
	}
	return string(b), nil
}
