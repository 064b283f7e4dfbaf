package formatting

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLFormatter provides YAML output formatting
type YAMLFormatter struct {
	options Options
}

// NewYAMLFormatter creates a new YAML formatter
func NewYAMLFormatter(options Options) Formatter {
	return &YAMLFormatter{
		options: options,
	}
}

// Format writes the listing's items as YAML.
func (f *YAMLFormatter) Format(w io.Writer, listing Listing) error {
	yamlBytes, err := yaml.Marshal(listing.Items)
	if err != nil {
		return fmt.Errorf("failed to format YAML: %w", err)
	}
	_, err = w.Write(yamlBytes)
	return err
}
