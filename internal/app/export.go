package app

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dshills/crustcfg/internal/document"
	"github.com/dshills/crustcfg/internal/filter"
)

// ExportFormat selects how Export encodes records.
type ExportFormat string

// Export formats.
const (
	FormatJSON ExportFormat = "json"
	FormatYAML ExportFormat = "yaml"
)

// ParseExportFormat maps a format name to an ExportFormat.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Record is the exported form of a value entry.
type Record struct {
	Name        string   `json:"name" yaml:"name"`
	Value       string   `json:"value" yaml:"value"`
	Hint        *string  `json:"hint,omitempty" yaml:"hint,omitempty"`
	Tag         string   `json:"tag" yaml:"tag"`
	Edited      bool     `json:"edited" yaml:"edited"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Example     *string  `json:"example,omitempty" yaml:"example,omitempty"`
	Choices     []string `json:"choices,omitempty" yaml:"choices,omitempty"`
}

// NewRecord builds the exported form of v.
func NewRecord(v *document.Value, opts ...document.RenderOption) Record {
	r := Record{
		Name:        v.Name,
		Value:       v.Value,
		Hint:        v.Hint,
		Tag:         filter.Tag(v.Name),
		Edited:      v.Edited,
		Description: v.Description(opts...),
		Example:     v.Example,
	}
	if choices, closed := v.Choices(); closed {
		r.Choices = choices
	}
	return r
}

// Records returns the records of the values currently in the view.
func (s *Session) Records() []Record {
	values := s.view.Values()
	opts := s.settings.RenderOptions()
	records := make([]Record, len(values))
	for i, v := range values {
		records[i] = NewRecord(v, opts...)
	}
	return records
}

// Export writes the records of the current view to w.
func (s *Session) Export(w io.Writer, format ExportFormat) error {
	if s.Document() == nil {
		return NewOperationError("export", string(format), ErrNoDocument)
	}
	records := s.Records()

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(records); err != nil {
			return NewOperationError("export", string(format), err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return NewOperationError("export", string(format), err)
		}
		if err := enc.Close(); err != nil {
			return NewOperationError("export", string(format), err)
		}
	default:
		return NewOperationError("export", string(format), ErrUnknownFormat)
	}
	return nil
}
