package render

import (
	"fmt"
	"strings"

	"github.com/AoWangg/chat-json/internal/aggregator"
	"github.com/AoWangg/chat-json/internal/store"
)

type OutputFormat string

const (
	OutputFormatTable OutputFormat = "table"
	OutputFormatJSON  OutputFormat = "json"
	OutputFormatYAML  OutputFormat = "yaml"
)

// Report is the outcome of one aggregated stream.
type Report struct {
	Groups []aggregator.Group `json:"groups" yaml:"groups"`
	Stats  aggregator.Stats   `json:"stats" yaml:"stats"`
}

// Formatter turns aggregation results into printable text.
type Formatter interface {
	FormatReport(Report) (string, error)
	FormatGroups([]aggregator.Group) (string, error)
	FormatGroup(*aggregator.Group) (string, error)
	FormatStats(aggregator.Stats) (string, error)
	FormatSessions([]store.SessionMeta) (string, error)
}

type FormatterFactory struct{}

func NewFormatterFactory() *FormatterFactory {
	return &FormatterFactory{}
}

func (f *FormatterFactory) Create(format OutputFormat) (Formatter, error) {
	switch format {
	case OutputFormatTable:
		return NewTableFormatter(), nil
	case OutputFormatJSON:
		return NewJSONFormatter(), nil
	case OutputFormatYAML:
		return NewYAMLFormatter(), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s (supported: table, json, yaml)", format)
	}
}

func ParseOutputFormat(s string) (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(strings.TrimSpace(s)))
	switch format {
	case OutputFormatTable, OutputFormatJSON, OutputFormatYAML:
		return format, nil
	default:
		return "", fmt.Errorf("invalid output format: %s (supported: table, json, yaml)", s)
	}
}

// New parses s and builds the matching formatter.
func New(s string) (Formatter, error) {
	format, err := ParseOutputFormat(s)
	if err != nil {
		return nil, err
	}
	return NewFormatterFactory().Create(format)
}
