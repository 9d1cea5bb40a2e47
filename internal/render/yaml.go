package render

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AoWangg/chat-json/internal/aggregator"
	"github.com/AoWangg/chat-json/internal/store"
)

type YAMLFormatter struct{}

func NewYAMLFormatter() *YAMLFormatter {
	return &YAMLFormatter{}
}

func (f *YAMLFormatter) FormatReport(r Report) (string, error) {
	return marshalYAML(r)
}

func (f *YAMLFormatter) FormatGroups(groups []aggregator.Group) (string, error) {
	return marshalYAML(groups)
}

func (f *YAMLFormatter) FormatGroup(group *aggregator.Group) (string, error) {
	if group == nil {
		return "null", nil
	}
	return marshalYAML(group)
}

func (f *YAMLFormatter) FormatStats(stats aggregator.Stats) (string, error) {
	return marshalYAML(stats)
}

func (f *YAMLFormatter) FormatSessions(sessions []store.SessionMeta) (string, error) {
	return marshalYAML(sessions)
}

func marshalYAML(v any) (string, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
