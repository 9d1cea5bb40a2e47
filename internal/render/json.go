package render

import (
	"encoding/json"

	"github.com/AoWangg/chat-json/internal/aggregator"
	"github.com/AoWangg/chat-json/internal/store"
)

type JSONFormatter struct{}

func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

func (f *JSONFormatter) FormatReport(r Report) (string, error) {
	if r.Groups == nil {
		r.Groups = []aggregator.Group{}
	}
	return marshalJSON(r)
}

func (f *JSONFormatter) FormatGroups(groups []aggregator.Group) (string, error) {
	if groups == nil {
		groups = []aggregator.Group{}
	}
	return marshalJSON(groups)
}

func (f *JSONFormatter) FormatGroup(group *aggregator.Group) (string, error) {
	if group == nil {
		return "null", nil
	}
	return marshalJSON(group)
}

func (f *JSONFormatter) FormatStats(stats aggregator.Stats) (string, error) {
	return marshalJSON(stats)
}

func (f *JSONFormatter) FormatSessions(sessions []store.SessionMeta) (string, error) {
	if sessions == nil {
		sessions = []store.SessionMeta{}
	}
	return marshalJSON(sessions)
}

func marshalJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
