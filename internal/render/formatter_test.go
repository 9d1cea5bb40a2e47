package render

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/AoWangg/chat-json/internal/aggregator"
	"github.com/AoWangg/chat-json/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleGroups() []aggregator.Group {
	return []aggregator.Group{
		{
			ID:        "S1/group/2",
			SessionID: "S1",
			Thinking: []aggregator.Entity{
				{ID: "A", Kind: aggregator.KindReasoning, Agent: "planner", Content: "Hello", Complete: true},
				{ID: "B", Kind: aggregator.KindToolCall, Agent: "researcher", Content: "3 results", ToolName: "search", ToolState: aggregator.ToolFinished, Complete: true},
			},
			FinalResponse: &aggregator.Entity{ID: "S1/response/1", Kind: aggregator.KindContent, Agent: "writer", Content: "Answer: 42", Complete: true},
			Collapsed:     true,
			HasResponse:   true,
		},
	}
}

func TestFormatterFactory_Create(t *testing.T) {
	factory := NewFormatterFactory()

	tests := []struct {
		name    string
		format  OutputFormat
		wantErr bool
	}{
		{name: "table format", format: OutputFormatTable},
		{name: "json format", format: OutputFormatJSON},
		{name: "yaml format", format: OutputFormatYAML},
		{name: "invalid format", format: OutputFormat("invalid"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			formatter, err := factory.Create(tt.format)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, formatter)
		})
	}
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    OutputFormat
		wantErr bool
	}{
		{input: "TABLE", want: OutputFormatTable},
		{input: "json", want: OutputFormatJSON},
		{input: " Yaml ", want: OutputFormatYAML},
		{input: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseOutputFormat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTableFormatter_FormatGroups(t *testing.T) {
	f := NewTableFormatter()

	out, err := f.FormatGroups(sampleGroups())
	require.NoError(t, err)
	assert.Contains(t, out, "S1/group/2")
	assert.Contains(t, out, "reasoning:1 tool_call:1")
	assert.Contains(t, out, "Answer: 42")

	out, err = f.FormatGroups(nil)
	require.NoError(t, err)
	assert.Equal(t, "No groups found", out)
}

func TestTableFormatter_FormatGroup(t *testing.T) {
	f := NewTableFormatter()
	g := sampleGroups()[0]

	out, err := f.FormatGroup(&g)
	require.NoError(t, err)
	assert.Contains(t, out, "planner")
	assert.Contains(t, out, "search [finished] 3 results")
	assert.Contains(t, out, "Answer: 42")

	out, err = f.FormatGroup(nil)
	require.NoError(t, err)
	assert.Equal(t, "No group found", out)
}

func TestTableFormatter_FormatStatsAndSessions(t *testing.T) {
	f := NewTableFormatter()

	out, err := f.FormatStats(aggregator.Stats{Reasoning: 1, ToolCalls: 1, Responses: 1, Total: 3})
	require.NoError(t, err)
	assert.Contains(t, out, "Tool calls")
	assert.Contains(t, out, "3")

	out, err = f.FormatSessions([]store.SessionMeta{{ID: "01HX", Source: "fixture.json", Groups: 2, UpdatedAt: time.Now()}})
	require.NoError(t, err)
	assert.Contains(t, out, "01HX")
	assert.Contains(t, out, "fixture.json")

	out, err = f.FormatSessions(nil)
	require.NoError(t, err)
	assert.Equal(t, "No sessions found", out)
}

func TestJSONFormatter_FormatGroups(t *testing.T) {
	out, err := NewJSONFormatter().FormatGroups(sampleGroups())
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "S1/group/2", decoded[0]["id"])
	assert.Equal(t, true, decoded[0]["collapsed"])

	out, err = NewJSONFormatter().FormatGroups(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", out)
}

func TestYAMLFormatter_FormatStats(t *testing.T) {
	out, err := NewYAMLFormatter().FormatStats(aggregator.Stats{Reasoning: 1, ToolCalls: 1, Responses: 1, Total: 3})
	require.NoError(t, err)
	assert.Contains(t, out, "tool_calls: 1")
	assert.False(t, strings.HasSuffix(out, "\n"))

	out, err = NewYAMLFormatter().FormatGroups(sampleGroups())
	require.NoError(t, err)
	var decoded []map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "S1/group/2", decoded[0]["id"])
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", truncateString("short", 10))
	assert.Equal(t, "abcdefg...", truncateString("abcdefghijklmnop", 10))
	assert.Equal(t, "答案是...", truncateString("答案是四十二啊", 6))
}

func TestFormatReport(t *testing.T) {
	report := Report{Groups: sampleGroups(), Stats: aggregator.Stats{Reasoning: 1, ToolCalls: 1, Responses: 1, Total: 3}}

	out, err := NewJSONFormatter().FormatReport(report)
	require.NoError(t, err)
	var decoded Report
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, 3, decoded.Stats.Total)
	require.Len(t, decoded.Groups, 1)
	assert.Equal(t, "Answer: 42", decoded.Groups[0].FinalResponse.Content)

	out, err = NewJSONFormatter().FormatReport(Report{})
	require.NoError(t, err)
	assert.Contains(t, out, `"groups": []`)

	out, err = NewTableFormatter().FormatReport(report)
	require.NoError(t, err)
	assert.Contains(t, out, "S1/group/2")
	assert.Contains(t, out, "Responses")

	out, err = NewYAMLFormatter().FormatReport(report)
	require.NoError(t, err)
	assert.Contains(t, out, "total: 3")
}
