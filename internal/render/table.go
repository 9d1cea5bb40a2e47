package render

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/AoWangg/chat-json/internal/aggregator"
	"github.com/AoWangg/chat-json/internal/store"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
)

type TableFormatter struct {
	headerStyle  lipgloss.Style
	cellStyle    lipgloss.Style
	oddRowStyle  lipgloss.Style
	evenRowStyle lipgloss.Style
	borderStyle  lipgloss.Style
}

func NewTableFormatter() *TableFormatter {
	purple := lipgloss.Color("99")
	gray := lipgloss.Color("245")
	lightGray := lipgloss.Color("241")

	return &TableFormatter{
		headerStyle: lipgloss.NewStyle().
			Foreground(purple).
			Bold(true).
			Align(lipgloss.Center).
			Padding(0, 1),
		cellStyle: lipgloss.NewStyle().
			Padding(0, 1),
		oddRowStyle: lipgloss.NewStyle().
			Foreground(gray).
			Padding(0, 1),
		evenRowStyle: lipgloss.NewStyle().
			Foreground(lightGray).
			Padding(0, 1),
		borderStyle: lipgloss.NewStyle().
			Foreground(purple),
	}
}

func (f *TableFormatter) FormatReport(r Report) (string, error) {
	groups, err := f.FormatGroups(r.Groups)
	if err != nil {
		return "", err
	}
	stats, err := f.FormatStats(r.Stats)
	if err != nil {
		return "", err
	}
	return groups + "\n" + stats, nil
}

func (f *TableFormatter) FormatGroups(groups []aggregator.Group) (string, error) {
	if len(groups) == 0 {
		return "No groups found", nil
	}

	t := f.listTable("Group", "Thinking", "Response", "Collapsed")
	for _, g := range groups {
		response := "-"
		if g.FinalResponse != nil {
			response = truncateString(oneLine(g.FinalResponse.Content), 40)
		}
		t.Row(
			g.ID,
			thinkingSummary(g.Thinking),
			response,
			strconv.FormatBool(g.Collapsed),
		)
	}
	return t.String(), nil
}

func (f *TableFormatter) FormatGroup(group *aggregator.Group) (string, error) {
	if group == nil {
		return "No group found", nil
	}

	t := f.listTable("#", "Kind", "ID", "Agent", "Content")
	for i, e := range group.Thinking {
		content := e.Content
		if e.Kind == aggregator.KindToolCall && e.ToolName != "" {
			content = fmt.Sprintf("%s [%s] %s", e.ToolName, e.ToolState, content)
		}
		t.Row(strconv.Itoa(i+1), string(e.Kind), e.ID, e.Agent, truncateString(oneLine(content), 60))
	}
	if group.FinalResponse != nil {
		r := group.FinalResponse
		t.Row("=>", string(r.Kind), r.ID, r.Agent, truncateString(oneLine(r.Content), 60))
	}
	return t.String(), nil
}

func (f *TableFormatter) FormatStats(stats aggregator.Stats) (string, error) {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(f.borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 0 {
				return f.headerStyle
			}
			return f.cellStyle
		})

	t.Row("Reasoning", strconv.Itoa(stats.Reasoning))
	t.Row("Tool calls", strconv.Itoa(stats.ToolCalls))
	t.Row("Responses", strconv.Itoa(stats.Responses))
	t.Row("Total", strconv.Itoa(stats.Total))
	return t.String(), nil
}

func (f *TableFormatter) FormatSessions(sessions []store.SessionMeta) (string, error) {
	if len(sessions) == 0 {
		return "No sessions found", nil
	}

	t := f.listTable("Session", "Source", "Groups", "Updated")
	for _, s := range sessions {
		t.Row(s.ID, truncateString(s.Source, 30), strconv.Itoa(s.Groups), s.UpdatedAt.Local().Format(time.DateTime))
	}
	return t.String(), nil
}

func (f *TableFormatter) listTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(f.borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return f.headerStyle
			case row%2 == 0:
				return f.evenRowStyle
			default:
				return f.oddRowStyle
			}
		}).
		Headers(headers...)
}

// thinkingSummary counts entities per kind, e.g. "reasoning:1 tool_call:2".
func thinkingSummary(entities []aggregator.Entity) string {
	if len(entities) == 0 {
		return "-"
	}
	var reasoning, tools int
	for _, e := range entities {
		switch e.Kind {
		case aggregator.KindReasoning:
			reasoning++
		case aggregator.KindToolCall:
			tools++
		}
	}
	var parts []string
	if reasoning > 0 {
		parts = append(parts, fmt.Sprintf("reasoning:%d", reasoning))
	}
	if tools > 0 {
		parts = append(parts, fmt.Sprintf("tool_call:%d", tools))
	}
	return strings.Join(parts, " ")
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
