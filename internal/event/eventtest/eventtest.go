// Package eventtest builds well-formed chat events for tests.
package eventtest

import (
	"testing"

	"github.com/AoWangg/chat-json/internal/event"

	"github.com/stretchr/testify/require"
)

func Marker(kind event.Kind, agent string) event.Event {
	return event.Event{Kind: kind, AgentName: agent}
}

func ReasoningChunk(t testing.TB, agent, reasoningID, text string) event.Event {
	t.Helper()
	return build(t, event.KindReasoning, agent, event.ReasoningData{ReasoningID: reasoningID, TextChunk: text})
}

func ToolStart(t testing.TB, agent, callID, toolName string, args map[string]any) event.Event {
	t.Helper()
	return build(t, event.KindToolCalls, agent, event.ToolCallData{
		Phase:      event.PhaseStart,
		ToolCallID: callID,
		ToolName:   toolName,
		Args:       args,
	})
}

// ToolEnd builds a successful terminal tool call event.
func ToolEnd(t testing.TB, agent, callID, toolName, content string) event.Event {
	t.Helper()
	success := true
	return build(t, event.KindToolCalls, agent, event.ToolCallData{
		Phase:      event.PhaseEnd,
		ToolCallID: callID,
		ToolName:   toolName,
		Content:    content,
		Success:    &success,
	})
}

func MessageChunk(t testing.TB, agent, content string) event.Event {
	t.Helper()
	return build(t, event.KindMessageChunk, agent, event.MessageChunkData{Content: content})
}

func build(t testing.TB, kind event.Kind, agent string, data any) event.Event {
	t.Helper()
	evt, err := event.New(kind, agent, data)
	require.NoError(t, err)
	return evt
}
