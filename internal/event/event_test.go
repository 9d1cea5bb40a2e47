package event

import (
	"os"
	"path/filepath"
	"testing"

	chaterrors "github.com/AoWangg/chat-json/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	raw := []byte(`{"event_type":"reasoning","data":{"reasoning_id":"r-1","text_chunk":"Hel","index":0,"session_started":true},"agent_name":"planner","message_id":"","thread_id":"t-9"}`)

	evt, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, KindReasoning, evt.Kind)
	assert.Equal(t, "planner", evt.AgentName)
	assert.Equal(t, "t-9", evt.ThreadID)

	d, err := evt.Reasoning()
	require.NoError(t, err)
	assert.Equal(t, "r-1", d.ReasoningID)
	assert.Equal(t, "Hel", d.TextChunk)
	assert.True(t, d.SessionStarted)
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: "  "},
		{name: "not json", raw: "data: nope"},
		{name: "truncated", raw: `{"event_type":"reasoning","data":{`},
		{name: "no kind", raw: `{"data":{}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.raw))
			require.Error(t, err)
			assert.ErrorIs(t, err, chaterrors.ErrInvalidInput)
		})
	}
}

func TestToolCallPayload(t *testing.T) {
	evt, err := Decode([]byte(`{"event_type":"tool_calls","data":{"phase":"end","tool_call_id":"call_1","tool_name":"search","content":"3 results","success":true},"agent_name":"researcher"}`))
	require.NoError(t, err)

	d, err := evt.ToolCall()
	require.NoError(t, err)
	assert.Equal(t, PhaseEnd, d.Phase)
	assert.Equal(t, "call_1", d.ToolCallID)
	assert.Equal(t, "3 results", d.Content)
	require.NotNil(t, d.Success)
	assert.True(t, *d.Success)
}

func TestPayloadValidation(t *testing.T) {
	noCallID, err := New(KindToolCalls, "a", map[string]any{"phase": "start"})
	require.NoError(t, err)
	_, err = noCallID.ToolCall()
	assert.ErrorIs(t, err, chaterrors.ErrInvalidInput)

	noReasoningID := Event{Kind: KindReasoning}
	_, err = noReasoningID.Reasoning()
	assert.ErrorIs(t, err, chaterrors.ErrInvalidInput)

	wrongKind, err := New(KindMessageChunk, "a", MessageChunkData{Content: "hi"})
	require.NoError(t, err)
	_, err = wrongKind.ToolCall()
	assert.ErrorIs(t, err, chaterrors.ErrInvalidInput)

	badPayload := Event{Kind: KindMessageChunk, Data: []byte(`{"content":42}`)}
	_, err = badPayload.MessageChunk()
	assert.ErrorIs(t, err, chaterrors.ErrInvalidInput)
}

func TestMessageChunk_EmptyPayload(t *testing.T) {
	d, err := Event{Kind: KindMessageChunk}.MessageChunk()
	require.NoError(t, err)
	assert.Empty(t, d.Content)
	assert.Nil(t, d.ThinkingTime)

	d, err = Event{Kind: KindMessageChunk, Data: []byte(`{"content":"42","thinking_time":1.5}`)}.MessageChunk()
	require.NoError(t, err)
	assert.Equal(t, "42", d.Content)
	require.NotNil(t, d.ThinkingTime)
	assert.InDelta(t, 1.5, *d.ThinkingTime, 0.0001)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chat-data.json")
	fixture := `[
  {"event_type":"chat_start","data":{},"agent_name":"host","message_id":"m0","thread_id":"t"},
  {"event_type":"message_chunk","data":{"content":"Hi"},"agent_name":"host","message_id":"","thread_id":"t"},
  {"event_type":"end","data":{},"agent_name":"host","message_id":"","thread_id":"t"}
]`
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0644))

	events, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, KindChatStart, events[0].Kind)
	assert.Equal(t, KindEnd, events[2].Kind)

	_, err = LoadFile(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, chaterrors.ErrNotFound)

	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte(`{"event_type":`), 0644))
	_, err = LoadFile(broken)
	assert.ErrorIs(t, err, chaterrors.ErrInvalidInput)
}
