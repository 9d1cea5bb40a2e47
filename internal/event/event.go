package event

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	chaterrors "github.com/AoWangg/chat-json/internal/errors"
)

type Kind string

const (
	KindChatStart    Kind = "chat_start"
	KindToolCalls    Kind = "tool_calls"
	KindReasoning    Kind = "reasoning"
	KindMessageChunk Kind = "message_chunk"
	KindEnd          Kind = "end"
)

// Event is one frame of the conversation stream as produced by the agents.
type Event struct {
	Kind      Kind            `json:"event_type"`
	Data      json.RawMessage `json:"data,omitempty"`
	AgentName string          `json:"agent_name"`
	MessageID string          `json:"message_id"`
	ThreadID  string          `json:"thread_id"`
}

// New builds an event whose payload is the JSON encoding of data.
func New(kind Kind, agent string, data any) (Event, error) {
	evt := Event{Kind: kind, AgentName: agent}
	if data == nil {
		return evt, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", kind, err)
	}
	evt.Data = raw
	return evt, nil
}

// Decode parses a single JSON-encoded event.
func Decode(raw []byte) (Event, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return Event{}, chaterrors.InvalidInput("empty event frame")
	}

	var evt Event
	if err := json.Unmarshal(trimmed, &evt); err != nil {
		return Event{}, chaterrors.InvalidInputf("decode event: %v", err)
	}
	if evt.Kind == "" {
		return Event{}, chaterrors.InvalidInput("event has no event_type")
	}
	return evt, nil
}

// LoadFile reads a JSON array of events, the fixture format replayed by the
// stream server.
func LoadFile(path string) ([]Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, chaterrors.NotFound("event file " + path)
		}
		return nil, err
	}

	var events []Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, chaterrors.InvalidInputf("parse event file %s: %v", path, err)
	}
	return events, nil
}

func (e Event) decodeData(v any) error {
	data := bytes.TrimSpace(e.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		data = []byte("{}")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return chaterrors.InvalidInputf("decode %s payload: %v", e.Kind, err)
	}
	return nil
}
