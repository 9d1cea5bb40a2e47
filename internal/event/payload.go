package event

import (
	chaterrors "github.com/AoWangg/chat-json/internal/errors"
)

type ToolPhase string

const (
	PhaseStart ToolPhase = "start"
	PhaseEnd   ToolPhase = "end"
)

type ToolCallData struct {
	Phase      ToolPhase      `json:"phase"`
	ToolCallID string         `json:"tool_call_id"`
	ToolName   string         `json:"tool_name"`
	Args       map[string]any `json:"args,omitempty"`
	ArgsChunk  string         `json:"args_chunk,omitempty"`
	Content    string         `json:"content,omitempty"`
	Success    *bool          `json:"success,omitempty"`
}

type ReasoningData struct {
	ReasoningID    string `json:"reasoning_id"`
	TextChunk      string `json:"text_chunk"`
	Index          int    `json:"index"`
	SessionStarted bool   `json:"session_started"`
}

type MessageChunkData struct {
	Content      string   `json:"content"`
	MessageID    string   `json:"message_id,omitempty"`
	ThinkingTime *float64 `json:"thinking_time,omitempty"`
}

// ToolCall decodes a tool_calls payload. The call id is required because it
// keys the entity the fragment merges into.
func (e Event) ToolCall() (ToolCallData, error) {
	if e.Kind != KindToolCalls {
		return ToolCallData{}, chaterrors.InvalidInputf("event %s is not a tool call", e.Kind)
	}
	var d ToolCallData
	if err := e.decodeData(&d); err != nil {
		return ToolCallData{}, err
	}
	if d.ToolCallID == "" {
		return ToolCallData{}, chaterrors.InvalidInput("tool_calls event has no tool_call_id")
	}
	return d, nil
}

func (e Event) Reasoning() (ReasoningData, error) {
	if e.Kind != KindReasoning {
		return ReasoningData{}, chaterrors.InvalidInputf("event %s is not reasoning", e.Kind)
	}
	var d ReasoningData
	if err := e.decodeData(&d); err != nil {
		return ReasoningData{}, err
	}
	if d.ReasoningID == "" {
		return ReasoningData{}, chaterrors.InvalidInput("reasoning event has no reasoning_id")
	}
	return d, nil
}

func (e Event) MessageChunk() (MessageChunkData, error) {
	if e.Kind != KindMessageChunk {
		return MessageChunkData{}, chaterrors.InvalidInputf("event %s is not a message chunk", e.Kind)
	}
	var d MessageChunkData
	if err := e.decodeData(&d); err != nil {
		return MessageChunkData{}, err
	}
	return d, nil
}
