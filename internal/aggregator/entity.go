package aggregator

import (
	"time"

	"github.com/AoWangg/chat-json/internal/event"
)

type EntityKind string

const (
	KindReasoning EntityKind = "reasoning"
	KindToolCall  EntityKind = "tool_call"
	KindContent   EntityKind = "content"
	KindSystem    EntityKind = "system"
)

// ToolState tracks a merged tool call through its phases.
type ToolState string

const (
	ToolPending  ToolState = "pending"
	ToolStarted  ToolState = "started"
	ToolFinished ToolState = "finished"
)

type State string

const (
	StateIdle       State = "idle"
	StateStreaming  State = "streaming"
	StateFinalizing State = "finalizing"
)

// Entity is one accumulating unit of content: a reasoning trace, a tool call
// or a response.
type Entity struct {
	ID           string          `json:"id" yaml:"id"`
	Agent        string          `json:"agent" yaml:"agent"`
	Content      string          `json:"content" yaml:"content"`
	Kind         EntityKind      `json:"kind" yaml:"kind"`
	EventType    event.Kind      `json:"event_type" yaml:"event_type"`
	CreatedAt    time.Time       `json:"created_at" yaml:"created_at"`
	Complete     bool            `json:"complete" yaml:"complete"`
	ToolCallID   string          `json:"tool_call_id,omitempty" yaml:"tool_call_id,omitempty"`
	ToolName     string          `json:"tool_name,omitempty" yaml:"tool_name,omitempty"`
	ToolPhase    event.ToolPhase `json:"tool_phase,omitempty" yaml:"tool_phase,omitempty"`
	ToolState    ToolState       `json:"tool_state,omitempty" yaml:"tool_state,omitempty"`
	ToolArgs     map[string]any  `json:"tool_args,omitempty" yaml:"tool_args,omitempty"`
	ToolArgsRaw  string          `json:"tool_args_raw,omitempty" yaml:"tool_args_raw,omitempty"`
	ToolSuccess  *bool           `json:"tool_success,omitempty" yaml:"tool_success,omitempty"`
	ThinkingTime *float64        `json:"thinking_time,omitempty" yaml:"thinking_time,omitempty"`
}

// IsThinking reports whether the entity belongs to the thinking side of a group.
func (e Entity) IsThinking() bool {
	return e.Kind == KindReasoning || e.Kind == KindToolCall
}

// Clone returns a copy that shares no mutable state with e.
func (e Entity) Clone() Entity {
	c := e
	if e.ToolArgs != nil {
		c.ToolArgs = cloneMap(e.ToolArgs)
	}
	if e.ToolSuccess != nil {
		v := *e.ToolSuccess
		c.ToolSuccess = &v
	}
	if e.ThinkingTime != nil {
		v := *e.ThinkingTime
		c.ThinkingTime = &v
	}
	return c
}

// Group is the finalized record of one round: the thinking steps and the
// response that answered them.
type Group struct {
	ID            string    `json:"id" yaml:"id"`
	SessionID     string    `json:"session_id" yaml:"session_id"`
	Thinking      []Entity  `json:"thinking" yaml:"thinking"`
	FinalResponse *Entity   `json:"final_response,omitempty" yaml:"final_response,omitempty"`
	Collapsed     bool      `json:"collapsed" yaml:"collapsed"`
	HasResponse   bool      `json:"has_response" yaml:"has_response"`
	CreatedAt     time.Time `json:"created_at" yaml:"created_at"`
}

func (g Group) Clone() Group {
	c := g
	c.Thinking = cloneEntities(g.Thinking)
	if g.FinalResponse != nil {
		r := g.FinalResponse.Clone()
		c.FinalResponse = &r
	}
	return c
}

type Stats struct {
	Reasoning int `json:"reasoning" yaml:"reasoning"`
	ToolCalls int `json:"tool_calls" yaml:"tool_calls"`
	Responses int `json:"responses" yaml:"responses"`
	Total     int `json:"total" yaml:"total"`
}

// Snapshot is a read-only view of a session. It shares nothing with the
// session that produced it.
type Snapshot struct {
	SessionID string   `json:"session_id" yaml:"session_id"`
	State     State    `json:"state" yaml:"state"`
	Live      []Entity `json:"live" yaml:"live"`
	Groups    []Group  `json:"groups" yaml:"groups"`
	Stats     Stats    `json:"stats" yaml:"stats"`
}

func cloneEntities(in []Entity) []Entity {
	out := make([]Entity, len(in))
	for i, e := range in {
		out[i] = e.Clone()
	}
	return out
}

func cloneMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
