package aggregator

import (
	"time"

	chaterrors "github.com/AoWangg/chat-json/internal/errors"
	"github.com/AoWangg/chat-json/internal/event"
)

// Accumulator owns the live entities of a session keyed by identity.
// Every merge returns a copy of the resulting entity and whether it was
// created by that merge.
type Accumulator struct {
	entities map[string]*Entity
	now      func() time.Time
}

func newAccumulator(now func() time.Time) *Accumulator {
	return &Accumulator{entities: make(map[string]*Entity), now: now}
}

// Reasoning appends a reasoning fragment.
func (a *Accumulator) Reasoning(id, agent string, d event.ReasoningData) (Entity, bool, error) {
	e, created, err := a.lookup(id, KindReasoning)
	if err != nil {
		return Entity{}, false, err
	}
	if created {
		e = a.create(id, agent, KindReasoning, event.KindReasoning)
	}
	e.Content += d.TextChunk
	return e.Clone(), created, nil
}

// ToolCall merges a tool call fragment. The terminal payload replaces the
// content wholesale; a finished call ignores any later non-terminal fragment.
func (a *Accumulator) ToolCall(id, agent string, d event.ToolCallData) (Entity, bool, error) {
	e, created, err := a.lookup(id, KindToolCall)
	if err != nil {
		return Entity{}, false, err
	}
	if created {
		e = a.create(id, agent, KindToolCall, event.KindToolCalls)
		e.ToolCallID = d.ToolCallID
		e.ToolState = ToolPending
	}

	switch d.Phase {
	case event.PhaseEnd:
		e.Content = d.Content
		e.ToolPhase = event.PhaseEnd
		e.ToolState = ToolFinished
		e.Complete = true
		if d.ToolName != "" && e.ToolName == "" {
			e.ToolName = d.ToolName
		}
		if d.Success != nil {
			v := *d.Success
			e.ToolSuccess = &v
		}
	case event.PhaseStart:
		if e.ToolState == ToolFinished {
			break
		}
		e.ToolPhase = event.PhaseStart
		e.ToolState = ToolStarted
		if e.ToolName == "" {
			e.ToolName = d.ToolName
		}
		if e.ToolArgs == nil && d.Args != nil {
			e.ToolArgs = cloneMap(d.Args)
		}
		e.ToolArgsRaw += d.ArgsChunk
	default:
		if e.ToolState == ToolFinished {
			break
		}
		if created {
			e.Content = d.Content
			e.ToolName = d.ToolName
		}
		e.ToolArgsRaw += d.ArgsChunk
	}
	return e.Clone(), created, nil
}

// Content appends a response fragment. Thinking time is captured from the
// fragment that opens the response.
func (a *Accumulator) Content(id, agent string, d event.MessageChunkData) (Entity, bool, error) {
	e, created, err := a.lookup(id, KindContent)
	if err != nil {
		return Entity{}, false, err
	}
	if created {
		e = a.create(id, agent, KindContent, event.KindMessageChunk)
		if d.ThinkingTime != nil {
			v := *d.ThinkingTime
			e.ThinkingTime = &v
		}
	}
	e.Content += d.Content
	return e.Clone(), created, nil
}

// HasKind reports whether any live entity is of kind k.
func (a *Accumulator) HasKind(k EntityKind) bool {
	for _, e := range a.entities {
		if e.Kind == k {
			return true
		}
	}
	return false
}

func (a *Accumulator) Get(id string) (Entity, bool) {
	e, ok := a.entities[id]
	if !ok {
		return Entity{}, false
	}
	return e.Clone(), true
}

// CompleteAll flips every live entity to complete.
func (a *Accumulator) CompleteAll() {
	for _, e := range a.entities {
		e.Complete = true
	}
}

func (a *Accumulator) Len() int {
	return len(a.entities)
}

func (a *Accumulator) Clear() {
	a.entities = make(map[string]*Entity)
}

// lookup returns the live entity for id, or created=true when none exists.
// An identity already bound to another kind is a conflict and the event is
// rejected.
func (a *Accumulator) lookup(id string, kind EntityKind) (*Entity, bool, error) {
	e, ok := a.entities[id]
	if !ok {
		return nil, true, nil
	}
	if e.Kind != kind {
		return nil, false, chaterrors.Conflict("identity " + id + " already holds a " + string(e.Kind) + " entity")
	}
	return e, false, nil
}

func (a *Accumulator) create(id, agent string, kind EntityKind, evtKind event.Kind) *Entity {
	e := &Entity{
		ID:        id,
		Agent:     agent,
		Kind:      kind,
		EventType: evtKind,
		CreatedAt: a.now(),
	}
	a.entities[id] = e
	return e
}
