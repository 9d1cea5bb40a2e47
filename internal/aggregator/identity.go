package aggregator

import (
	"github.com/AoWangg/chat-json/internal/event"
)

// Resolver maps events to the identity their fragments merge under.
//
// Response identities are synthetic: one is minted lazily for the first
// content chunk of a round and dropped when thinking resumes after a response,
// so chunks of two separate answers never merge.
type Resolver struct {
	splitPhases bool
	mint        func() string
	responseID  string
}

func newResolver(splitPhases bool, mint func() string) *Resolver {
	return &Resolver{splitPhases: splitPhases, mint: mint}
}

func (r *Resolver) ForToolCall(d event.ToolCallData) string {
	if r.splitPhases {
		return d.ToolCallID + "_" + string(d.Phase)
	}
	return d.ToolCallID
}

func (r *Resolver) ForReasoning(d event.ReasoningData) string {
	return d.ReasoningID
}

func (r *Resolver) ForContent() string {
	if r.responseID == "" {
		r.responseID = r.mint()
	}
	return r.responseID
}

// NextRound forgets the current response identity when a response already
// exists, so the next content chunk starts a new one.
func (r *Resolver) NextRound(hasContent bool) {
	if hasContent {
		r.responseID = ""
	}
}

func (r *Resolver) Clear() {
	r.responseID = ""
}
