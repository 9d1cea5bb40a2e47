package aggregator

// Finalizer turns the entities of a finished round into a group.
type Finalizer struct {
	keepThinkingOnly bool
}

// Build partitions entities into thinking and responses. The last response
// wins; earlier responses of the round are dropped. It returns false when the
// round produces no group: nothing was seen, or only thinking was seen and
// thinking-only rounds are not kept. Identity and timestamps are left for the
// caller to stamp.
func (f Finalizer) Build(entities []Entity) (Group, bool) {
	if len(entities) == 0 {
		return Group{}, false
	}

	thinking := make([]Entity, 0, len(entities))
	var final *Entity
	for _, e := range entities {
		e = e.Clone()
		e.Complete = true
		switch {
		case e.IsThinking():
			thinking = append(thinking, e)
		case e.Kind == KindContent:
			r := e
			final = &r
		}
	}

	if final == nil {
		if len(thinking) == 0 || !f.keepThinkingOnly {
			return Group{}, false
		}
		return Group{Thinking: thinking, Collapsed: true}, true
	}

	return Group{
		Thinking:      thinking,
		FinalResponse: final,
		Collapsed:     len(thinking) > 0,
		HasResponse:   true,
	}, true
}
