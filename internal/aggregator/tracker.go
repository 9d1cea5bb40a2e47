package aggregator

// Tracker keeps every entity touched in the current session, in the order
// each identity was first seen.
type Tracker struct {
	entries []Entity
	index   map[string]int
}

func newTracker() *Tracker {
	return &Tracker{index: make(map[string]int)}
}

// Upsert replaces the entry for e.ID in place, or appends it if unseen.
func (t *Tracker) Upsert(e Entity) {
	if i, ok := t.index[e.ID]; ok {
		t.entries[i] = e
		return
	}
	t.index[e.ID] = len(t.entries)
	t.entries = append(t.entries, e)
}

// Entries returns a deep copy of the tracked entities.
func (t *Tracker) Entries() []Entity {
	return cloneEntities(t.entries)
}

func (t *Tracker) Len() int {
	return len(t.entries)
}

func (t *Tracker) Clear() {
	t.entries = nil
	t.index = make(map[string]int)
}
