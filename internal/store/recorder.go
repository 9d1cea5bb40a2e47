package store

import (
	"log/slog"

	"github.com/AoWangg/chat-json/internal/aggregator"
)

// Recorder archives every finalized group of a session. Write failures are
// logged and never reach the session.
type Recorder struct {
	worker *Worker
	source string
}

func NewRecorder(w *Worker, source string) *Recorder {
	return &Recorder{worker: w, source: source}
}

func (r *Recorder) OnSnapshot(aggregator.Snapshot) {}

func (r *Recorder) OnGroup(g aggregator.Group) {
	if err := r.worker.AppendGroup(g, r.source); err != nil {
		slog.Error("Failed to archive group", "component", "archive", "group_id", g.ID, "error", err)
	}
}
