package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/AoWangg/chat-json/internal/aggregator"
	chaterrors "github.com/AoWangg/chat-json/internal/errors"
	"github.com/AoWangg/chat-json/internal/event"
	"github.com/AoWangg/chat-json/internal/logger"
)

// Handler is the aggregation side of a pump. *aggregator.Session satisfies it.
type Handler interface {
	ID() string
	StartSession()
	HandleEvent(event.Event) error
	Finish() (aggregator.Group, bool)
	Abort(error)
}

// Result summarizes one pumped stream.
type Result struct {
	Events  int
	Dropped int
	Groups  int
}

// Pump feeds every frame of r into h until the stream terminates. A clean
// termination finishes the round in flight. Anything else aborts it and
// returns an error wrapping ErrStreamAborted. Frames that are oversized or fail
// to decode or apply are dropped.
func Pump(ctx context.Context, r *Reader, h Handler) (Result, error) {
	var res Result
	h.StartSession()
	ctx = logger.WithSessionID(ctx, h.ID())
	log := slog.With(
		"component", "stream",
		"session_id", logger.GetSessionID(ctx),
		"url", logger.GetStreamURL(ctx))

	for {
		if err := ctx.Err(); err != nil {
			h.Abort(err)
			return res, fmt.Errorf("%w: %w", chaterrors.ErrStreamAborted, err)
		}

		frame, err := r.Next()
		if errors.Is(err, ErrDone) {
			if _, ok := h.Finish(); ok {
				res.Groups++
			}
			log.Debug("Stream finished", "events", res.Events, "dropped", res.Dropped, "groups", res.Groups)
			return res, nil
		}
		if errors.Is(err, ErrFrameTooLarge) {
			res.Dropped++
			log.Debug("Dropping oversized frame", "limit", r.maxFrameBytes)
			continue
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				err = ctxErr
			}
			log.Warn("Stream interrupted", "events", res.Events, "error", err)
			h.Abort(err)
			return res, fmt.Errorf("%w: %w", chaterrors.ErrStreamAborted, err)
		}

		evt, err := event.Decode(frame)
		if err == nil {
			err = applyEvent(h, evt, &res)
		}
		if err != nil {
			res.Dropped++
			log.Debug("Dropping frame", "error", err)
			continue
		}
		res.Events++
	}
}

func applyEvent(h Handler, evt event.Event, res *Result) error {
	if evt.Kind == event.KindEnd {
		if _, ok := h.Finish(); ok {
			res.Groups++
		}
		return nil
	}
	return h.HandleEvent(evt)
}
