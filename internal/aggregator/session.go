package aggregator

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/AoWangg/chat-json/internal/event"
	"github.com/oklog/ulid/v2"
)

// Observer receives read-only views of a session. OnSnapshot is called after
// every mutation and OnGroup once per finalized group.
type Observer interface {
	OnSnapshot(Snapshot)
	OnGroup(Group)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	Snapshot func(Snapshot)
	Group    func(Group)
}

func (o ObserverFuncs) OnSnapshot(s Snapshot) {
	if o.Snapshot != nil {
		o.Snapshot(s)
	}
}

func (o ObserverFuncs) OnGroup(g Group) {
	if o.Group != nil {
		o.Group(g)
	}
}

type Option func(*Session)

// WithSplitToolPhases keys tool calls by call id and phase, so the start and
// end of one call become two entities.
func WithSplitToolPhases(split bool) Option {
	return func(s *Session) { s.splitPhases = split }
}

// WithKeepThinkingOnly makes rounds without a response produce a group with
// HasResponse false instead of being dropped.
func WithKeepThinkingOnly(keep bool) Option {
	return func(s *Session) { s.finalizer.keepThinkingOnly = keep }
}

// WithIDGenerator overrides how session ids are minted.
func WithIDGenerator(gen func() string) Option {
	return func(s *Session) {
		if gen != nil {
			s.newID = gen
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

func WithObserver(o Observer) Option {
	return func(s *Session) {
		if o != nil {
			s.observers = append(s.observers, o)
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// Session aggregates one conversation stream into live entities and
// finalized groups. It is driven synchronously through HandleEvent and is not
// safe for concurrent use; the transport loop that feeds it owns it.
type Session struct {
	id    string
	seq   uint64
	state State

	resolver  *Resolver
	acc       *Accumulator
	tracker   *Tracker
	finalizer Finalizer

	groups []Group
	stats  Stats

	splitPhases bool
	newID       func() string
	now         func() time.Time
	observers   []Observer
	logger      *slog.Logger
}

func NewSession(opts ...Option) *Session {
	s := &Session{
		state:  StateIdle,
		newID:  NewSessionID,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "aggregator")
	s.resolver = newResolver(s.splitPhases, func() string { return s.nextID("response") })
	s.acc = newAccumulator(s.now)
	s.tracker = newTracker()
	s.id = s.newID()
	return s
}

// NewSessionID returns a fresh ULID.
func NewSessionID() string {
	return ulid.Make().String()
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) State() State {
	return s.state
}

// StartSession discards all state and begins accepting events.
func (s *Session) StartSession() {
	s.reset()
	s.state = StateStreaming
	s.logger.Debug("Session started", "session_id", s.id)
	s.emit()
}

// Reset discards all state, including finalized groups and counters, and
// aborts any round in flight without finalizing it. Subsequent synthetic ids
// live under a new session id.
func (s *Session) Reset() {
	s.reset()
	s.logger.Debug("Session reset", "session_id", s.id)
	s.emit()
}

// HandleEvent applies one event. Malformed payloads return an error wrapping
// ErrInvalidInput and leave the session untouched. Unknown kinds are ignored.
func (s *Session) HandleEvent(evt event.Event) error {
	switch evt.Kind {
	case event.KindChatStart:
		s.begin()
		return nil

	case event.KindEnd:
		s.Finish()
		return nil

	case event.KindReasoning:
		d, err := evt.Reasoning()
		if err != nil {
			return err
		}
		e, created, err := s.acc.Reasoning(s.resolver.ForReasoning(d), evt.AgentName, d)
		if err != nil {
			return err
		}
		s.resolver.NextRound(s.acc.HasKind(KindContent))
		s.record(e, created)
		return nil

	case event.KindToolCalls:
		d, err := evt.ToolCall()
		if err != nil {
			return err
		}
		e, created, err := s.acc.ToolCall(s.resolver.ForToolCall(d), evt.AgentName, d)
		if err != nil {
			return err
		}
		s.resolver.NextRound(s.acc.HasKind(KindContent))
		s.record(e, created)
		return nil

	case event.KindMessageChunk:
		d, err := evt.MessageChunk()
		if err != nil {
			return err
		}
		e, created, err := s.acc.Content(s.resolver.ForContent(), evt.AgentName, d)
		if err != nil {
			return err
		}
		s.record(e, created)
		return nil

	default:
		s.logger.Debug("Ignoring event", "kind", evt.Kind)
		return nil
	}
}

// Finish finalizes the current round. It returns the group produced, if any.
// Round state is cleared either way.
func (s *Session) Finish() (Group, bool) {
	s.state = StateFinalizing
	s.acc.CompleteAll()

	g, ok := s.finalizer.Build(s.tracker.Entries())
	if ok {
		g.ID = s.nextID("group")
		g.SessionID = s.id
		g.CreatedAt = s.now()
		s.groups = append(s.groups, g)
		s.logger.Info("Group finalized",
			"group_id", g.ID,
			"thinking", len(g.Thinking),
			"has_response", g.HasResponse)
		for _, o := range s.observers {
			o.OnGroup(g.Clone())
		}
	} else if s.tracker.Len() > 0 {
		s.logger.Debug("Round produced no group", "entities", s.tracker.Len())
	}

	s.clearRound()
	s.state = StateIdle
	s.emit()
	return g.Clone(), ok
}

// Abort discards the round in flight without finalizing it. Counters and
// finalized groups are kept until the next reset.
func (s *Session) Abort(cause error) {
	if s.tracker.Len() > 0 || s.state != StateIdle {
		s.logger.Warn("Round aborted", "entities", s.tracker.Len(), "error", cause)
	}
	s.clearRound()
	s.state = StateIdle
	s.emit()
}

// Live returns the entities of the current round in first-seen order.
func (s *Session) Live() []Entity {
	return s.tracker.Entries()
}

// Groups returns finalized groups in creation order.
func (s *Session) Groups() []Group {
	out := make([]Group, len(s.groups))
	for i, g := range s.groups {
		out[i] = g.Clone()
	}
	return out
}

func (s *Session) Stats() Stats {
	return s.stats
}

func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		SessionID: s.id,
		State:     s.state,
		Live:      s.Live(),
		Groups:    s.Groups(),
		Stats:     s.stats,
	}
}

func (s *Session) begin() {
	if s.state == StateIdle {
		s.state = StateStreaming
	}
}

func (s *Session) record(e Entity, created bool) {
	s.begin()
	s.tracker.Upsert(e)
	if created {
		switch e.Kind {
		case KindReasoning:
			s.stats.Reasoning++
		case KindToolCall:
			s.stats.ToolCalls++
		case KindContent:
			s.stats.Responses++
		}
		s.stats.Total++
	}
	s.emit()
}

func (s *Session) reset() {
	s.id = s.newID()
	s.seq = 0
	s.clearRound()
	s.groups = nil
	s.stats = Stats{}
	s.state = StateIdle
}

func (s *Session) clearRound() {
	s.acc.Clear()
	s.tracker.Clear()
	s.resolver.Clear()
}

func (s *Session) nextID(kind string) string {
	s.seq++
	return fmt.Sprintf("%s/%s/%d", s.id, kind, s.seq)
}

func (s *Session) emit() {
	if len(s.observers) == 0 {
		return
	}
	for _, o := range s.observers {
		o.OnSnapshot(s.Snapshot())
	}
}
