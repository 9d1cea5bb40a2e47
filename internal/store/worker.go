package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	stdatomic "sync/atomic"
	"time"

	"github.com/AoWangg/chat-json/internal/aggregator"
	"github.com/AoWangg/chat-json/internal/config"
	chaterrors "github.com/AoWangg/chat-json/internal/errors"

	"github.com/natefinch/atomic"
	"github.com/oklog/ulid/v2"
)

const defaultInboxSize = 64

type Operation int

const (
	OpAppendGroup Operation = iota
	OpDeleteSession
)

type Request struct {
	Op      Operation
	Payload interface{}
	Result  chan error
}

type AppendGroupPayload struct {
	Group  aggregator.Group
	Source string
}

type DeleteSessionPayload struct {
	SessionID string
}

// Worker serializes every archive write through one goroutine and holds the
// archive lock while running.
type Worker struct {
	root         string
	inbox        chan Request
	fileLock     *FileLock
	quit         chan struct{}
	done         chan struct{}
	wg           sync.WaitGroup
	sessionIndex *SessionIndex
	running      stdatomic.Bool
	now          func() time.Time
}

type RuntimeConfig struct {
	LockTimeout  time.Duration
	LockRetry    time.Duration
	LockMaxRetry int
	InboxSize    int
}

// RuntimeConfigFrom parses the archive section of the configuration.
func RuntimeConfigFrom(cfg *config.ArchiveConfig) (RuntimeConfig, error) {
	lockTimeout, err := config.DurationOrDefault(cfg.LockTimeout, config.DefaultArchiveLockTimeout)
	if err != nil {
		return RuntimeConfig{}, fmt.Errorf("parse archive lock timeout: %w", err)
	}
	lockRetry, err := config.DurationOrDefault(cfg.LockRetry, config.DefaultArchiveLockRetry)
	if err != nil {
		return RuntimeConfig{}, fmt.Errorf("parse archive lock retry: %w", err)
	}
	return RuntimeConfig{
		LockTimeout:  lockTimeout,
		LockRetry:    lockRetry,
		LockMaxRetry: cfg.LockMaxRetry,
	}, nil
}

func NewWorker(root string, runtimeCfg RuntimeConfig) (*Worker, error) {
	root, err := ResolveRoot(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create dir %s: %w", root, err)
	}

	defaults := DefaultFileLockConfig()
	if runtimeCfg.LockTimeout <= 0 {
		runtimeCfg.LockTimeout = defaults.LockTimeout
	}
	if runtimeCfg.LockRetry <= 0 {
		runtimeCfg.LockRetry = defaults.LockRetry
	}
	if runtimeCfg.LockMaxRetry <= 0 {
		runtimeCfg.LockMaxRetry = defaults.LockMaxRetry
	}
	if runtimeCfg.InboxSize <= 0 {
		runtimeCfg.InboxSize = defaultInboxSize
	}

	fileLock, err := NewFileLock(root, &FileLockConfig{
		LockTimeout:  runtimeCfg.LockTimeout,
		LockRetry:    runtimeCfg.LockRetry,
		LockMaxRetry: runtimeCfg.LockMaxRetry,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}

	sessionIndex, err := loadIndex(root)
	if err != nil {
		slog.Warn("Failed to parse session index, starting fresh", "component", "archive", "error", err)
		sessionIndex = &SessionIndex{Sessions: make(map[string]SessionMeta)}
	}

	return &Worker{
		root:         root,
		inbox:        make(chan Request, runtimeCfg.InboxSize),
		fileLock:     fileLock,
		quit:         make(chan struct{}),
		done:         make(chan struct{}),
		sessionIndex: sessionIndex,
		now:          time.Now,
	}, nil
}

func (w *Worker) Root() string {
	return w.root
}

func (w *Worker) Start() {
	if !w.running.CompareAndSwap(false, true) {
		return
	}
	w.wg.Add(1)
	go w.loop()
}

// Stop ends the loop and releases the archive lock. Requests not yet picked
// up fail with ErrInternal.
func (w *Worker) Stop() {
	if w.running.CompareAndSwap(true, false) {
		close(w.quit)
		w.wg.Wait()
	}
	w.fileLock.Unlock()
}

func (w *Worker) loop() {
	slog.Debug("Archive worker started", "component", "archive", "root", w.root)
	defer func() {
		close(w.done)
		w.wg.Done()
	}()

	for {
		select {
		case req := <-w.inbox:
			err := w.handle(req)
			if req.Result != nil {
				req.Result <- err
			}
		case <-w.quit:
			slog.Debug("Archive worker stopping", "component", "archive")
			return
		}
	}
}

func (w *Worker) handle(req Request) error {
	switch req.Op {
	case OpAppendGroup:
		p, ok := req.Payload.(AppendGroupPayload)
		if !ok {
			return fmt.Errorf("invalid payload for AppendGroup")
		}
		return w.appendGroup(p)

	case OpDeleteSession:
		p, ok := req.Payload.(DeleteSessionPayload)
		if !ok {
			return fmt.Errorf("invalid payload for DeleteSession")
		}
		return w.deleteSession(p.SessionID)

	default:
		return fmt.Errorf("unknown operation: %d", req.Op)
	}
}

func (w *Worker) appendGroup(p AppendGroupPayload) error {
	path, err := sessionLogPath(w.root, p.Group.SessionID)
	if err != nil {
		return err
	}

	now := w.now()
	data, err := json.Marshal(GroupRecord{
		ID:        ulid.Make().String(),
		Timestamp: now,
		Group:     p.Group,
	})
	if err != nil {
		return fmt.Errorf("encode group %s: %w", p.Group.ID, err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return err
	}

	meta, ok := w.sessionIndex.Sessions[p.Group.SessionID]
	if !ok {
		meta = SessionMeta{ID: p.Group.SessionID, Source: p.Source, CreatedAt: now}
	}
	meta.Groups++
	meta.UpdatedAt = now
	w.sessionIndex.Sessions[meta.ID] = meta
	return w.saveSessionIndex()
}

func (w *Worker) deleteSession(sessionID string) error {
	path, err := sessionLogPath(w.root, sessionID)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	delete(w.sessionIndex.Sessions, sessionID)
	return w.saveSessionIndex()
}

func (w *Worker) saveSessionIndex() error {
	data, err := json.MarshalIndent(w.sessionIndex, "", "  ")
	if err != nil {
		return err
	}
	return atomic.WriteFile(indexPath(w.root), bytes.NewReader(data))
}

func (w *Worker) submit(req Request) error {
	if !w.running.Load() {
		return chaterrors.Internal("archive worker is not running")
	}
	select {
	case w.inbox <- req:
	case <-w.done:
		return chaterrors.Internal("archive worker stopped")
	}
	select {
	case err := <-req.Result:
		return err
	case <-w.done:
		return chaterrors.Internal("archive worker stopped")
	}
}

// Public API for other components

// AppendGroup appends g to its session log and bumps the session in the index.
func (w *Worker) AppendGroup(g aggregator.Group, source string) error {
	return w.submit(Request{
		Op:      OpAppendGroup,
		Payload: AppendGroupPayload{Group: g, Source: source},
		Result:  make(chan error, 1),
	})
}

func (w *Worker) DeleteSession(id string) error {
	return w.submit(Request{
		Op:      OpDeleteSession,
		Payload: DeleteSessionPayload{SessionID: id},
		Result:  make(chan error, 1),
	})
}
