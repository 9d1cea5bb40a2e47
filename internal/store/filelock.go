package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/AoWangg/chat-json/internal/config"
	chaterrors "github.com/AoWangg/chat-json/internal/errors"

	"github.com/gofrs/flock"
)

const lockFileName = "archive.lock"

// FileLock keeps a single writer per archive directory.
type FileLock struct {
	fileLock   *flock.Flock
	lockPath   string
	acquiredAt time.Time
	mu         sync.RWMutex
	ctx        context.Context
	cancel     context.CancelFunc
}

type FileLockConfig struct {
	LockTimeout  time.Duration
	LockRetry    time.Duration
	LockMaxRetry int
}

func DefaultFileLockConfig() *FileLockConfig {
	lockTimeout, _ := config.DurationOrDefault(config.DefaultArchiveLockTimeout, config.DefaultArchiveLockTimeout)
	lockRetry, _ := config.DurationOrDefault(config.DefaultArchiveLockRetry, config.DefaultArchiveLockRetry)

	return &FileLockConfig{
		LockTimeout:  lockTimeout,
		LockRetry:    lockRetry,
		LockMaxRetry: config.DefaultArchiveLockMaxRetry,
	}
}

func NewFileLock(root string, cfg *FileLockConfig) (*FileLock, error) {
	if cfg == nil {
		cfg = DefaultFileLockConfig()
	}

	lockPath := filepath.Join(root, lockFileName)
	ctx, cancel := context.WithTimeout(context.Background(), cfg.LockTimeout)

	fl := &FileLock{
		fileLock: flock.New(lockPath),
		lockPath: lockPath,
		ctx:      ctx,
		cancel:   cancel,
	}

	if err := fl.acquireWithRetry(cfg); err != nil {
		cancel()
		return nil, err
	}

	fl.acquiredAt = time.Now()
	slog.Debug("Archive lock acquired", "component", "archive", "path", lockPath)
	return fl, nil
}

func (fl *FileLock) acquireWithRetry(cfg *FileLockConfig) error {
	for i := 0; i < cfg.LockMaxRetry; i++ {
		select {
		case <-fl.ctx.Done():
			return fmt.Errorf("lock acquisition cancelled: %w", fl.ctx.Err())
		default:
			locked, err := fl.fileLock.TryLock()
			if err != nil {
				return fmt.Errorf("failed to attempt lock: %w", err)
			}
			if locked {
				return nil
			}

			if i < cfg.LockMaxRetry-1 {
				time.Sleep(cfg.LockRetry)
			}
		}
	}

	return chaterrors.Conflict(fmt.Sprintf("archive %s is locked by another writer (timeout after %v)",
		filepath.Dir(fl.lockPath), cfg.LockTimeout))
}

func (fl *FileLock) Unlock() {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.fileLock == nil {
		return
	}

	if err := fl.fileLock.Unlock(); err != nil {
		slog.Error("Failed to release archive lock", "component", "archive", "path", fl.lockPath, "error", err)
	} else {
		slog.Debug("Archive lock released",
			"component", "archive",
			"held_duration_ms", time.Since(fl.acquiredAt).Milliseconds())
	}

	if fl.cancel != nil {
		fl.cancel()
	}
	fl.fileLock = nil
}

func (fl *FileLock) IsLocked() bool {
	fl.mu.RLock()
	defer fl.mu.RUnlock()
	return fl.fileLock != nil
}

// CleanupStaleLock removes a lock file older than maxAge when force is set.
func CleanupStaleLock(root string, maxAge time.Duration, force bool) (bool, error) {
	lockPath := filepath.Join(root, lockFileName)
	info, err := os.Stat(lockPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	age := time.Since(info.ModTime())
	if age <= maxAge {
		return false, nil
	}

	slog.Warn("Found stale archive lock", "component", "archive", "path", lockPath, "age", age)
	if !force {
		return false, nil
	}
	if err := os.Remove(lockPath); err != nil {
		return false, err
	}
	return true, nil
}
