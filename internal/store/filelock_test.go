package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	chaterrors "github.com/AoWangg/chat-json/internal/errors"
)

func shortLockConfig(timeout time.Duration) *FileLockConfig {
	retry := 10 * time.Millisecond
	maxRetry := int(timeout / retry)
	if maxRetry < 1 {
		maxRetry = 1
	}
	return &FileLockConfig{
		LockTimeout:  timeout,
		LockRetry:    retry,
		LockMaxRetry: maxRetry,
	}
}

func TestNewFileLock(t *testing.T) {
	lock, err := NewFileLock(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("Failed to acquire lock: %v", err)
	}

	if !lock.IsLocked() {
		t.Error("Expected lock to be held")
	}

	lock.Unlock()

	if lock.IsLocked() {
		t.Error("Expected lock to be released after Unlock()")
	}

	// Second unlock is a no-op.
	lock.Unlock()
}

func TestFileLockConcurrentAcquire(t *testing.T) {
	dir := t.TempDir()
	cfg := shortLockConfig(100 * time.Millisecond)

	lock1, err := NewFileLock(dir, cfg)
	if err != nil {
		t.Fatalf("Failed to acquire first lock: %v", err)
	}
	defer lock1.Unlock()

	_, err = NewFileLock(dir, cfg)
	if err == nil {
		t.Fatal("Expected second lock acquisition to fail")
	}
	if !chaterrors.IsCategory(err, chaterrors.ErrConflict) {
		t.Errorf("Expected ErrConflict, got %v", err)
	}
}

func TestFileLockReacquireAfterUnlock(t *testing.T) {
	dir := t.TempDir()
	cfg := shortLockConfig(100 * time.Millisecond)

	lock1, err := NewFileLock(dir, cfg)
	if err != nil {
		t.Fatalf("Failed to acquire first lock: %v", err)
	}
	lock1.Unlock()

	lock2, err := NewFileLock(dir, cfg)
	if err != nil {
		t.Fatalf("Failed to reacquire lock: %v", err)
	}
	lock2.Unlock()
}

func TestCleanupStaleLock(t *testing.T) {
	dir := t.TempDir()
	lockPath := filepath.Join(dir, lockFileName)
	if err := os.WriteFile(lockPath, nil, 0644); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(lockPath, old, old); err != nil {
		t.Fatal(err)
	}

	removed, err := CleanupStaleLock(dir, time.Hour, false)
	if err != nil || removed {
		t.Fatalf("Expected stale lock to be reported only, removed=%v err=%v", removed, err)
	}

	removed, err = CleanupStaleLock(dir, time.Hour, true)
	if err != nil || !removed {
		t.Fatalf("Expected stale lock removal, removed=%v err=%v", removed, err)
	}
	if _, err := os.Stat(lockPath); !os.IsNotExist(err) {
		t.Errorf("Expected lock file to be gone, got %v", err)
	}

	removed, err = CleanupStaleLock(dir, time.Hour, true)
	if err != nil || removed {
		t.Fatalf("Expected missing lock to be a no-op, removed=%v err=%v", removed, err)
	}
}
