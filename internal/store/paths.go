package store

import (
	"path/filepath"
	"strings"

	"github.com/AoWangg/chat-json/internal/config"
	chaterrors "github.com/AoWangg/chat-json/internal/errors"
)

// ResolveRoot resolves the configured archive directory, falling back to
// ~/.chatjson/archive.
func ResolveRoot(path string) (string, error) {
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		return config.ExpandPath(trimmed)
	}

	dir, err := config.HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "archive"), nil
}

func indexPath(root string) string {
	return filepath.Join(root, "index.json")
}

// sessionLogPath rejects ids that would escape the archive directory.
func sessionLogPath(root, sessionID string) (string, error) {
	id := strings.TrimSpace(sessionID)
	if id == "" || id != filepath.Base(id) || id == "." || id == ".." {
		return "", chaterrors.InvalidInputf("invalid session id %q", sessionID)
	}
	return filepath.Join(root, id+".jsonl"), nil
}
