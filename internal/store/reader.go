package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"

	chaterrors "github.com/AoWangg/chat-json/internal/errors"
)

const maxRecordBytes = 16 * 1024 * 1024

// Reads go straight to disk without the archive lock: the index is replaced
// atomically and session logs are append-only.

func loadIndex(root string) (*SessionIndex, error) {
	idx := &SessionIndex{Sessions: make(map[string]SessionMeta)}
	data, err := os.ReadFile(indexPath(root))
	if err != nil {
		if os.IsNotExist(err) {
			return idx, nil
		}
		return idx, err
	}
	if err := json.Unmarshal(data, idx); err != nil {
		return idx, err
	}
	if idx.Sessions == nil {
		idx.Sessions = make(map[string]SessionMeta)
	}
	return idx, nil
}

// ListSessions returns the indexed sessions, most recently updated first.
func ListSessions(root string) ([]SessionMeta, error) {
	root, err := ResolveRoot(root)
	if err != nil {
		return nil, err
	}
	idx, err := loadIndex(root)
	if err != nil {
		return nil, chaterrors.InvalidInputf("read archive index: %v", err)
	}

	sessions := make([]SessionMeta, 0, len(idx.Sessions))
	for _, meta := range idx.Sessions {
		sessions = append(sessions, meta)
	}
	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].UpdatedAt.Equal(sessions[j].UpdatedAt) {
			return sessions[i].ID > sessions[j].ID
		}
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
	return sessions, nil
}

// ReadGroups returns the archived groups of one session in append order.
// Lines that fail to decode are skipped.
func ReadGroups(root, sessionID string) ([]GroupRecord, error) {
	root, err := ResolveRoot(root)
	if err != nil {
		return nil, err
	}
	path, err := sessionLogPath(root, sessionID)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, chaterrors.NotFound("archived session " + sessionID)
		}
		return nil, err
	}
	defer f.Close()

	var records []GroupRecord
	s := bufio.NewScanner(f)
	s.Buffer(make([]byte, 0, 64*1024), maxRecordBytes)
	line := 0
	for s.Scan() {
		line++
		if len(s.Bytes()) == 0 {
			continue
		}
		var rec GroupRecord
		if err := json.Unmarshal(s.Bytes(), &rec); err != nil {
			slog.Warn("Skipping unreadable archive record", "component", "archive", "session", sessionID, "line", line, "error", err)
			continue
		}
		records = append(records, rec)
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return records, nil
}
