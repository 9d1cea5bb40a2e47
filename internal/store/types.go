package store

import (
	"time"

	"github.com/AoWangg/chat-json/internal/aggregator"
)

// --- Session Index (index.json) ---

type SessionMeta struct {
	ID        string            `json:"id" yaml:"id"`
	Source    string            `json:"source" yaml:"source"`
	Groups    int               `json:"groups" yaml:"groups"`
	CreatedAt time.Time         `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time         `json:"updated_at" yaml:"updated_at"`
	Metadata  map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

type SessionIndex struct {
	Sessions map[string]SessionMeta `json:"sessions" yaml:"sessions"`
}

// --- Group log (<session_id>.jsonl) ---

type GroupRecord struct {
	ID        string           `json:"id" yaml:"id"` // ULID
	Timestamp time.Time        `json:"ts" yaml:"ts"`
	Group     aggregator.Group `json:"group" yaml:"group"`
}
