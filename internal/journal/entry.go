package journal

import "encoding/json"

// Entry is one immutable human-readable event in the journal. Identity is the
// ID: history replay merges by it, so a replayed frame never duplicates an
// entry.
type Entry struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Source      string          `json:"source"`
	Description string          `json:"description"`
	Timestamp   int64           `json:"timestamp"`
	Data        json.RawMessage `json:"data,omitempty"`
}
