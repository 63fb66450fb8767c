// Package journal keeps the bounded, newest-first buffer of human-readable
// events and the time-windowed dedup cache that gates the noisy agent
// reasoning stream.
package journal

// Telemetry captures the metrics adapter used by the journal to report
// evictions and history merges.
type Telemetry interface {
	Add(key string, delta uint64)
}

const (
	metricJournalEvicted     = "journal_evicted"
	metricJournalHistoryAdds = "journal_history_added"
)

// Journal is an insertion-ordered, capacity-limited event buffer. Entries are
// stored newest-first; every insert truncates past the cap so the oldest
// entries fall off. The journal is mutated only from the engine goroutine;
// readers receive copies.
type Journal struct {
	entries   []Entry
	cap       int
	known     map[string]struct{}
	telemetry Telemetry
}

// NewJournal constructs a journal holding at most cap entries. Caps below 1
// fall back to 1 so the newest entry always survives.
func NewJournal(cap int) *Journal {
	if cap < 1 {
		cap = 1
	}
	return &Journal{
		entries: make([]Entry, 0, cap),
		cap:     cap,
		known:   make(map[string]struct{}, cap),
	}
}

// AttachTelemetry wires the metrics adapter. Safe to leave nil.
func (j *Journal) AttachTelemetry(t Telemetry) {
	j.telemetry = t
}

// Prepend inserts an entry at the head and drops everything beyond the cap.
// Eviction happens on every insert, never batched.
func (j *Journal) Prepend(entry Entry) {
	j.entries = append(j.entries, Entry{})
	copy(j.entries[1:], j.entries)
	j.entries[0] = entry
	if entry.ID != "" {
		j.known[entry.ID] = struct{}{}
	}
	j.truncate()
}

// MergeHistory folds a replayed log_history batch into the journal. Entries
// already present by id are skipped; new ones are prepended in their original
// order, then the buffer is re-truncated. Replaying the same history twice is
// a no-op, which is what makes reconnection idempotent.
func (j *Journal) MergeHistory(history []Entry) int {
	fresh := make([]Entry, 0, len(history))
	seen := make(map[string]struct{}, len(history))
	for _, entry := range history {
		if entry.ID != "" {
			if _, ok := j.known[entry.ID]; ok {
				continue
			}
			if _, ok := seen[entry.ID]; ok {
				continue
			}
			seen[entry.ID] = struct{}{}
		}
		fresh = append(fresh, entry)
	}
	if len(fresh) == 0 {
		return 0
	}

	merged := make([]Entry, 0, len(fresh)+len(j.entries))
	merged = append(merged, fresh...)
	merged = append(merged, j.entries...)
	j.entries = merged
	for _, entry := range fresh {
		if entry.ID != "" {
			j.known[entry.ID] = struct{}{}
		}
	}
	j.truncate()
	if j.telemetry != nil {
		j.telemetry.Add(metricJournalHistoryAdds, uint64(len(fresh)))
	}
	return len(fresh)
}

// Entries returns a copy of the buffer, newest first.
func (j *Journal) Entries() []Entry {
	if len(j.entries) == 0 {
		return nil
	}
	copied := make([]Entry, len(j.entries))
	copy(copied, j.entries)
	return copied
}

// Len reports the current entry count.
func (j *Journal) Len() int {
	return len(j.entries)
}

// Cap reports the configured capacity.
func (j *Journal) Cap() int {
	return j.cap
}

func (j *Journal) truncate() {
	if len(j.entries) <= j.cap {
		return
	}
	evicted := len(j.entries) - j.cap
	for _, entry := range j.entries[j.cap:] {
		if entry.ID != "" {
			delete(j.known, entry.ID)
		}
	}
	j.entries = j.entries[:j.cap]
	if j.telemetry != nil {
		j.telemetry.Add(metricJournalEvicted, uint64(evicted))
	}
}
