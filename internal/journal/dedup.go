package journal

import (
	"time"

	"github.com/zeebo/blake3"
)

const metricDedupSuppressed = "dedup_suppressed"

// DedupCache suppresses re-emission of semantically identical reasoning
// events inside a short window. The upstream reasoning loop restates the same
// thought across ticks, so the cache keys on a content hash rather than an
// event id.
//
// Expiry is lazy: a hash simply stops matching once its last-seen time falls
// outside the window. Bounded memory comes from a soft cap enforced on
// insert, not from a background sweep. The cache is only touched from the
// engine goroutine and is deliberately unlocked.
type DedupCache struct {
	window    time.Duration
	softCap   int
	seen      map[[32]byte]time.Time
	clock     func() time.Time
	telemetry Telemetry
}

// NewDedupCache builds a cache with the given suppression window and soft
// entry cap. A nil clock defaults to time.Now.
func NewDedupCache(window time.Duration, softCap int, clock func() time.Time) *DedupCache {
	if clock == nil {
		clock = time.Now
	}
	if softCap < 1 {
		softCap = 1
	}
	return &DedupCache{
		window:  window,
		softCap: softCap,
		seen:    make(map[[32]byte]time.Time),
		clock:   clock,
	}
}

// AttachTelemetry wires the metrics adapter. Safe to leave nil.
func (c *DedupCache) AttachTelemetry(t Telemetry) {
	c.telemetry = t
}

// Observe reports whether an event with the given kind and text should be
// emitted. A duplicate inside the window is suppressed without refreshing its
// last-seen time, so a steady stream of restatements surfaces once per
// window rather than never.
func (c *DedupCache) Observe(kind, text string) bool {
	hash := contentHash(kind, text)
	now := c.clock()
	if last, ok := c.seen[hash]; ok && now.Sub(last) < c.window {
		if c.telemetry != nil {
			c.telemetry.Add(metricDedupSuppressed, 1)
		}
		return false
	}
	if _, ok := c.seen[hash]; !ok && len(c.seen) >= c.softCap {
		c.evictOldest()
	}
	c.seen[hash] = now
	return true
}

// Len reports the live hash count, for diagnostics.
func (c *DedupCache) Len() int {
	return len(c.seen)
}

func (c *DedupCache) evictOldest() {
	var (
		oldestKey  [32]byte
		oldestTime time.Time
		found      bool
	)
	for key, seen := range c.seen {
		if !found || seen.Before(oldestTime) {
			oldestKey, oldestTime, found = key, seen, true
		}
	}
	if found {
		delete(c.seen, oldestKey)
	}
}

func contentHash(kind, text string) [32]byte {
	return blake3.Sum256([]byte(kind + "\n" + text))
}
