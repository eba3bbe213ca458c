// Package cache implements the viewport-bounded live vessel cache.
package cache

import (
	"sync"

	"github.com/vesselwatch/tracker/pkg/core"
)

// LiveCache holds transient vessel records sourced from the stream and from
// bounding-box queries, keyed by canonical MMSI. Entries outside the current
// viewport are evicted unless their MMSI is tracked.
//
// Mutation flows through the single-writer event loop; the mutex protects
// concurrent readers (monitor, metrics callbacks).
type LiveCache struct {
	mu      sync.Mutex
	vessels map[string]core.VesselRecord

	// When false, Admit never rejects on bounds (used before the first
	// viewport is known).
	boundsFiltering bool
}

// NewLiveCache creates an empty cache with bounds filtering enabled.
func NewLiveCache() *LiveCache {
	return &LiveCache{
		vessels:         make(map[string]core.VesselRecord),
		boundsFiltering: true,
	}
}

// SetBoundsFiltering toggles viewport admission filtering.
func (c *LiveCache) SetBoundsFiltering(enabled bool) {
	c.mu.Lock()
	c.boundsFiltering = enabled
	c.mu.Unlock()
}

// Admit inserts or overwrites the record keyed by MMSI. When bounds
// filtering is on, bounds are known, and the MMSI is not tracked, records
// positioned outside the bounds are rejected. Returns true if the record
// entered the cache.
func (c *LiveCache) Admit(rec core.VesselRecord, bounds core.ViewportBounds, trackedIDs map[string]bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.boundsFiltering && !bounds.IsZero() && !trackedIDs[rec.MMSI] {
		if !bounds.Contains(rec.Latitude, rec.Longitude) {
			return false
		}
	}

	c.vessels[rec.MMSI] = rec
	return true
}

// EvictOutside removes every entry whose position lies outside the bounds
// and whose MMSI is not tracked. It returns the number of entries removed
// so the caller can decide whether a fusion recompute is needed.
func (c *LiveCache) EvictOutside(bounds core.ViewportBounds, trackedIDs map[string]bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for mmsi, rec := range c.vessels {
		if trackedIDs[mmsi] {
			continue
		}
		if !bounds.Contains(rec.Latitude, rec.Longitude) {
			delete(c.vessels, mmsi)
			removed++
		}
	}
	return removed
}

// Get returns the record for the given canonical MMSI.
func (c *LiveCache) Get(mmsi string) (core.VesselRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.vessels[mmsi]
	return rec, ok
}

// All returns a snapshot of every cached record.
func (c *LiveCache) All() []core.VesselRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]core.VesselRecord, 0, len(c.vessels))
	for _, rec := range c.vessels {
		out = append(out, rec)
	}
	return out
}

// Len returns the number of cached records.
func (c *LiveCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.vessels)
}

// Reset removes all entries.
func (c *LiveCache) Reset() {
	c.mu.Lock()
	c.vessels = make(map[string]core.VesselRecord)
	c.mu.Unlock()
}

// SafeCounter is a thread-safe counter used for engine statistics.
type SafeCounter struct {
	mu sync.Mutex
	v  int
}

// Inc increments the counter.
func (c *SafeCounter) Inc() {
	c.mu.Lock()
	c.v++
	c.mu.Unlock()
}

// Set sets the counter to a specific value.
func (c *SafeCounter) Set(v int) {
	c.mu.Lock()
	c.v = v
	c.mu.Unlock()
}

// Value returns the current value.
func (c *SafeCounter) Value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v
}
