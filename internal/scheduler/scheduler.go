// Package scheduler decouples per-message ingestion rate from consumer
// refresh rate.
package scheduler

import (
	"sync"
	"time"

	"github.com/vesselwatch/tracker/internal/config"
)

// MapPacer decides when the map layer should refresh. The first burst of
// admissions after a (re)connect refreshes immediately so the map fills
// fast; after that only every n-th admission refreshes, except updates for
// tracked vessels which always refresh.
type MapPacer struct {
	mu          sync.Mutex
	burstSize   int
	sampleEvery int
	admissions  int
}

// NewMapPacer creates a pacer from scheduler configuration.
func NewMapPacer(cfg config.SchedulerConfig) *MapPacer {
	return &MapPacer{
		burstSize:   cfg.MapBurstSize,
		sampleEvery: cfg.MapSampleEvery,
	}
}

// OnAdmission records one cache admission and reports whether the map
// should refresh now.
func (p *MapPacer) OnAdmission(tracked bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.admissions++
	if tracked {
		return true
	}
	if p.admissions <= p.burstSize {
		return true
	}
	return p.admissions%p.sampleEvery == 0
}

// Reset restarts the burst window. Called on every stream (re)connect.
func (p *MapPacer) Reset() {
	p.mu.Lock()
	p.admissions = 0
	p.mu.Unlock()
}

// Admissions returns the count since the last reset.
func (p *MapPacer) Admissions() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.admissions
}

// SidebarThrottle limits sidebar list refreshes to one per window. A forced
// refresh (after user actions: track, untrack, filter toggle, search)
// bypasses and restarts the window.
type SidebarThrottle struct {
	mu     sync.Mutex
	window time.Duration
	last   time.Time
	now    func() time.Time
}

// NewSidebarThrottle creates a throttle from scheduler configuration.
func NewSidebarThrottle(cfg config.SchedulerConfig) *SidebarThrottle {
	return &SidebarThrottle{
		window: cfg.SidebarWindow,
		now:    time.Now,
	}
}

// ShouldRefresh reports whether a sidebar refresh may run now and, when it
// may, consumes the window.
func (t *SidebarThrottle) ShouldRefresh(force bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if !force && now.Sub(t.last) < t.window {
		return false
	}
	t.last = now
	return true
}

// Debouncer coalesces rapid triggers into a single callback after a quiet
// period. There is exactly one outstanding timer: every Trigger resets it,
// so duplicate timers can never fire concurrently.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
}

// NewDebouncer creates a debouncer with the given quiet period.
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Trigger schedules fn to run after the quiet period, cancelling any
// previously scheduled run.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, fn)
}

// Stop cancels any pending run.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
