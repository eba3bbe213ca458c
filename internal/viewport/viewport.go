// Package viewport tracks the visible map bounds and gates how often bound
// changes propagate into eviction and recompute.
package viewport

import (
	"log/slog"
	"sync"

	"github.com/vesselwatch/tracker/internal/config"
	"github.com/vesselwatch/tracker/internal/geo"
	"github.com/vesselwatch/tracker/internal/scheduler"
	"github.com/vesselwatch/tracker/pkg/core"
)

// Tracker holds the current viewport bounds. Rapid changes are debounced,
// and changes whose visible span differs from the last applied span by less
// than the configured fraction are suppressed entirely; small pans and
// zooms should not churn the cache.
type Tracker struct {
	mu          sync.Mutex
	current     core.ViewportBounds
	lastApplied core.ViewportBounds

	debouncer     *scheduler.Debouncer
	minSpanChange float64

	onChange func(core.ViewportBounds)
	logger   *slog.Logger
}

// New creates a tracker that invokes onChange with debounced, significant
// bound changes.
func New(cfg config.SchedulerConfig, logger *slog.Logger, onChange func(core.ViewportBounds)) *Tracker {
	return &Tracker{
		debouncer:     scheduler.NewDebouncer(cfg.ViewportDebounce),
		minSpanChange: cfg.SpanChangeMinimum,
		onChange:      onChange,
		logger:        logger,
	}
}

// SetBounds records a new viewport rectangle. Invalid bounds are rejected
// before any state changes. The change callback fires only after the
// debounce period with no newer bounds arriving.
func (t *Tracker) SetBounds(b core.ViewportBounds) error {
	if err := b.Validate(); err != nil {
		return err
	}

	t.mu.Lock()
	t.current = b
	t.mu.Unlock()

	t.debouncer.Trigger(t.fire)
	return nil
}

// Current returns the most recently set bounds, applied or not.
func (t *Tracker) Current() core.ViewportBounds {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// fire applies the pending bounds unless the span change is insignificant.
func (t *Tracker) fire() {
	t.mu.Lock()
	pending := t.current
	last := t.lastApplied

	if !last.IsZero() && geo.SpanChangeFraction(last, pending) < t.minSpanChange {
		t.mu.Unlock()
		t.logger.Debug("Viewport change below span threshold, suppressing recompute")
		return
	}

	t.lastApplied = pending
	t.mu.Unlock()

	if t.onChange != nil {
		t.onChange(pending)
	}
}

// Stop cancels any pending debounced change.
func (t *Tracker) Stop() {
	t.debouncer.Stop()
}
