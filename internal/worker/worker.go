package worker

import (
	"fmt"
	"sync"

	"github.com/vesselwatch/tracker/internal/api"
	"github.com/vesselwatch/tracker/internal/cache"
	"github.com/vesselwatch/tracker/internal/filter"
	"github.com/vesselwatch/tracker/internal/logging"
	"github.com/vesselwatch/tracker/internal/notify"
	"github.com/vesselwatch/tracker/internal/parser"
	"github.com/vesselwatch/tracker/internal/scheduler"
	"github.com/vesselwatch/tracker/internal/search"
	"github.com/vesselwatch/tracker/internal/storage"
	"github.com/vesselwatch/tracker/internal/store"
	"github.com/vesselwatch/tracker/internal/viewport"
	"github.com/vesselwatch/tracker/pkg/core"
)

// Renderer is the display surface the engine pushes refreshes to. Injected
// so the engine never knows what draws the map.
type Renderer interface {
	RefreshMap(records []core.VesselRecord)
	RefreshSidebar(records []core.VesselRecord)
}

// Dependencies holds all dependencies for the worker manager.
type Dependencies struct {
	Store      *store.VesselStore
	Parser     *parser.Service
	MapPacer   *scheduler.MapPacer
	Sidebar    *scheduler.SidebarThrottle
	Viewport   *viewport.Tracker
	Search     *search.Service
	API        *api.Client
	LogManager *logging.SlogManager
	Notifier   notify.Notifier
	Renderer   Renderer

	// ConnectLive re-establishes the live feed; invoked when the display
	// mode switches back to all-vessels.
	ConnectLive func()

	// OnFleetChanged fires after a track or untrack mutates the fleet so
	// the subscription channel can narrow its server-side MMSI filter.
	OnFleetChanged func()
}

// Manager owns the event handlers and the current filter state.
type Manager struct {
	deps    Dependencies
	backend storage.Backend

	mu      sync.Mutex
	filters core.FilterState

	// stream throughput counters, read by the status monitor
	received cache.SafeCounter
	admitted cache.SafeCounter
	dropped  cache.SafeCounter
}

// NewManager creates a new worker manager.
func NewManager(deps Dependencies, backend storage.Backend) *Manager {
	return &Manager{
		deps:    deps,
		backend: backend,
		filters: core.NewFilterState(),
	}
}

// StreamStats returns the cumulative update counts: messages received,
// admitted into a set, and dropped as malformed.
func (m *Manager) StreamStats() (received, admitted, dropped int) {
	return m.received.Value(), m.admitted.Value(), m.dropped.Value()
}

// Filters returns a copy of the current filter state.
func (m *Manager) Filters() core.FilterState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filters.Clone()
}

func (m *Manager) setFilters(state core.FilterState) {
	m.mu.Lock()
	m.filters = state
	m.mu.Unlock()
}

// refreshMap pushes the filtered display set to the map layer.
func (m *Manager) refreshMap() {
	if m.deps.Renderer == nil {
		return
	}
	visible := filter.Apply(m.deps.Store.DisplaySet(), m.Filters())
	m.deps.Renderer.RefreshMap(visible)
}

// refreshSidebar pushes the filtered display set to the sidebar, subject to
// the refresh window unless forced.
func (m *Manager) refreshSidebar(force bool) {
	if m.deps.Renderer == nil {
		return
	}
	if !m.deps.Sidebar.ShouldRefresh(force) {
		return
	}
	visible := filter.Apply(m.deps.Store.DisplaySet(), m.Filters())
	m.deps.Renderer.RefreshSidebar(visible)
}

// OnViewportApplied runs after the viewport tracker accepts a bound change:
// out-of-view cache entries are evicted and the display recomputed. When
// nothing was evicted the visible set is unchanged and no refresh is pushed.
func (m *Manager) OnViewportApplied(bounds core.ViewportBounds) {
	removed := m.deps.Store.EvictOutside(bounds)
	m.deps.LogManager.Logger().Debug("Viewport applied",
		"evicted", removed,
		"cacheSize", m.deps.Store.Cache().Len())

	if removed == 0 {
		return
	}
	m.refreshMap()
	m.refreshSidebar(false)
}

// OnLiveTransportError surfaces a live feed interruption to the user, but
// only while the all-vessels display actually consumes the feed; in
// tracked-only mode the drop is logged and stays silent.
func (m *Manager) OnLiveTransportError(err error) {
	if m.deps.Store.Mode() != core.ModeAllVessels {
		m.deps.LogManager.Logger().Debug("Live feed error suppressed in tracked-only mode", "error", err)
		return
	}
	m.notifyWarn(fmt.Sprintf("Live feed interrupted: %v", err))
}

func (m *Manager) fleetChanged() {
	if m.deps.OnFleetChanged != nil {
		m.deps.OnFleetChanged()
	}
}

// LoadTrackedFleet pulls the persisted fleet into the store, preferring the
// backend API and falling back to local storage.
func (m *Manager) LoadTrackedFleet() error {
	logger := m.deps.LogManager.Logger()

	if m.deps.API != nil {
		tracked, err := m.deps.API.FetchTracked()
		if err == nil {
			m.deps.Store.SetTracked(tracked)
			logger.Info("Loaded tracked fleet from backend", "count", len(tracked))
			return nil
		}
		logger.Warn("Backend fleet fetch failed, using local storage", "error", err)
	}

	if m.backend == nil {
		return nil
	}
	tracked, err := m.backend.ListTrackedVessels()
	if err != nil {
		return err
	}
	m.deps.Store.SetTracked(tracked)
	logger.Info("Loaded tracked fleet from local storage", "count", len(tracked))
	return nil
}
