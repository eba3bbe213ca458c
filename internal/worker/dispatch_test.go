package worker

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vesselwatch/tracker/internal/config"
	"github.com/vesselwatch/tracker/internal/dispatcher"
	"github.com/vesselwatch/tracker/internal/logging"
	"github.com/vesselwatch/tracker/internal/notify"
	"github.com/vesselwatch/tracker/internal/parser"
	"github.com/vesselwatch/tracker/internal/scheduler"
	"github.com/vesselwatch/tracker/internal/search"
	"github.com/vesselwatch/tracker/internal/storage/memory"
	"github.com/vesselwatch/tracker/internal/store"
	"github.com/vesselwatch/tracker/internal/viewport"
	"github.com/vesselwatch/tracker/pkg/core"
)

type stubRenderer struct {
	mu           sync.Mutex
	mapCalls     int
	sidebarCalls int
	lastMap      []core.VesselRecord
}

func (r *stubRenderer) RefreshMap(records []core.VesselRecord) {
	r.mu.Lock()
	r.mapCalls++
	r.lastMap = records
	r.mu.Unlock()
}

func (r *stubRenderer) RefreshSidebar(records []core.VesselRecord) {
	r.mu.Lock()
	r.sidebarCalls++
	r.mu.Unlock()
}

func (r *stubRenderer) snapshot() (int, int, []core.VesselRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mapCalls, r.sidebarCalls, r.lastMap
}

type fixture struct {
	manager      *Manager
	store        *store.VesselStore
	renderer     *stubRenderer
	backend      *memory.Store
	notifier     *notify.Service
	liveHits     int
	fleetChanges int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logManager := logging.NewSlogManager()
	s := store.New()
	p := parser.NewService()
	notifier := notify.NewService(logManager.Logger())
	backend := memory.New()
	renderer := &stubRenderer{}

	schedCfg := config.SchedulerConfig{
		MapBurstSize:      20,
		MapSampleEvery:    10,
		SidebarWindow:     0, // every refresh passes in tests
		ViewportDebounce:  10 * time.Millisecond,
		SpanChangeMinimum: 0.2,
	}

	f := &fixture{store: s, renderer: renderer, backend: backend, notifier: notifier}

	deps := Dependencies{
		Store:      s,
		Parser:     p,
		MapPacer:   scheduler.NewMapPacer(schedCfg),
		Sidebar:    scheduler.NewSidebarThrottle(schedCfg),
		Search:     search.New(s, nil, notifier, logManager.Logger()),
		LogManager: logManager,
		Notifier:   notifier,
		Renderer:   renderer,
		ConnectLive: func() {
			f.liveHits++
		},
		OnFleetChanged: func() {
			f.fleetChanges++
		},
	}
	deps.Viewport = viewport.New(schedCfg, logManager.Logger(), func(b core.ViewportBounds) {})

	f.manager = NewManager(deps, backend)
	return f
}

func event(payload string) dispatcher.Event {
	return dispatcher.Event{Args: []string{payload}}
}

func TestHandleVesselUpdateAdmitsAndRefreshes(t *testing.T) {
	f := newFixture(t)

	_, err := f.manager.handleVesselUpdate(event(`{"mmsi": "111222333", "latitude": 41.0, "longitude": 28.9, "speed": 12}`))
	require.NoError(t, err)

	_, ok := f.store.Cache().Get("111222333")
	assert.True(t, ok)

	mapCalls, sidebarCalls, _ := f.renderer.snapshot()
	assert.Equal(t, 1, mapCalls)
	assert.Equal(t, 1, sidebarCalls)
}

func TestHandleVesselUpdateDropsMalformed(t *testing.T) {
	f := newFixture(t)

	// Malformed payloads are logged and dropped, never an error.
	_, err := f.manager.handleVesselUpdate(event(`{broken`))
	assert.NoError(t, err)

	_, err = f.manager.handleVesselUpdate(event(`{"latitude": 41.0, "longitude": 28.9}`))
	assert.NoError(t, err)

	assert.Equal(t, 0, f.store.Cache().Len())
	mapCalls, _, _ := f.renderer.snapshot()
	assert.Equal(t, 0, mapCalls)
}

func TestHandleStaticDataFeedsEnrichment(t *testing.T) {
	f := newFixture(t)

	_, err := f.manager.handleStaticData(event(`{"mmsi": "1", "name": "EVER GIVEN", "ship_type": "Container Ship"}`))
	require.NoError(t, err)

	_, err = f.manager.handleVesselUpdate(event(`{"mmsi": "1", "latitude": 41.0, "longitude": 28.9}`))
	require.NoError(t, err)

	rec, ok := f.store.Cache().Get("1")
	require.True(t, ok)
	assert.Equal(t, "EVER GIVEN", rec.Name)
}

func TestHandleTrackAddFromCache(t *testing.T) {
	f := newFixture(t)

	_, err := f.manager.handleVesselUpdate(event(`{"mmsi": "111222333", "name": "EVER GIVEN", "latitude": 41.0, "longitude": 28.9}`))
	require.NoError(t, err)

	result, err := f.manager.handleTrackAdd(event("111222333"))
	require.NoError(t, err)

	tracked, ok := result.(core.TrackedVesselRecord)
	require.True(t, ok)
	assert.NotZero(t, tracked.ID, "local storage assigns an ID when no backend is configured")
	assert.True(t, f.store.IsTracked("111222333"))

	// Mirrored into local storage.
	list, err := f.backend.ListTrackedVessels()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "111222333", list[0].MMSI)
}

func TestHandleTrackAddRejectsUnknownAndDuplicate(t *testing.T) {
	f := newFixture(t)

	_, err := f.manager.handleTrackAdd(event("999999999"))
	assert.Error(t, err, "unknown vessel cannot be tracked")

	_, err = f.manager.handleVesselUpdate(event(`{"mmsi": "1", "latitude": 41.0, "longitude": 28.9}`))
	require.NoError(t, err)

	_, err = f.manager.handleTrackAdd(event("1"))
	require.NoError(t, err)

	_, err = f.manager.handleTrackAdd(event("1"))
	assert.Error(t, err, "double tracking is rejected")
}

func TestHandleTrackRemove(t *testing.T) {
	f := newFixture(t)

	_, err := f.manager.handleVesselUpdate(event(`{"mmsi": "1", "latitude": 41.0, "longitude": 28.9}`))
	require.NoError(t, err)
	_, err = f.manager.handleTrackAdd(event("1"))
	require.NoError(t, err)

	_, err = f.manager.handleTrackRemove(event("1"))
	require.NoError(t, err)

	assert.False(t, f.store.IsTracked("1"))
	list, err := f.backend.ListTrackedVessels()
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = f.manager.handleTrackRemove(event("1"))
	assert.Error(t, err, "removing an untracked vessel is rejected")
}

func TestTrackMutationsRefreshSubscription(t *testing.T) {
	f := newFixture(t)

	_, err := f.manager.handleVesselUpdate(event(`{"mmsi": "1", "latitude": 41.0, "longitude": 28.9}`))
	require.NoError(t, err)
	assert.Equal(t, 0, f.fleetChanges)

	_, err = f.manager.handleTrackAdd(event("1"))
	require.NoError(t, err)
	assert.Equal(t, 1, f.fleetChanges)

	_, err = f.manager.handleTrackRemove(event("1"))
	require.NoError(t, err)
	assert.Equal(t, 2, f.fleetChanges)

	// Rejected mutations leave the subscription alone.
	_, err = f.manager.handleTrackRemove(event("1"))
	require.Error(t, err)
	assert.Equal(t, 2, f.fleetChanges)
}

func TestOnViewportAppliedRefreshesOnlyOnEviction(t *testing.T) {
	f := newFixture(t)

	_, err := f.manager.handleVesselUpdate(event(`{"mmsi": "1", "latitude": 41.0, "longitude": 28.9}`))
	require.NoError(t, err)
	mapCalls, _, _ := f.renderer.snapshot()
	require.Equal(t, 1, mapCalls)

	// The vessel stays in view: nothing left the cache, nothing to redraw.
	f.manager.OnViewportApplied(core.ViewportBounds{MinLat: 40, MinLon: 27, MaxLat: 42, MaxLon: 30})
	mapCalls, _, _ = f.renderer.snapshot()
	assert.Equal(t, 1, mapCalls)

	// Panning away evicts and redraws.
	f.manager.OnViewportApplied(core.ViewportBounds{MinLat: 10, MinLon: 10, MaxLat: 12, MaxLon: 12})
	mapCalls, _, _ = f.renderer.snapshot()
	assert.Equal(t, 2, mapCalls)
	assert.Equal(t, 0, f.store.Cache().Len())
}

func TestLiveTransportErrorNotifiesOnlyInAllVesselsMode(t *testing.T) {
	f := newFixture(t)

	require.True(t, f.store.SetMode(core.ModeTrackedOnly))
	f.manager.OnLiveTransportError(errors.New("socket closed"))
	assert.Empty(t, f.notifier.Drain(), "tracked-only mode suppresses live feed noise")

	require.True(t, f.store.SetMode(core.ModeAllVessels))
	f.manager.OnLiveTransportError(errors.New("socket closed"))
	notices := f.notifier.Drain()
	require.Len(t, notices, 1)
	assert.Equal(t, notify.SeverityWarning, notices[0].Severity)
}

func TestHandleFilterSet(t *testing.T) {
	f := newFixture(t)

	_, err := f.manager.handleVesselUpdate(event(`{"mmsi": "1", "latitude": 41.0, "longitude": 28.9, "ship_type": "Crude Oil Tanker", "speed": 10}`))
	require.NoError(t, err)
	_, err = f.manager.handleVesselUpdate(event(`{"mmsi": "2", "latitude": 41.1, "longitude": 28.8, "ship_type": "Bulk Carrier", "speed": 10}`))
	require.NoError(t, err)

	_, err = f.manager.handleFilterSet(event(`{"types": {"tanker": true}}`))
	require.NoError(t, err)

	_, _, lastMap := f.renderer.snapshot()
	require.Len(t, lastMap, 1)
	assert.Equal(t, "1", lastMap[0].MMSI)

	_, err = f.manager.handleFilterSet(event(`{bad json`))
	assert.Error(t, err)
}

func TestHandleModeSet(t *testing.T) {
	f := newFixture(t)

	_, err := f.manager.handleModeSet(event("tracked_only"))
	require.NoError(t, err)
	assert.Equal(t, core.ModeTrackedOnly, f.store.Mode())
	assert.Equal(t, 0, f.liveHits)

	// Switching back to all-vessels revives the live feed.
	_, err = f.manager.handleModeSet(event("all_vessels"))
	require.NoError(t, err)
	assert.Equal(t, 1, f.liveHits)

	// No-op change does not reconnect again.
	_, err = f.manager.handleModeSet(event("all_vessels"))
	require.NoError(t, err)
	assert.Equal(t, 1, f.liveHits)

	_, err = f.manager.handleModeSet(event("sideways"))
	assert.Error(t, err)
}

func TestHandleViewportSet(t *testing.T) {
	f := newFixture(t)

	_, err := f.manager.handleViewportSet(event(`{"min_lat": 40, "min_lon": 27, "max_lat": 42, "max_lon": 30}`))
	require.NoError(t, err)

	// Admission sees the new bounds immediately, before the debounce fires.
	assert.False(t, f.store.Bounds().IsZero())

	_, err = f.manager.handleViewportSet(event(`{"min_lat": 45, "min_lon": 27, "max_lat": 40, "max_lon": 30}`))
	assert.Error(t, err, "inverted bounds rejected before any mutation")
}

func TestHandleSearchFind(t *testing.T) {
	f := newFixture(t)

	_, err := f.manager.handleVesselUpdate(event(`{"mmsi": "1", "name": "EVER GIVEN", "latitude": 41.0, "longitude": 28.9}`))
	require.NoError(t, err)

	result, err := f.manager.handleSearchFind(event("ever"))
	require.NoError(t, err)
	rec, ok := result.(core.VesselRecord)
	require.True(t, ok)
	assert.Equal(t, "1", rec.MMSI)

	result, err = f.manager.handleSearchFind(event("nothing"))
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestHandleNotes(t *testing.T) {
	f := newFixture(t)

	_, err := f.manager.handleNoteAdd(event(`{"mmsi": "111222333", "date": "2026-08-20", "text": "loitering off anchorage"}`))
	require.NoError(t, err)

	result, err := f.manager.handleNotesList(event("111222333"))
	require.NoError(t, err)

	notes, ok := result.([]core.Note)
	require.True(t, ok)
	require.Len(t, notes, 1)
	assert.Equal(t, "loitering off anchorage", notes[0].Text)

	_, err = f.manager.handleNoteAdd(event(`{"mmsi": "not-a-number"}`))
	assert.Error(t, err)
}

type quietLogger struct{}

func (quietLogger) Debug(msg string, keysAndValues ...any) {}
func (quietLogger) Info(msg string, keysAndValues ...any)  {}
func (quietLogger) Error(msg string, keysAndValues ...any) {}

func TestRegisterHandlersDispatchEndToEnd(t *testing.T) {
	f := newFixture(t)

	d, err := dispatcher.New(quietLogger{})
	require.NoError(t, err)
	f.manager.RegisterHandlers(d)

	res, err := d.Dispatch(dispatcher.Event{
		Command:   ":VESSEL:UPDATE:",
		Args:      []string{`{"mmsi": "1", "latitude": 41.0, "longitude": 28.9}`},
		Timestamp: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, "queued", res)

	// Buffered commands are consumed asynchronously.
	assert.Eventually(t, func() bool {
		return f.store.Cache().Len() == 1
	}, time.Second, 10*time.Millisecond)
}
