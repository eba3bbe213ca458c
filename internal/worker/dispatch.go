package worker

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/vesselwatch/tracker/internal/dispatcher"
	"github.com/vesselwatch/tracker/internal/notify"
	"github.com/vesselwatch/tracker/pkg/core"
)

// RegisterHandlers registers all event handlers with the dispatcher.
func (m *Manager) RegisterHandlers(d *dispatcher.Dispatcher) {
	// High-volume stream traffic - buffered, consumed by one goroutine so
	// per-vessel update order is preserved
	d.Register(":VESSEL:UPDATE:", m.handleVesselUpdate, dispatcher.Buffered(10000), dispatcher.Logged())
	d.Register(":VESSEL:STATIC:", m.handleStaticData, dispatcher.Buffered(2000), dispatcher.Logged())

	// User actions - sync
	d.Register(":VIEWPORT:SET:", m.handleViewportSet, dispatcher.Logged())
	d.Register(":TRACK:ADD:", m.handleTrackAdd, dispatcher.Logged())
	d.Register(":TRACK:REMOVE:", m.handleTrackRemove, dispatcher.Logged())
	d.Register(":FILTER:SET:", m.handleFilterSet, dispatcher.Logged())
	d.Register(":MODE:SET:", m.handleModeSet, dispatcher.Logged())

	// Queries - sync, result returned to the caller
	d.Register(":SEARCH:FIND:", m.handleSearchFind, dispatcher.Logged())
	d.Register(":SEARCH:AREA:", m.handleSearchArea, dispatcher.Logged())

	// Notes - buffered, append-only
	d.Register(":NOTE:ADD:", m.handleNoteAdd, dispatcher.Buffered(500), dispatcher.Logged())
	d.Register(":NOTES:LIST:", m.handleNotesList, dispatcher.Logged())
}

func (m *Manager) handleVesselUpdate(e dispatcher.Event) (any, error) {
	if len(e.Args) == 0 {
		return nil, fmt.Errorf("vessel update missing payload")
	}

	m.received.Inc()

	rec, err := m.deps.Parser.ParseVesselUpdate([]byte(e.Args[0]))
	if err != nil {
		// Malformed updates are dropped; the stream stays up.
		m.dropped.Inc()
		m.deps.LogManager.Logger().Warn("Dropping malformed vessel update", "error", err)
		return nil, nil
	}

	res := m.deps.Store.ApplyUpdate(rec)
	if !res.Admitted && !res.Tracked {
		return nil, nil
	}
	m.admitted.Inc()

	if m.deps.MapPacer.OnAdmission(res.Tracked) {
		m.refreshMap()
	}
	m.refreshSidebar(false)

	return nil, nil
}

func (m *Manager) handleStaticData(e dispatcher.Event) (any, error) {
	if len(e.Args) == 0 {
		return nil, fmt.Errorf("static data missing payload")
	}

	if err := m.deps.Parser.CacheStaticData([]byte(e.Args[0])); err != nil {
		m.deps.LogManager.Logger().Warn("Dropping malformed static data", "error", err)
	}
	return nil, nil
}

func (m *Manager) handleViewportSet(e dispatcher.Event) (any, error) {
	if len(e.Args) == 0 {
		return nil, fmt.Errorf("viewport missing payload")
	}

	var bounds core.ViewportBounds
	if err := json.Unmarshal([]byte(e.Args[0]), &bounds); err != nil {
		return nil, fmt.Errorf("decoding viewport bounds: %w", err)
	}

	// The store sees new bounds immediately so admission uses the latest
	// viewport; eviction and recompute go through the debounced tracker.
	if err := m.deps.Store.SetBounds(bounds); err != nil {
		return nil, err
	}
	if err := m.deps.Viewport.SetBounds(bounds); err != nil {
		return nil, err
	}
	return nil, nil
}

func (m *Manager) handleTrackAdd(e dispatcher.Event) (any, error) {
	if len(e.Args) == 0 {
		return nil, fmt.Errorf("track add missing query")
	}

	rec, found := m.deps.Search.FindByIdentifier(e.Args[0])
	if !found {
		return nil, fmt.Errorf("no vessel matching %q", e.Args[0])
	}
	if m.deps.Store.IsTracked(rec.MMSI) {
		return nil, fmt.Errorf("vessel %s is already tracked", rec.MMSI)
	}

	tracked := core.TrackedVesselRecord{
		VesselRecord: rec,
		AddedAt:      time.Now().UTC(),
	}

	if m.deps.API != nil {
		stored, err := m.deps.API.Track(rec)
		if err != nil {
			m.notifyWarn(fmt.Sprintf("Backend tracking failed for %s: %v", rec.MMSI, err))
		} else {
			tracked.ID = stored.ID
			if !stored.AddedAt.IsZero() {
				tracked.AddedAt = stored.AddedAt
			}
		}
	}

	// Local storage mirrors the fleet and assigns an ID when the backend
	// did not.
	if m.backend != nil {
		if err := m.backend.SaveTrackedVessel(&tracked); err != nil {
			m.notifyWarn(fmt.Sprintf("Saving tracked vessel %s failed: %v", rec.MMSI, err))
		}
	}

	if err := m.deps.Store.Track(tracked); err != nil {
		return nil, err
	}

	m.fleetChanged()
	m.refreshMap()
	m.refreshSidebar(true)
	return tracked, nil
}

func (m *Manager) handleTrackRemove(e dispatcher.Event) (any, error) {
	if len(e.Args) == 0 {
		return nil, fmt.Errorf("track remove missing identifier")
	}

	mmsi, err := core.NormalizeMMSI(e.Args[0])
	if err != nil {
		return nil, err
	}

	// Capture the ID before removal for the fallback path.
	var recordID uint
	for _, t := range m.deps.Store.Tracked() {
		if t.MMSI == mmsi {
			recordID = t.ID
			break
		}
	}

	if err := m.deps.Store.UntrackByMMSI(mmsi); err != nil {
		return nil, err
	}

	if m.deps.API != nil {
		if err := m.deps.API.UntrackByMMSI(mmsi); err != nil {
			if recordID != 0 {
				if err2 := m.deps.API.UntrackByID(recordID); err2 != nil {
					m.notifyWarn(fmt.Sprintf("Backend untrack failed for %s: %v", mmsi, err2))
				}
			} else {
				m.notifyWarn(fmt.Sprintf("Backend untrack failed for %s: %v", mmsi, err))
			}
		}
	}

	if m.backend != nil {
		if err := m.backend.DeleteTrackedVesselByMMSI(mmsi); err != nil {
			m.deps.LogManager.Logger().Warn("Local untrack failed", "mmsi", mmsi, "error", err)
		}
	}

	m.fleetChanged()
	m.refreshMap()
	m.refreshSidebar(true)
	return nil, nil
}

func (m *Manager) handleFilterSet(e dispatcher.Event) (any, error) {
	if len(e.Args) == 0 {
		return nil, fmt.Errorf("filter set missing payload")
	}

	state := core.NewFilterState()
	if err := json.Unmarshal([]byte(e.Args[0]), &state); err != nil {
		return nil, fmt.Errorf("decoding filter state: %w", err)
	}

	m.setFilters(state)
	m.refreshMap()
	m.refreshSidebar(true)
	return nil, nil
}

func (m *Manager) handleModeSet(e dispatcher.Event) (any, error) {
	if len(e.Args) == 0 {
		return nil, fmt.Errorf("mode set missing payload")
	}

	mode, ok := core.ParseDisplayMode(e.Args[0])
	if !ok {
		return nil, fmt.Errorf("unknown display mode: %s", e.Args[0])
	}

	if !m.deps.Store.SetMode(mode) {
		return nil, nil
	}

	m.deps.LogManager.Logger().Info("Display mode changed", "mode", mode)

	// Returning to all-vessels mode revives the live feed; leaving it lets
	// the feed's reconnect gate wind the connection down.
	if mode == core.ModeAllVessels && m.deps.ConnectLive != nil {
		m.deps.ConnectLive()
	}

	m.refreshMap()
	m.refreshSidebar(true)
	return nil, nil
}

func (m *Manager) handleSearchFind(e dispatcher.Event) (any, error) {
	if len(e.Args) == 0 {
		return nil, fmt.Errorf("search missing query")
	}

	rec, found := m.deps.Search.FindByIdentifier(e.Args[0])
	if !found {
		return nil, nil
	}
	return rec, nil
}

func (m *Manager) handleSearchArea(e dispatcher.Event) (any, error) {
	if len(e.Args) == 0 {
		return nil, fmt.Errorf("area search missing bounds")
	}

	var bounds core.ViewportBounds
	if err := json.Unmarshal([]byte(e.Args[0]), &bounds); err != nil {
		return nil, fmt.Errorf("decoding search bounds: %w", err)
	}

	// Area results honor the active filters like any other display set; the
	// service needs them up front so a filtered-out cache still falls
	// through to the backend.
	results, err := m.deps.Search.FindInBoundingBox(bounds, m.Filters())
	if err != nil {
		return nil, err
	}

	if len(results) > 0 {
		m.refreshMap()
	}
	return results, nil
}

type noteRequest struct {
	MMSI string `json:"mmsi"`
	Date string `json:"date"`
	Text string `json:"text"`
}

func (m *Manager) handleNoteAdd(e dispatcher.Event) (any, error) {
	if m.backend == nil || len(e.Args) == 0 {
		return nil, nil
	}

	var req noteRequest
	if err := json.Unmarshal([]byte(e.Args[0]), &req); err != nil {
		return nil, fmt.Errorf("decoding note: %w", err)
	}

	mmsi, err := core.NormalizeMMSI(req.MMSI)
	if err != nil {
		return nil, err
	}
	return nil, m.backend.AddNote(mmsi, req.Date, req.Text)
}

func (m *Manager) handleNotesList(e dispatcher.Event) (any, error) {
	if m.backend == nil || len(e.Args) == 0 {
		return nil, nil
	}

	mmsi, err := core.NormalizeMMSI(e.Args[0])
	if err != nil {
		return nil, err
	}
	return m.backend.ListNotes(mmsi)
}

func (m *Manager) notifyWarn(msg string) {
	if m.deps.Notifier != nil {
		m.deps.Notifier.Notify(notify.SeverityWarning, msg)
	}
}
