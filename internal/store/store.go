// Package store implements the VesselStore: the single service object that
// owns the tracked set, the live cache and the derived display set. All
// mutation happens through its methods; consumers only ever read derived
// snapshots.
package store

import (
	"fmt"
	"sort"
	"sync"

	"github.com/vesselwatch/tracker/internal/cache"
	"github.com/vesselwatch/tracker/pkg/core"
)

// ErrAlreadyTracked is returned when tracking a vessel twice.
var ErrAlreadyTracked = fmt.Errorf("vessel is already tracked")

// ErrNotTracked is returned when untracking an unknown vessel.
var ErrNotTracked = fmt.Errorf("vessel is not tracked")

// AdmitResult describes what happened to a stream update.
type AdmitResult struct {
	Admitted bool // record entered the live cache
	Tracked  bool // record merged into a tracked entry
}

// VesselStore owns the tracked store and the live cache and derives the
// display set from them.
type VesselStore struct {
	mu sync.Mutex

	tracked      map[string]core.TrackedVesselRecord
	trackedOrder []string

	cache *cache.LiveCache

	mode   core.DisplayMode
	bounds core.ViewportBounds
}

// New creates an empty VesselStore in all-vessels mode.
func New() *VesselStore {
	return &VesselStore{
		tracked: make(map[string]core.TrackedVesselRecord),
		cache:   cache.NewLiveCache(),
		mode:    core.ModeAllVessels,
	}
}

// Cache exposes the live cache for read-side consumers (search, monitor).
func (s *VesselStore) Cache() *cache.LiveCache {
	return s.cache
}

// Mode returns the current display mode.
func (s *VesselStore) Mode() core.DisplayMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SetMode switches the display mode and returns whether it changed.
func (s *VesselStore) SetMode(mode core.DisplayMode) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == mode {
		return false
	}
	s.mode = mode
	return true
}

// Bounds returns the last viewport bounds applied to the store.
func (s *VesselStore) Bounds() core.ViewportBounds {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bounds
}

// SetBounds stores validated viewport bounds for subsequent admissions.
func (s *VesselStore) SetBounds(b core.ViewportBounds) error {
	if err := b.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.bounds = b
	s.mu.Unlock()
	return nil
}

// TrackedIDs returns the set of tracked MMSIs. The returned map is a copy.
func (s *VesselStore) TrackedIDs() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trackedIDsLocked()
}

func (s *VesselStore) trackedIDsLocked() map[string]bool {
	ids := make(map[string]bool, len(s.tracked))
	for mmsi := range s.tracked {
		ids[mmsi] = true
	}
	return ids
}

// IsTracked reports whether the MMSI is in the tracked store.
func (s *VesselStore) IsTracked(mmsi string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tracked[mmsi]
	return ok
}

// Tracked returns the tracked vessels in the order they were added.
func (s *VesselStore) Tracked() []core.TrackedVesselRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.TrackedVesselRecord, 0, len(s.trackedOrder))
	for _, mmsi := range s.trackedOrder {
		if rec, ok := s.tracked[mmsi]; ok {
			out = append(out, rec)
		}
	}
	return out
}

// TrackedCount returns the number of tracked vessels.
func (s *VesselStore) TrackedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tracked)
}

// SetTracked replaces the tracked store wholesale, preserving the given
// order. Used when loading the collection from the backend.
func (s *VesselStore) SetTracked(records []core.TrackedVesselRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracked = make(map[string]core.TrackedVesselRecord, len(records))
	s.trackedOrder = s.trackedOrder[:0]
	for _, rec := range records {
		if rec.MMSI == "" {
			continue
		}
		if _, dup := s.tracked[rec.MMSI]; dup {
			continue
		}
		s.tracked[rec.MMSI] = rec
		s.trackedOrder = append(s.trackedOrder, rec.MMSI)
	}
}

// Track adds a vessel to the tracked store.
func (s *VesselStore) Track(rec core.TrackedVesselRecord) error {
	if rec.MMSI == "" {
		return core.ErrInvalidMMSI
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tracked[rec.MMSI]; exists {
		return ErrAlreadyTracked
	}
	s.tracked[rec.MMSI] = rec
	s.trackedOrder = append(s.trackedOrder, rec.MMSI)
	return nil
}

// UntrackByMMSI removes a tracked vessel by its canonical MMSI.
func (s *VesselStore) UntrackByMMSI(mmsi string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tracked[mmsi]; !ok {
		return ErrNotTracked
	}
	s.removeTrackedLocked(mmsi)
	return nil
}

// UntrackByID removes a tracked vessel by its persisted ID. It is the
// fallback path when MMSI-based removal fails.
func (s *VesselStore) UntrackByID(id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for mmsi, rec := range s.tracked {
		if rec.ID == id {
			s.removeTrackedLocked(mmsi)
			return nil
		}
	}
	return ErrNotTracked
}

func (s *VesselStore) removeTrackedLocked(mmsi string) {
	delete(s.tracked, mmsi)
	for i, m := range s.trackedOrder {
		if m == mmsi {
			s.trackedOrder = append(s.trackedOrder[:i], s.trackedOrder[i+1:]...)
			break
		}
	}
}

// ApplyUpdate feeds a fresh stream record into the store: it is admitted to
// the live cache (subject to viewport bounds) and, when the vessel is
// tracked, merged into the tracked entry.
func (s *VesselStore) ApplyUpdate(rec core.VesselRecord) AdmitResult {
	s.mu.Lock()
	trackedIDs := s.trackedIDsLocked()
	bounds := s.bounds
	existing, isTracked := s.tracked[rec.MMSI]
	s.mu.Unlock()

	res := AdmitResult{
		Admitted: s.cache.Admit(rec, bounds, trackedIDs),
		Tracked:  isTracked,
	}

	if isTracked {
		merged := Merge(existing, rec)
		s.mu.Lock()
		s.tracked[rec.MMSI] = merged
		s.mu.Unlock()
	}

	return res
}

// EvictOutside delegates to the live cache using the current tracked set.
func (s *VesselStore) EvictOutside(bounds core.ViewportBounds) int {
	return s.cache.EvictOutside(bounds, s.TrackedIDs())
}

// Merge combines a tracked record with a fresh stream record: tracked data
// wins for identity and metadata, live data wins for telemetry.
func Merge(tracked core.TrackedVesselRecord, fresh core.VesselRecord) core.TrackedVesselRecord {
	merged := tracked

	// Live telemetry always wins.
	merged.Latitude = fresh.Latitude
	merged.Longitude = fresh.Longitude
	merged.Speed = fresh.Speed
	merged.Heading = fresh.Heading
	merged.Course = fresh.Course
	merged.Status = fresh.Status
	merged.Timestamp = fresh.Timestamp
	merged.IsBallast = fresh.IsBallast
	merged.IsAnchored = fresh.IsAnchored
	merged.IsStationary = fresh.IsStationary

	// Tracked metadata wins: the stream only fills identity fields the
	// operator has no data for yet.
	if merged.Name == "" {
		merged.Name = fresh.Name
	}
	if merged.Callsign == "" {
		merged.Callsign = fresh.Callsign
	}
	if merged.IMO == "" {
		merged.IMO = fresh.IMO
	}

	// Voyage data follows the stream because it changes between legs.
	if fresh.ShipType != "" {
		merged.ShipType = fresh.ShipType
	}
	if fresh.ShipCategory != "" {
		merged.ShipCategory = fresh.ShipCategory
	}
	if fresh.Destination != "" {
		merged.Destination = fresh.Destination
	}
	if fresh.Draught != 0 {
		merged.Draught = fresh.Draught
	}

	// Identity is never touched: ID, AddedAt and MMSI stay as tracked.
	merged.MMSI = tracked.MMSI
	merged.ID = tracked.ID
	merged.AddedAt = tracked.AddedAt

	return merged
}

// ComputeDisplaySet derives the display set as a pure function of the
// tracked store, the live cache and the display mode: tracked ∪ cache for
// all-vessels mode, tracked alone otherwise. Tracked entries come first so
// deduplication keeps their merged state; cache entries are ordered by MMSI
// for deterministic output.
func (s *VesselStore) ComputeDisplaySet(mode core.DisplayMode) []core.VesselRecord {
	trackedRecs := s.Tracked()

	combined := make([]core.VesselRecord, 0, len(trackedRecs))
	for _, t := range trackedRecs {
		combined = append(combined, t.VesselRecord)
	}

	if mode == core.ModeAllVessels {
		live := s.cache.All()
		sort.Slice(live, func(i, j int) bool { return live[i].MMSI < live[j].MMSI })
		combined = append(combined, live...)
	}

	return Dedupe(combined)
}

// DisplaySet derives the display set using the store's current mode.
func (s *VesselStore) DisplaySet() []core.VesselRecord {
	return s.ComputeDisplaySet(s.Mode())
}

// Dedupe drops later duplicates of an MMSI; the first occurrence in
// iteration order wins.
func Dedupe(records []core.VesselRecord) []core.VesselRecord {
	seen := make(map[string]bool, len(records))
	out := make([]core.VesselRecord, 0, len(records))
	for _, rec := range records {
		if seen[rec.MMSI] {
			continue
		}
		seen[rec.MMSI] = true
		out = append(out, rec)
	}
	return out
}
