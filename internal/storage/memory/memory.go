// Package memory implements an in-process storage backend. Useful for tests
// and for running without any database.
package memory

import (
	"fmt"
	"sync"
	"time"

	"github.com/vesselwatch/tracker/pkg/core"
)

// Store keeps tracked vessels and notes in maps.
type Store struct {
	mu      sync.Mutex
	nextID  uint
	tracked map[string]core.TrackedVesselRecord
	order   []string
	notes   map[string][]core.Note
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		nextID:  1,
		tracked: make(map[string]core.TrackedVesselRecord),
		notes:   make(map[string][]core.Note),
	}
}

// Init implements storage.Backend.
func (s *Store) Init() error { return nil }

// Close implements storage.Backend.
func (s *Store) Close() error { return nil }

// SaveTrackedVessel inserts or updates the record and assigns an ID on
// first insert.
func (s *Store) SaveTrackedVessel(rec *core.TrackedVesselRecord) error {
	if rec.MMSI == "" {
		return core.ErrInvalidMMSI
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.tracked[rec.MMSI]; ok {
		rec.ID = existing.ID
		rec.AddedAt = existing.AddedAt
	} else {
		rec.ID = s.nextID
		s.nextID++
		if rec.AddedAt.IsZero() {
			rec.AddedAt = time.Now().UTC()
		}
		s.order = append(s.order, rec.MMSI)
	}
	s.tracked[rec.MMSI] = *rec
	return nil
}

// DeleteTrackedVesselByMMSI removes one tracked vessel.
func (s *Store) DeleteTrackedVesselByMMSI(mmsi string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tracked[mmsi]; !ok {
		return fmt.Errorf("vessel %s not found", mmsi)
	}
	delete(s.tracked, mmsi)
	for i, m := range s.order {
		if m == mmsi {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// ListTrackedVessels returns the fleet in insertion order.
func (s *Store) ListTrackedVessels() ([]core.TrackedVesselRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.TrackedVesselRecord, 0, len(s.order))
	for _, mmsi := range s.order {
		if rec, ok := s.tracked[mmsi]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

// AddNote appends a note for the vessel.
func (s *Store) AddNote(mmsi, date, text string) error {
	if mmsi == "" {
		return core.ErrInvalidMMSI
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.notes[mmsi] = append(s.notes[mmsi], core.Note{
		ID:   s.nextID,
		MMSI: mmsi,
		Date: date,
		Text: text,
	})
	s.nextID++
	return nil
}

// ListNotes returns the vessel's notes in insertion order.
func (s *Store) ListNotes(mmsi string) ([]core.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	notes := s.notes[mmsi]
	out := make([]core.Note, len(notes))
	copy(out, notes)
	return out, nil
}
