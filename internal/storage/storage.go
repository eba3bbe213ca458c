// internal/storage/storage.go
package storage

import "github.com/vesselwatch/tracker/pkg/core"

// Backend is the interface all storage implementations must satisfy.
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Tracked fleet (SaveTrackedVessel assigns ID to the passed pointer)
	SaveTrackedVessel(rec *core.TrackedVesselRecord) error
	DeleteTrackedVesselByMMSI(mmsi string) error
	ListTrackedVessels() ([]core.TrackedVesselRecord, error)

	// Notes are append-only.
	AddNote(mmsi, date, text string) error
	ListNotes(mmsi string) ([]core.Note, error)
}
