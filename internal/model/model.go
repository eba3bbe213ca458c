// Package model defines the persisted database schema.
package model

import (
	"time"

	"gorm.io/datatypes"
)

// TrackedVessel is a persisted member of the tracked fleet.
type TrackedVessel struct {
	ID       uint   `json:"id" gorm:"primarykey"`
	MMSI     string `json:"mmsi" gorm:"uniqueIndex;size:16"`
	Name     string `json:"name"`
	IMO      string `json:"imo"`
	Callsign string `json:"callsign"`
	ShipType string `json:"ship_type"`
	Category string `json:"ship_category"`

	AddedAt time.Time `json:"added_at"`

	// Snapshot holds the full merged record as of the last save, so a
	// restart can show the fleet before the stream warms up.
	Snapshot datatypes.JSON `json:"snapshot"`
}

// VesselNote is one append-only note attached to a vessel. Notes are never
// edited or deleted, only added.
type VesselNote struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	MMSI      string    `json:"mmsi" gorm:"index;size:16"`
	Date      string    `json:"date"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// DatabaseModels lists every model the schema migration covers.
var DatabaseModels = []any{
	&TrackedVessel{},
	&VesselNote{},
}
