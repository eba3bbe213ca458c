// Package core defines the vessel data model shared by the fusion engine,
// the stream ingestor, and the storage backends.
package core

import (
	"strings"
	"time"
)

// ShipCategory is the coarse vessel classification used by the type filters.
// Tanker, Container, Cargo and Other are the primary filterable categories;
// the remaining values are secondary categories used for display only.
type ShipCategory string

const (
	CategoryTanker    ShipCategory = "Tanker"
	CategoryContainer ShipCategory = "Container"
	CategoryCargo     ShipCategory = "Cargo"
	CategoryOther     ShipCategory = "Other"

	CategoryPassenger ShipCategory = "Passenger"
	CategoryFishing   ShipCategory = "Fishing"
	CategoryTug       ShipCategory = "Tug"
	CategoryPilot     ShipCategory = "Pilot"
)

// VesselRecord is a single vessel as known to the engine. MMSI is the unique
// key within any set; all other fields may be overwritten by later updates.
type VesselRecord struct {
	MMSI     string `json:"mmsi"`
	Name     string `json:"name"`
	IMO      string `json:"imo,omitempty"`
	Callsign string `json:"callsign,omitempty"`

	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Speed     float64 `json:"speed"`
	Heading   int     `json:"heading"`
	Course    float64 `json:"course,omitempty"`

	ShipType     string       `json:"ship_type,omitempty"`
	ShipCategory ShipCategory `json:"ship_category,omitempty"`
	Draught      float64      `json:"draught,omitempty"`
	Destination  string       `json:"destination,omitempty"`
	Status       string       `json:"status,omitempty"`
	Timestamp    time.Time    `json:"timestamp,omitempty"`

	IsBallast    bool `json:"is_ballast"`
	IsAnchored   bool `json:"is_anchored"`
	IsStationary bool `json:"is_stationary"`
}

// IsMoving reports whether the vessel carries none of the three status flags.
func (v VesselRecord) IsMoving() bool {
	return !v.IsBallast && !v.IsAnchored && !v.IsStationary
}

// TrackedVesselRecord is a VesselRecord owned by the user's persisted
// watchlist. ID and AddedAt are assigned by the backend when the vessel is
// tracked and survive any number of live telemetry merges.
type TrackedVesselRecord struct {
	VesselRecord

	ID      uint      `json:"id"`
	AddedAt time.Time `json:"added_at"`
}

// CategoryFromShipType derives a ShipCategory from free-text ship type.
// Keyword matching mirrors the backend's classification so that records
// arriving without a backend-assigned category filter consistently.
func CategoryFromShipType(shipType string) ShipCategory {
	s := strings.ToLower(shipType)
	switch {
	case s == "":
		return CategoryOther
	case strings.Contains(s, "tanker"),
		strings.Contains(s, "oil"),
		strings.Contains(s, "lng"),
		strings.Contains(s, "lpg"):
		return CategoryTanker
	case strings.Contains(s, "container"):
		return CategoryContainer
	case strings.Contains(s, "cargo"),
		strings.Contains(s, "bulk"),
		strings.Contains(s, "general"):
		return CategoryCargo
	case strings.Contains(s, "passenger"):
		return CategoryPassenger
	case strings.Contains(s, "fishing"):
		return CategoryFishing
	case strings.Contains(s, "tug"):
		return CategoryTug
	case strings.Contains(s, "pilot"):
		return CategoryPilot
	default:
		return CategoryOther
	}
}
