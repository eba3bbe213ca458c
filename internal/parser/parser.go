// Package parser converts raw AIS stream payloads into vessel records.
// The feed is loosely typed: the same field can arrive as a string or a
// number, identifiers may be numeric, and optional fields may be absent.
// All of that is resolved here so the rest of the engine only ever sees
// canonical records.
package parser

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/vesselwatch/tracker/internal/geo"
	"github.com/vesselwatch/tracker/internal/util"
	"github.com/vesselwatch/tracker/pkg/core"
)

// containerLines are name prefixes of major container operators. Vessels
// named after one of these are classified Container even when the feed
// carries no usable ship type.
var containerLines = []string{
	"MSC", "MAERSK", "CMA CGM", "COSCO", "EVERGREEN",
	"HAPAG", "ONE ", "YANG MING", "YM ", "HMM ",
}

// ballastKeywords in a destination indicate a vessel sailing empty.
var ballastKeywords = []string{"FOR ORDERS", "WAITING", "AWAITING", "BALLAST"}

// staticEntry is the slow-changing vessel data delivered on a separate
// message type and merged into subsequent position reports.
type staticEntry struct {
	ShipType    string
	Name        string
	Callsign    string
	Destination string
	Draught     float64
}

// Service parses stream payloads and maintains the static-data cache.
type Service struct {
	mu     sync.Mutex
	static map[string]staticEntry
}

// NewService creates a parser service with an empty static-data cache.
func NewService() *Service {
	return &Service{
		static: make(map[string]staticEntry),
	}
}

// CacheStaticData records the static portion of a ship_static_data message
// for later enrichment of position reports with the same MMSI.
func (s *Service) CacheStaticData(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("malformed static data payload: %w", err)
	}

	mmsi, err := core.NormalizeMMSI(raw["mmsi"])
	if err != nil {
		return fmt.Errorf("static data without usable MMSI: %w", err)
	}

	s.mu.Lock()
	s.static[mmsi] = staticEntry{
		ShipType:    util.AsString(raw["ship_type"]),
		Name:        util.AsString(raw["name"]),
		Callsign:    util.AsString(raw["callsign"]),
		Destination: cleanDestination(util.AsString(raw["destination"])),
		Draught:     util.AsFloat(raw["draught"]),
	}
	s.mu.Unlock()
	return nil
}

// StaticCacheSize returns the number of cached static entries.
func (s *Service) StaticCacheSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.static)
}

// ParseVesselUpdate decodes a vessel_update payload into a canonical record.
// Invalid identifiers and unusable coordinates are rejected before any set
// could be mutated.
func (s *Service) ParseVesselUpdate(data []byte) (core.VesselRecord, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return core.VesselRecord{}, fmt.Errorf("malformed vessel payload: %w", err)
	}

	mmsi, err := core.NormalizeMMSI(raw["mmsi"])
	if err != nil {
		return core.VesselRecord{}, fmt.Errorf("vessel update without usable MMSI: %w", err)
	}

	lat := util.AsFloat(raw["latitude"])
	lon := util.AsFloat(raw["longitude"])
	if err := geo.ValidatePosition(lat, lon); err != nil {
		return core.VesselRecord{}, fmt.Errorf("vessel %s: %w", mmsi, err)
	}

	rec := core.VesselRecord{
		MMSI:        mmsi,
		Name:        util.AsString(raw["name"]),
		IMO:         util.AsString(raw["imo"]),
		Callsign:    util.AsString(raw["callsign"]),
		Latitude:    lat,
		Longitude:   lon,
		Speed:       util.AsFloat(raw["speed"]),
		Heading:     util.AsInt(raw["heading"]),
		Course:      util.AsFloat(raw["course"]),
		ShipType:    util.AsString(raw["ship_type"]),
		Draught:     util.AsFloat(raw["draught"]),
		Destination: cleanDestination(util.AsString(raw["destination"])),
		Status:      util.AsString(raw["status"]),
	}

	if ts := util.AsString(raw["timestamp"]); ts != "" {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			rec.Timestamp = t
		}
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	s.enrich(&rec)

	rec.ShipCategory = categorize(raw, rec)

	navStatus := util.AsInt(raw["nav_status"])
	rec.IsAnchored = util.AsBool(raw["is_anchored"]) ||
		navStatus == 1 ||
		strings.Contains(strings.ToUpper(rec.Status), "ANCHOR")
	rec.IsStationary = util.AsBool(raw["is_stationary"]) || rec.Speed < 0.5
	rec.IsBallast = util.AsBool(raw["is_ballast"]) ||
		hasBallastDestination(rec.Destination) ||
		(rec.Draught > 0 && rec.Draught <= 4.0)

	if rec.Name == "" {
		rec.Name = "Vessel " + rec.MMSI
	}

	return rec, nil
}

// enrich fills gaps in a position report from cached static data.
func (s *Service) enrich(rec *core.VesselRecord) {
	s.mu.Lock()
	entry, ok := s.static[rec.MMSI]
	s.mu.Unlock()
	if !ok {
		return
	}

	rec.Name = util.FirstNonEmpty(rec.Name, entry.Name)
	rec.Callsign = util.FirstNonEmpty(rec.Callsign, entry.Callsign)
	rec.ShipType = util.FirstNonEmpty(rec.ShipType, entry.ShipType)
	rec.Destination = util.FirstNonEmpty(rec.Destination, entry.Destination)
	if rec.Draught == 0 {
		rec.Draught = entry.Draught
	}
}

// categorize picks the record's category: a backend-assigned primary
// category wins, then ship type keywords, then the container-line name
// heuristic.
func categorize(raw map[string]any, rec core.VesselRecord) core.ShipCategory {
	cat := core.ShipCategory(util.AsString(raw["ship_category"]))
	switch cat {
	case core.CategoryTanker, core.CategoryContainer, core.CategoryCargo:
		return cat
	}

	derived := core.CategoryFromShipType(rec.ShipType)
	if derived == core.CategoryOther && core.IsDigits(rec.ShipType) {
		derived = categoryFromTypeCode(util.AsInt(rec.ShipType))
	}

	if derived != core.CategoryContainer {
		upper := strings.ToUpper(rec.Name)
		for _, line := range containerLines {
			if strings.Contains(upper, line) {
				return core.CategoryContainer
			}
		}
	}

	if cat != "" && derived == core.CategoryOther {
		// Preserve a backend-assigned secondary category over a failed
		// keyword match.
		switch cat {
		case core.CategoryPassenger, core.CategoryFishing, core.CategoryTug, core.CategoryPilot, core.CategoryOther:
			return cat
		}
	}

	return derived
}

// categoryFromTypeCode maps numeric AIS ship type codes to a category. Some
// upstream sources send the raw code instead of a type name.
func categoryFromTypeCode(code int) core.ShipCategory {
	switch {
	case code >= 80 && code <= 89:
		return core.CategoryTanker
	case code >= 70 && code <= 79:
		return core.CategoryCargo
	case code >= 60 && code <= 69:
		return core.CategoryPassenger
	case code >= 50 && code <= 59:
		return core.CategoryPilot
	case code >= 40 && code <= 49:
		return core.CategoryTug
	case code >= 30 && code <= 39:
		return core.CategoryFishing
	default:
		return core.CategoryOther
	}
}

func cleanDestination(dest string) string {
	switch strings.ToLower(strings.TrimSpace(dest)) {
	case "", "n/a", "--":
		return ""
	}
	return strings.TrimSpace(dest)
}

func hasBallastDestination(dest string) bool {
	upper := strings.ToUpper(dest)
	for _, kw := range ballastKeywords {
		if strings.Contains(upper, kw) {
			return true
		}
	}
	return false
}
