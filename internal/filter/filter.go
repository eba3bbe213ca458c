// Package filter narrows the display set for map rendering.
//
// Semantics: OR within a category, AND between categories. A category whose
// subset is empty or fully selected places no constraint (the full-selection
// no-op is deliberate product behavior).
package filter

import "github.com/vesselwatch/tracker/pkg/core"

// Apply returns the records that pass both the status and the type check.
// An unconstrained filter state is an identity pass-through.
func Apply(records []core.VesselRecord, state core.FilterState) []core.VesselRecord {
	if state.Empty() {
		return records
	}

	out := make([]core.VesselRecord, 0, len(records))
	for _, rec := range records {
		if Matches(rec, state) {
			out = append(out, rec)
		}
	}
	return out
}

// Matches reports whether a single record passes the filter state.
func Matches(rec core.VesselRecord, state core.FilterState) bool {
	if state.StatusActive() && !matchesStatus(rec, state.Status) {
		return false
	}
	if state.TypesActive() && !matchesType(rec, state.Types) {
		return false
	}
	return true
}

func matchesStatus(rec core.VesselRecord, selected map[core.StatusFilter]bool) bool {
	if selected[core.StatusMoving] && rec.IsMoving() {
		return true
	}
	if selected[core.StatusBallast] && rec.IsBallast {
		return true
	}
	if selected[core.StatusAnchored] && rec.IsAnchored {
		return true
	}
	if selected[core.StatusStationary] && rec.IsStationary {
		return true
	}
	return false
}

func matchesType(rec core.VesselRecord, selected map[core.TypeFilter]bool) bool {
	switch VesselCategory(rec) {
	case core.CategoryTanker:
		return selected[core.TypeTanker]
	case core.CategoryContainer:
		return selected[core.TypeContainer]
	case core.CategoryCargo:
		return selected[core.TypeCargo]
	default:
		// Secondary categories filter under "other".
		return selected[core.TypeOther]
	}
}

// VesselCategory resolves the record's category for filtering: a
// backend-assigned primary category is authoritative, otherwise the free
// text ship type is keyword-matched, defaulting to Other.
func VesselCategory(rec core.VesselRecord) core.ShipCategory {
	switch rec.ShipCategory {
	case core.CategoryTanker, core.CategoryContainer, core.CategoryCargo:
		return rec.ShipCategory
	}
	return core.CategoryFromShipType(rec.ShipType)
}
