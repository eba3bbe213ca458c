package core

// StatusFilter names one of the four mutually exclusive vessel statuses.
type StatusFilter string

const (
	StatusMoving     StatusFilter = "moving"
	StatusBallast    StatusFilter = "ballast"
	StatusAnchored   StatusFilter = "anchored"
	StatusStationary StatusFilter = "stationary"
)

// TypeFilter names one of the four primary filterable ship categories.
type TypeFilter string

const (
	TypeTanker    TypeFilter = "tanker"
	TypeContainer TypeFilter = "container"
	TypeCargo     TypeFilter = "cargo"
	TypeOther     TypeFilter = "other"
)

// NumStatusFilters and NumTypeFilters are the full-selection sizes for the
// two filter categories.
const (
	NumStatusFilters = 4
	NumTypeFilters   = 4
)

// FilterState holds the two independent filter sets. An empty set places no
// constraint on its category. Selecting every member of a category is
// treated identically to selecting none; this full-selection no-op is a
// deliberate product behavior and must be preserved.
type FilterState struct {
	Status map[StatusFilter]bool `json:"status"`
	Types  map[TypeFilter]bool   `json:"types"`
}

// NewFilterState returns an unconstrained filter state.
func NewFilterState() FilterState {
	return FilterState{
		Status: make(map[StatusFilter]bool),
		Types:  make(map[TypeFilter]bool),
	}
}

// StatusActive reports whether the status subset actually constrains
// anything: it must be non-empty and not the full selection.
func (f FilterState) StatusActive() bool {
	n := 0
	for _, on := range f.Status {
		if on {
			n++
		}
	}
	return n > 0 && n < NumStatusFilters
}

// TypesActive reports whether the type subset actually constrains anything.
func (f FilterState) TypesActive() bool {
	n := 0
	for _, on := range f.Types {
		if on {
			n++
		}
	}
	return n > 0 && n < NumTypeFilters
}

// Empty reports whether no filter constrains the display set.
func (f FilterState) Empty() bool {
	return !f.StatusActive() && !f.TypesActive()
}

// Clone returns an independent copy of the filter state.
func (f FilterState) Clone() FilterState {
	out := NewFilterState()
	for k, v := range f.Status {
		out.Status[k] = v
	}
	for k, v := range f.Types {
		out.Types[k] = v
	}
	return out
}

// DisplayMode governs which sets the fusion layer combines.
type DisplayMode int

const (
	// ModeAllVessels fuses the tracked store with the live cache.
	ModeAllVessels DisplayMode = iota
	// ModeTrackedOnly shows the tracked store alone.
	ModeTrackedOnly
)

// ParseDisplayMode resolves a mode name from the wire.
func ParseDisplayMode(s string) (DisplayMode, bool) {
	switch s {
	case "all_vessels", "all":
		return ModeAllVessels, true
	case "tracked_only", "tracked":
		return ModeTrackedOnly, true
	default:
		return ModeAllVessels, false
	}
}

// String implements fmt.Stringer for logging.
func (m DisplayMode) String() string {
	switch m {
	case ModeAllVessels:
		return "all_vessels"
	case ModeTrackedOnly:
		return "tracked_only"
	default:
		return "unknown"
	}
}
