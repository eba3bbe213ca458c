package core

import "fmt"

// ViewportBounds is the axis-aligned lat/lon rectangle currently visible to
// the user. It drives cache admission, eviction and bounding-box search.
type ViewportBounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// Contains reports whether the point lies inside the rectangle. Bounds are
// inclusive on all four edges; admission and eviction both call this exact
// predicate so entries cannot flicker in and out at the boundary.
func (b ViewportBounds) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat &&
		lon >= b.MinLon && lon <= b.MaxLon
}

// Validate rejects rectangles with inverted edges or out-of-range
// coordinates before they reach any set mutation.
func (b ViewportBounds) Validate() error {
	if b.MinLat > b.MaxLat || b.MinLon > b.MaxLon {
		return fmt.Errorf("inverted bounds: min values must not exceed max values")
	}
	if b.MinLat < -90 || b.MaxLat > 90 {
		return fmt.Errorf("latitude out of range [-90, 90]")
	}
	if b.MinLon < -180 || b.MaxLon > 180 {
		return fmt.Errorf("longitude out of range [-180, 180]")
	}
	return nil
}

// IsZero reports whether the bounds have never been set.
func (b ViewportBounds) IsZero() bool {
	return b == ViewportBounds{}
}
