// Package geo provides the geographic predicates shared by cache admission,
// eviction and viewport-change suppression.
package geo

import (
	"errors"
	"math"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"

	"github.com/vesselwatch/tracker/pkg/core"
)

// ErrInvalidCoordinates is returned when a position cannot be interpreted.
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// ValidatePosition rejects positions that are not representable on the
// globe before they reach any set mutation.
func ValidatePosition(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return ErrInvalidCoordinates
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return ErrInvalidCoordinates
	}
	return nil
}

// Point3857From4326 projects a lat/lon position to EPSG:3857 web-mercator
// coordinates. Span comparisons are done in projected metres so the same
// percentage threshold behaves consistently across latitudes.
func Point3857From4326(lat, lon float64) geom.Point {
	f := wgs84.EPSG().Transform(4326, 3857)
	x, y, _ := f(lon, lat, 0)
	return geom.NewPoint(geom.Coordinates{
		XY: geom.XY{X: x, Y: y},
	})
}

// SpanMeters returns the projected diagonal extent of the bounds in metres.
// A zero-value bounds yields 0.
func SpanMeters(b core.ViewportBounds) float64 {
	if b.IsZero() {
		return 0
	}
	min := Point3857From4326(b.MinLat, b.MinLon)
	max := Point3857From4326(b.MaxLat, b.MaxLon)
	minXY, okMin := min.XY()
	maxXY, okMax := max.XY()
	if !okMin || !okMax {
		return 0
	}
	dx := maxXY.X - minXY.X
	dy := maxXY.Y - minXY.Y
	return math.Hypot(dx, dy)
}

// SpanChangeFraction returns |span(new) - span(old)| / span(old). A zero old
// span always reports full change so the first real viewport is never
// suppressed.
func SpanChangeFraction(old, updated core.ViewportBounds) float64 {
	oldSpan := SpanMeters(old)
	if oldSpan == 0 {
		return 1
	}
	return math.Abs(SpanMeters(updated)-oldSpan) / oldSpan
}
