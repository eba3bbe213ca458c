package geo

import (
	"math"
	"testing"

	"github.com/vesselwatch/tracker/pkg/core"
)

func TestValidatePosition(t *testing.T) {
	valid := [][2]float64{
		{0, 0},
		{41.0, 28.9},
		{90, 180},
		{-90, -180},
	}
	for _, p := range valid {
		if err := ValidatePosition(p[0], p[1]); err != nil {
			t.Errorf("expected %v to be valid: %v", p, err)
		}
	}

	invalid := [][2]float64{
		{91, 0},
		{-91, 0},
		{0, 181},
		{0, -181},
		{math.NaN(), 0},
		{0, math.Inf(1)},
	}
	for _, p := range invalid {
		if err := ValidatePosition(p[0], p[1]); err == nil {
			t.Errorf("expected %v to be rejected", p)
		}
	}
}

func TestSpanMeters(t *testing.T) {
	b := core.ViewportBounds{MinLat: 40, MinLon: 27, MaxLat: 42, MaxLon: 30}

	span := SpanMeters(b)
	if span <= 0 {
		t.Fatalf("expected positive span, got %v", span)
	}

	// Roughly 2 degrees of latitude and 3 of longitude in the Marmara
	// region projects to a diagonal in the low hundreds of kilometres.
	if span < 200_000 || span > 600_000 {
		t.Errorf("span %v metres is implausible for these bounds", span)
	}

	if SpanMeters(core.ViewportBounds{}) != 0 {
		t.Error("zero bounds should have zero span")
	}
}

func TestSpanChangeFractionPanOnly(t *testing.T) {
	old := core.ViewportBounds{MinLat: 40, MinLon: 27, MaxLat: 42, MaxLon: 30}
	panned := core.ViewportBounds{MinLat: 40.1, MinLon: 27.1, MaxLat: 42.1, MaxLon: 30.1}

	frac := SpanChangeFraction(old, panned)
	if frac >= 0.2 {
		t.Errorf("a small pan should stay below the suppression threshold, got %v", frac)
	}
}

func TestSpanChangeFractionZoom(t *testing.T) {
	old := core.ViewportBounds{MinLat: 40, MinLon: 27, MaxLat: 42, MaxLon: 30}
	zoomedOut := core.ViewportBounds{MinLat: 38, MinLon: 24, MaxLat: 44, MaxLon: 33}

	frac := SpanChangeFraction(old, zoomedOut)
	if frac < 0.2 {
		t.Errorf("a 3x zoom should exceed the suppression threshold, got %v", frac)
	}
}

func TestSpanChangeFractionFromZeroBounds(t *testing.T) {
	updated := core.ViewportBounds{MinLat: 40, MinLon: 27, MaxLat: 42, MaxLon: 30}

	// First real viewport: report full change so it never gets suppressed.
	if frac := SpanChangeFraction(core.ViewportBounds{}, updated); frac != 1 {
		t.Errorf("expected 1, got %v", frac)
	}
}
