package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeMMSI(t *testing.T) {
	cases := []struct {
		name  string
		input any
		want  string
		ok    bool
	}{
		{"string", "111222333", "111222333", true},
		{"string with whitespace", "  111222333 ", "111222333", true},
		{"json number", float64(111222333), "111222333", true},
		{"int", 111222333, "111222333", true},
		{"int64", int64(111222333), "111222333", true},
		{"uint", uint(111222333), "111222333", true},
		{"empty string", "", "", false},
		{"non-digit string", "12AB34", "", false},
		{"nil", nil, "", false},
		{"bool", true, "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizeMMSI(tc.input)
			if tc.ok {
				assert.NoError(t, err)
				assert.Equal(t, tc.want, got)
			} else {
				assert.ErrorIs(t, err, ErrInvalidMMSI)
			}
		})
	}
}

func TestIsDigits(t *testing.T) {
	assert.True(t, IsDigits("123456789"))
	assert.True(t, IsDigits("0"))
	assert.False(t, IsDigits(""))
	assert.False(t, IsDigits("12a"))
	assert.False(t, IsDigits("12 3"))
	assert.False(t, IsDigits("-123"))
}

func TestBoundsContainsInclusive(t *testing.T) {
	b := ViewportBounds{MinLat: 40, MinLon: 27, MaxLat: 42, MaxLon: 30}

	assert.True(t, b.Contains(41, 28.5))
	assert.True(t, b.Contains(40, 27), "min corner is inside")
	assert.True(t, b.Contains(42, 30), "max corner is inside")
	assert.False(t, b.Contains(39.999, 28))
	assert.False(t, b.Contains(41, 30.001))
}

func TestBoundsValidate(t *testing.T) {
	assert.NoError(t, ViewportBounds{MinLat: 40, MinLon: 27, MaxLat: 42, MaxLon: 30}.Validate())
	assert.NoError(t, ViewportBounds{}.Validate())

	assert.Error(t, ViewportBounds{MinLat: 45, MaxLat: 40, MinLon: 27, MaxLon: 30}.Validate(), "inverted latitude")
	assert.Error(t, ViewportBounds{MinLat: 40, MaxLat: 42, MinLon: 31, MaxLon: 30}.Validate(), "inverted longitude")
	assert.Error(t, ViewportBounds{MinLat: -95, MaxLat: 40, MinLon: 0, MaxLon: 1}.Validate())
	assert.Error(t, ViewportBounds{MinLat: 0, MaxLat: 1, MinLon: 0, MaxLon: 181}.Validate())
}

func TestCategoryFromShipType(t *testing.T) {
	cases := map[string]ShipCategory{
		"Crude Oil Tanker": CategoryTanker,
		"LNG Carrier":      CategoryTanker,
		"Container Ship":   CategoryContainer,
		"Bulk Carrier":     CategoryCargo,
		"General Cargo":    CategoryCargo,
		"Passenger Ship":   CategoryPassenger,
		"Fishing Vessel":   CategoryFishing,
		"Tug":              CategoryTug,
		"Pilot Vessel":     CategoryPilot,
		"Dredger":          CategoryOther,
		"":                 CategoryOther,
	}

	for shipType, want := range cases {
		assert.Equal(t, want, CategoryFromShipType(shipType), "ship type %q", shipType)
	}
}

func TestFilterStateActivation(t *testing.T) {
	f := NewFilterState()
	assert.True(t, f.Empty())
	assert.False(t, f.StatusActive())

	f.Status[StatusMoving] = true
	assert.True(t, f.StatusActive())
	assert.False(t, f.Empty())

	// Full selection constrains nothing.
	f.Status[StatusBallast] = true
	f.Status[StatusAnchored] = true
	f.Status[StatusStationary] = true
	assert.False(t, f.StatusActive())
	assert.True(t, f.Empty())
}

func TestFilterStateIgnoresFalseEntries(t *testing.T) {
	f := NewFilterState()
	f.Types[TypeTanker] = true
	f.Types[TypeCargo] = false

	// A key toggled back off does not count toward the selection.
	assert.True(t, f.TypesActive())

	f.Types[TypeTanker] = false
	assert.False(t, f.TypesActive())
}

func TestFilterStateClone(t *testing.T) {
	f := NewFilterState()
	f.Types[TypeTanker] = true

	clone := f.Clone()
	clone.Types[TypeCargo] = true

	assert.False(t, f.Types[TypeCargo], "mutating the clone must not touch the original")
	assert.True(t, clone.Types[TypeTanker])
}

func TestParseDisplayMode(t *testing.T) {
	mode, ok := ParseDisplayMode("all_vessels")
	assert.True(t, ok)
	assert.Equal(t, ModeAllVessels, mode)

	mode, ok = ParseDisplayMode("tracked")
	assert.True(t, ok)
	assert.Equal(t, ModeTrackedOnly, mode)

	_, ok = ParseDisplayMode("everything")
	assert.False(t, ok)
}

func TestIsMoving(t *testing.T) {
	assert.True(t, VesselRecord{Speed: 12}.IsMoving())
	assert.False(t, VesselRecord{IsAnchored: true}.IsMoving())
	assert.False(t, VesselRecord{IsBallast: true}.IsMoving())
	assert.False(t, VesselRecord{IsStationary: true}.IsMoving())
}
