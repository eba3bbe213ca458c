package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vesselwatch/tracker/pkg/core"
)

func liveVessel(mmsi string, lat, lon float64) core.VesselRecord {
	return core.VesselRecord{MMSI: mmsi, Latitude: lat, Longitude: lon}
}

func trackedVessel(mmsi string, id uint) core.TrackedVesselRecord {
	return core.TrackedVesselRecord{
		VesselRecord: core.VesselRecord{MMSI: mmsi, Name: "Vessel " + mmsi},
		ID:           id,
		AddedAt:      time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC),
	}
}

func TestMergeKeepsIdentityAdoptsTelemetry(t *testing.T) {
	tracked := trackedVessel("111222333", 7)
	tracked.Speed = 0

	fresh := liveVessel("111222333", 41.2, 28.7)
	fresh.Speed = 15

	merged := Merge(tracked, fresh)

	assert.Equal(t, uint(7), merged.ID)
	assert.Equal(t, tracked.AddedAt, merged.AddedAt)
	assert.Equal(t, "111222333", merged.MMSI)
	assert.Equal(t, 15.0, merged.Speed)
	assert.Equal(t, 41.2, merged.Latitude)
}

func TestMergeKeepsMetadataWhenFreshIsEmpty(t *testing.T) {
	tracked := trackedVessel("1", 1)
	tracked.Name = "EVER GIVEN"
	tracked.IMO = "9811000"
	tracked.Callsign = "H3RC"

	fresh := liveVessel("1", 30.0, 32.0)

	merged := Merge(tracked, fresh)

	assert.Equal(t, "EVER GIVEN", merged.Name)
	assert.Equal(t, "9811000", merged.IMO)
	assert.Equal(t, "H3RC", merged.Callsign)
}

func TestMergeAdoptsFreshVoyageData(t *testing.T) {
	tracked := trackedVessel("1", 1)
	tracked.Destination = "ROTTERDAM"

	fresh := liveVessel("1", 30.0, 32.0)
	fresh.Destination = "SINGAPORE"

	merged := Merge(tracked, fresh)

	assert.Equal(t, "SINGAPORE", merged.Destination)
}

func TestMergeTrackedMetadataWins(t *testing.T) {
	tracked := trackedVessel("1", 1)
	tracked.Name = "EVER GIVEN"
	tracked.Callsign = "H3RC"
	tracked.IMO = ""

	fresh := liveVessel("1", 30.0, 32.0)
	fresh.Name = "EVER GIVEN 2"
	fresh.Callsign = "XXXX"
	fresh.IMO = "9811000"

	merged := Merge(tracked, fresh)

	assert.Equal(t, "EVER GIVEN", merged.Name)
	assert.Equal(t, "H3RC", merged.Callsign)
	assert.Equal(t, "9811000", merged.IMO, "stream fills fields the operator has no data for")
}

func TestApplyUpdateMergesIntoTracked(t *testing.T) {
	s := New()
	require.NoError(t, s.Track(trackedVessel("111222333", 7)))

	fresh := liveVessel("111222333", 41.2, 28.7)
	fresh.Speed = 15
	res := s.ApplyUpdate(fresh)

	assert.True(t, res.Tracked)

	recs := s.Tracked()
	require.Len(t, recs, 1)
	assert.Equal(t, uint(7), recs[0].ID)
	assert.Equal(t, 15.0, recs[0].Speed)
}

func TestApplyUpdateRespectsBounds(t *testing.T) {
	s := New()
	require.NoError(t, s.SetBounds(core.ViewportBounds{MinLat: 40, MinLon: 27, MaxLat: 42, MaxLon: 30}))

	res := s.ApplyUpdate(liveVessel("1", 41.0, 28.9))
	assert.True(t, res.Admitted)

	res = s.ApplyUpdate(liveVessel("2", 50.0, 10.0))
	assert.False(t, res.Admitted)
}

func TestEvictOutsideSparesTracked(t *testing.T) {
	s := New()
	require.NoError(t, s.SetBounds(core.ViewportBounds{MinLat: 40, MinLon: 27, MaxLat: 42, MaxLon: 30}))
	require.NoError(t, s.Track(trackedVessel("111222333", 1)))

	s.ApplyUpdate(liveVessel("111222333", 41.0, 28.9))

	removed := s.EvictOutside(core.ViewportBounds{MinLat: 43, MinLon: 27, MaxLat: 44, MaxLon: 30})
	assert.Equal(t, 0, removed)
}

func TestTrackRejectsDuplicates(t *testing.T) {
	s := New()
	require.NoError(t, s.Track(trackedVessel("1", 1)))

	err := s.Track(trackedVessel("1", 2))
	assert.ErrorIs(t, err, ErrAlreadyTracked)
}

func TestUntrackByMMSI(t *testing.T) {
	s := New()
	require.NoError(t, s.Track(trackedVessel("1", 1)))

	assert.NoError(t, s.UntrackByMMSI("1"))
	assert.ErrorIs(t, s.UntrackByMMSI("1"), ErrNotTracked)
}

func TestUntrackByIDFallback(t *testing.T) {
	s := New()
	require.NoError(t, s.Track(trackedVessel("1", 42)))

	assert.NoError(t, s.UntrackByID(42))
	assert.Equal(t, 0, s.TrackedCount())
	assert.ErrorIs(t, s.UntrackByID(42), ErrNotTracked)
}

func TestTrackedPreservesInsertionOrder(t *testing.T) {
	s := New()
	require.NoError(t, s.Track(trackedVessel("30", 1)))
	require.NoError(t, s.Track(trackedVessel("10", 2)))
	require.NoError(t, s.Track(trackedVessel("20", 3)))

	recs := s.Tracked()
	require.Len(t, recs, 3)
	assert.Equal(t, "30", recs[0].MMSI)
	assert.Equal(t, "10", recs[1].MMSI)
	assert.Equal(t, "20", recs[2].MMSI)
}

func TestComputeDisplaySetAllVessels(t *testing.T) {
	s := New()
	require.NoError(t, s.Track(trackedVessel("2", 1)))
	s.ApplyUpdate(liveVessel("1", 41.0, 28.0))
	s.ApplyUpdate(liveVessel("3", 41.1, 28.1))

	set := s.ComputeDisplaySet(core.ModeAllVessels)

	require.Len(t, set, 3)
	assert.Equal(t, "2", set[0].MMSI) // tracked first
}

func TestComputeDisplaySetTrackedOnly(t *testing.T) {
	s := New()
	require.NoError(t, s.Track(trackedVessel("2", 1)))
	s.ApplyUpdate(liveVessel("1", 41.0, 28.0))

	set := s.ComputeDisplaySet(core.ModeTrackedOnly)

	require.Len(t, set, 1)
	assert.Equal(t, "2", set[0].MMSI)
}

func TestComputeDisplaySetTrackedWinsDedupe(t *testing.T) {
	s := New()
	tracked := trackedVessel("1", 9)
	tracked.Name = "TRACKED NAME"
	require.NoError(t, s.Track(tracked))

	// Same vessel also lives in the cache with different data.
	s.ApplyUpdate(liveVessel("1", 41.0, 28.0))

	set := s.ComputeDisplaySet(core.ModeAllVessels)

	require.Len(t, set, 1)
	assert.Equal(t, "TRACKED NAME", set[0].Name)
}

func TestComputeDisplaySetIsPure(t *testing.T) {
	s := New()
	require.NoError(t, s.Track(trackedVessel("2", 1)))
	s.ApplyUpdate(liveVessel("1", 41.0, 28.0))

	first := s.ComputeDisplaySet(core.ModeAllVessels)
	second := s.ComputeDisplaySet(core.ModeAllVessels)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, s.Cache().Len())
	assert.Equal(t, 1, s.TrackedCount())
}

func TestDedupeFirstOccurrenceWins(t *testing.T) {
	records := []core.VesselRecord{
		{MMSI: "1", Name: "A"},
		{MMSI: "1", Name: "B"},
		{MMSI: "2", Name: "C"},
	}

	out := Dedupe(records)

	require.Len(t, out, 2)
	assert.Equal(t, "A", out[0].Name)
	assert.Equal(t, "C", out[1].Name)
}

func TestSetModeReportsChange(t *testing.T) {
	s := New()

	assert.False(t, s.SetMode(core.ModeAllVessels))
	assert.True(t, s.SetMode(core.ModeTrackedOnly))
	assert.Equal(t, core.ModeTrackedOnly, s.Mode())
}

func TestSetBoundsRejectsInvalid(t *testing.T) {
	s := New()

	err := s.SetBounds(core.ViewportBounds{MinLat: 45, MinLon: 27, MaxLat: 40, MaxLon: 30})
	assert.Error(t, err)
	assert.True(t, s.Bounds().IsZero())
}

func TestSetTrackedSkipsDuplicatesAndEmpties(t *testing.T) {
	s := New()
	s.SetTracked([]core.TrackedVesselRecord{
		trackedVessel("1", 1),
		trackedVessel("1", 2),
		{VesselRecord: core.VesselRecord{MMSI: ""}},
		trackedVessel("2", 3),
	})

	recs := s.Tracked()
	require.Len(t, recs, 2)
	assert.Equal(t, uint(1), recs[0].ID)
}
