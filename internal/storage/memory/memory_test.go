package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vesselwatch/tracker/pkg/core"
)

func tracked(mmsi, name string) core.TrackedVesselRecord {
	return core.TrackedVesselRecord{
		VesselRecord: core.VesselRecord{MMSI: mmsi, Name: name},
	}
}

func TestSaveAssignsIDAndAddedAt(t *testing.T) {
	s := New()

	rec := tracked("111222333", "EVER GIVEN")
	require.NoError(t, s.SaveTrackedVessel(&rec))

	assert.Equal(t, uint(1), rec.ID)
	assert.False(t, rec.AddedAt.IsZero())
}

func TestSaveUpsertPreservesIdentity(t *testing.T) {
	s := New()

	first := tracked("111222333", "EVER GIVEN")
	require.NoError(t, s.SaveTrackedVessel(&first))

	update := tracked("111222333", "EVER GIVEN (RENAMED)")
	require.NoError(t, s.SaveTrackedVessel(&update))

	assert.Equal(t, first.ID, update.ID)
	assert.Equal(t, first.AddedAt, update.AddedAt)

	list, err := s.ListTrackedVessels()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "EVER GIVEN (RENAMED)", list[0].Name)
}

func TestSaveRejectsEmptyMMSI(t *testing.T) {
	s := New()

	rec := tracked("", "GHOST")
	assert.Error(t, s.SaveTrackedVessel(&rec))
}

func TestListPreservesInsertionOrder(t *testing.T) {
	s := New()

	for _, mmsi := range []string{"30", "10", "20"} {
		rec := tracked(mmsi, "Vessel "+mmsi)
		require.NoError(t, s.SaveTrackedVessel(&rec))
	}

	list, err := s.ListTrackedVessels()
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "30", list[0].MMSI)
	assert.Equal(t, "10", list[1].MMSI)
	assert.Equal(t, "20", list[2].MMSI)
}

func TestDeleteTrackedVessel(t *testing.T) {
	s := New()

	rec := tracked("1", "A")
	require.NoError(t, s.SaveTrackedVessel(&rec))

	require.NoError(t, s.DeleteTrackedVesselByMMSI("1"))
	assert.Error(t, s.DeleteTrackedVesselByMMSI("1"))

	list, err := s.ListTrackedVessels()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestNotesAppendInOrder(t *testing.T) {
	s := New()

	require.NoError(t, s.AddNote("1", "2026-08-01", "first sighting"))
	require.NoError(t, s.AddNote("1", "2026-08-02", "left port"))
	require.NoError(t, s.AddNote("2", "2026-08-02", "unrelated"))

	notes, err := s.ListNotes("1")
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "first sighting", notes[0].Text)
	assert.Equal(t, "left port", notes[1].Text)

	empty, err := s.ListNotes("999")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestAddNoteRejectsEmptyMMSI(t *testing.T) {
	s := New()

	assert.Error(t, s.AddNote("", "2026-08-01", "nope"))
}
