// Package dbstore implements the storage backend on top of the database
// manager, serving both the Postgres and SQLite configurations.
package dbstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/vesselwatch/tracker/internal/database"
	"github.com/vesselwatch/tracker/internal/model"
	"github.com/vesselwatch/tracker/pkg/core"
)

// Store persists tracked vessels and notes through GORM.
type Store struct {
	manager *database.Manager
}

// New wraps a database manager in the storage interface.
func New(manager *database.Manager) *Store {
	return &Store{manager: manager}
}

// Init connects and migrates the schema.
func (s *Store) Init() error {
	if err := s.manager.Connect(); err != nil {
		return err
	}
	return s.manager.Setup()
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.manager.Close()
}

// SaveTrackedVessel upserts the record by MMSI and writes the assigned ID
// and timestamp back to the passed pointer.
func (s *Store) SaveTrackedVessel(rec *core.TrackedVesselRecord) error {
	if rec.MMSI == "" {
		return core.ErrInvalidMMSI
	}

	snapshot, err := json.Marshal(rec.VesselRecord)
	if err != nil {
		return fmt.Errorf("encoding vessel snapshot: %w", err)
	}

	var row model.TrackedVessel
	err = s.manager.DB.Where("mmsi = ?", rec.MMSI).First(&row).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		row = model.TrackedVessel{
			MMSI:    rec.MMSI,
			AddedAt: rec.AddedAt,
		}
		if row.AddedAt.IsZero() {
			row.AddedAt = time.Now().UTC()
		}
	case err != nil:
		return fmt.Errorf("looking up tracked vessel: %w", err)
	}

	row.Name = rec.Name
	row.IMO = rec.IMO
	row.Callsign = rec.Callsign
	row.ShipType = rec.ShipType
	row.Category = string(rec.ShipCategory)
	row.Snapshot = snapshot

	if err := s.manager.DB.Save(&row).Error; err != nil {
		return fmt.Errorf("saving tracked vessel: %w", err)
	}

	rec.ID = row.ID
	rec.AddedAt = row.AddedAt
	return nil
}

// DeleteTrackedVesselByMMSI removes one tracked vessel.
func (s *Store) DeleteTrackedVesselByMMSI(mmsi string) error {
	res := s.manager.DB.Where("mmsi = ?", mmsi).Delete(&model.TrackedVessel{})
	if res.Error != nil {
		return fmt.Errorf("deleting tracked vessel: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("vessel %s not found", mmsi)
	}
	return nil
}

// ListTrackedVessels returns the persisted fleet in the order it was added.
func (s *Store) ListTrackedVessels() ([]core.TrackedVesselRecord, error) {
	var rows []model.TrackedVessel
	if err := s.manager.DB.Order("added_at asc, id asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing tracked vessels: %w", err)
	}

	out := make([]core.TrackedVesselRecord, 0, len(rows))
	for _, row := range rows {
		rec := core.TrackedVesselRecord{
			ID:      row.ID,
			AddedAt: row.AddedAt,
		}
		if len(row.Snapshot) > 0 {
			if err := json.Unmarshal(row.Snapshot, &rec.VesselRecord); err != nil {
				return nil, fmt.Errorf("decoding vessel snapshot for %s: %w", row.MMSI, err)
			}
		}
		// Columns are authoritative over the snapshot.
		rec.MMSI = row.MMSI
		if row.Name != "" {
			rec.Name = row.Name
		}
		if row.IMO != "" {
			rec.IMO = row.IMO
		}
		if row.Callsign != "" {
			rec.Callsign = row.Callsign
		}
		if row.ShipType != "" {
			rec.ShipType = row.ShipType
		}
		if row.Category != "" {
			rec.ShipCategory = core.ShipCategory(row.Category)
		}
		out = append(out, rec)
	}
	return out, nil
}

// AddNote appends a note for the vessel.
func (s *Store) AddNote(mmsi, date, text string) error {
	if mmsi == "" {
		return core.ErrInvalidMMSI
	}
	note := model.VesselNote{
		MMSI: mmsi,
		Date: date,
		Text: text,
	}
	if err := s.manager.DB.Create(&note).Error; err != nil {
		return fmt.Errorf("adding note: %w", err)
	}
	return nil
}

// ListNotes returns the vessel's notes, oldest first.
func (s *Store) ListNotes(mmsi string) ([]core.Note, error) {
	var rows []model.VesselNote
	if err := s.manager.DB.Where("mmsi = ?", mmsi).Order("id asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing notes: %w", err)
	}

	out := make([]core.Note, 0, len(rows))
	for _, row := range rows {
		out = append(out, core.Note{
			ID:   row.ID,
			MMSI: row.MMSI,
			Date: row.Date,
			Text: row.Text,
		})
	}
	return out, nil
}
