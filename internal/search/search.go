// Package search resolves user queries against local state first and the
// backend second.
package search

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/vesselwatch/tracker/internal/filter"
	"github.com/vesselwatch/tracker/internal/notify"
	"github.com/vesselwatch/tracker/internal/store"
	"github.com/vesselwatch/tracker/pkg/core"
)

// Remote is the backend surface search falls through to.
type Remote interface {
	QueryBoundingBox(b core.ViewportBounds) ([]core.VesselRecord, error)
}

// Service answers identifier and area queries.
type Service struct {
	store    *store.VesselStore
	remote   Remote
	notifier notify.Notifier
	logger   *slog.Logger
}

// New creates a search service.
func New(s *store.VesselStore, remote Remote, notifier notify.Notifier, logger *slog.Logger) *Service {
	return &Service{
		store:    s,
		remote:   remote,
		notifier: notifier,
		logger:   logger,
	}
}

// FindByIdentifier resolves a query to a single vessel. An all-digit query
// is an MMSI lookup, checked against tracked vessels before the live cache;
// anything else is a case-insensitive name substring match, first hit wins.
func (s *Service) FindByIdentifier(query string) (core.VesselRecord, bool) {
	query = strings.TrimSpace(query)
	if query == "" {
		return core.VesselRecord{}, false
	}

	if core.IsDigits(query) {
		return s.findByMMSI(query)
	}
	return s.findByName(query)
}

func (s *Service) findByMMSI(mmsi string) (core.VesselRecord, bool) {
	for _, t := range s.store.Tracked() {
		if t.MMSI == mmsi {
			return t.VesselRecord, true
		}
	}
	if rec, ok := s.store.Cache().Get(mmsi); ok {
		return rec, true
	}
	return core.VesselRecord{}, false
}

func (s *Service) findByName(query string) (core.VesselRecord, bool) {
	needle := strings.ToLower(query)

	for _, t := range s.store.Tracked() {
		if strings.Contains(strings.ToLower(t.Name), needle) {
			return t.VesselRecord, true
		}
	}

	// Deterministic first match over the cache.
	live := s.store.Cache().All()
	sort.Slice(live, func(i, j int) bool { return live[i].MMSI < live[j].MMSI })
	for _, rec := range live {
		if strings.Contains(strings.ToLower(rec.Name), needle) {
			return rec, true
		}
	}
	return core.VesselRecord{}, false
}

// FindInBoundingBox returns the vessels inside the rectangle that pass the
// given filter state. Local state is consulted first; only when it yields no
// visible match does the backend get asked, so a cache full of filtered-out
// vessels still falls through. Remote results are deduped, admitted into the
// cache, and returned filtered. A remote failure is a transient
// notification, never an error to the caller.
func (s *Service) FindInBoundingBox(b core.ViewportBounds, filters core.FilterState) ([]core.VesselRecord, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	local := filter.Apply(store.Dedupe(s.localInBounds(b)), filters)
	if len(local) > 0 {
		return local, nil
	}

	if s.remote == nil {
		return nil, nil
	}

	remote, err := s.remote.QueryBoundingBox(b)
	if err != nil {
		s.logger.Warn("Bounding box query failed", "error", err)
		if s.notifier != nil {
			s.notifier.Notify(notify.SeverityWarning,
				fmt.Sprintf("Area search unavailable: %v", err))
		}
		return nil, nil
	}

	remote = store.Dedupe(remote)
	for _, rec := range remote {
		s.store.ApplyUpdate(rec)
	}
	return filter.Apply(remote, filters), nil
}

func (s *Service) localInBounds(b core.ViewportBounds) []core.VesselRecord {
	var out []core.VesselRecord
	for _, t := range s.store.Tracked() {
		if b.Contains(t.Latitude, t.Longitude) {
			out = append(out, t.VesselRecord)
		}
	}
	for _, rec := range s.store.Cache().All() {
		if b.Contains(rec.Latitude, rec.Longitude) {
			out = append(out, rec)
		}
	}
	return out
}
