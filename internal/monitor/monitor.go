package monitor

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/vesselwatch/tracker/internal/influx"
	"github.com/vesselwatch/tracker/internal/logging"
	"github.com/vesselwatch/tracker/internal/notify"
	"github.com/vesselwatch/tracker/internal/store"
)

// Dependencies holds all dependencies for the monitor service.
type Dependencies struct {
	Store       *store.VesselStore
	Notifier    *notify.Service
	Influx      *influx.Manager
	LogManager  *logging.SlogManager
	StatusDir   string
	StreamState func() string

	// StreamStats reports cumulative throughput: received, admitted, dropped.
	StreamStats func() (int, int, int)
}

// Status is the snapshot written to the status file every tick.
type Status struct {
	Time           time.Time `json:"time"`
	StreamState    string    `json:"stream_state"`
	DisplayMode    string    `json:"display_mode"`
	CacheSize      int       `json:"cache_size"`
	TrackedCount   int       `json:"tracked_count"`
	DisplaySize    int       `json:"display_size"`
	PendingNotices int       `json:"pending_notices"`
}

// Service manages status monitoring.
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
}

// NewService creates a new monitor service.
func NewService(deps Dependencies) *Service {
	return &Service{
		deps:     deps,
		stopChan: make(chan struct{}),
	}
}

// IsRunning returns whether the status monitor is running.
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Snapshot assembles the current engine status.
func (s *Service) Snapshot() Status {
	streamState := "unknown"
	if s.deps.StreamState != nil {
		streamState = s.deps.StreamState()
	}

	pending := 0
	if s.deps.Notifier != nil {
		pending = s.deps.Notifier.Pending()
	}

	return Status{
		Time:           time.Now().UTC(),
		StreamState:    streamState,
		DisplayMode:    s.deps.Store.Mode().String(),
		CacheSize:      s.deps.Store.Cache().Len(),
		TrackedCount:   s.deps.Store.TrackedCount(),
		DisplaySize:    len(s.deps.Store.DisplaySet()),
		PendingNotices: pending,
	}
}

// Start starts the status monitor goroutine.
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()

		logger := s.deps.LogManager.Logger()
		logger.Debug("Starting status monitor goroutine")

		statusFile, err := os.Create(s.deps.StatusDir + "/status.json")
		if err != nil {
			logger.Error("Error creating status file", "error", err)
		}
		defer statusFile.Close()

		for {
			select {
			case <-s.stopChan:
				return
			default:
				time.Sleep(1000 * time.Millisecond)

				status := s.Snapshot()

				if statusFile != nil {
					statusFile.Truncate(0)
					statusFile.Seek(0, 0)
					enc := json.NewEncoder(statusFile)
					enc.SetIndent("", "  ")
					if err := enc.Encode(status); err != nil {
						logger.Error("Error writing status file", "error", err)
					}
				}

				if s.deps.Influx != nil {
					point := influx.EngineStatusPoint(
						status.CacheSize,
						status.TrackedCount,
						status.DisplaySize,
						status.PendingNotices,
						status.StreamState,
					)
					if err := s.deps.Influx.WritePoint(context.Background(), influx.BucketEngine, point); err != nil {
						logger.Error("Error writing engine status point", "error", err)
					}

					if s.deps.StreamStats != nil {
						received, admitted, dropped := s.deps.StreamStats()
						statsPoint := influx.StreamStatsPoint(received, admitted, dropped)
						if err := s.deps.Influx.WritePoint(context.Background(), influx.BucketStream, statsPoint); err != nil {
							logger.Error("Error writing stream stats point", "error", err)
						}
					}
				}
			}
		}
	}()

	return nil
}

// Stop stops the status monitor.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		close(s.stopChan)
	}
}
