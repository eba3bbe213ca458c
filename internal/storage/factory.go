// internal/storage/factory.go
package storage

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/vesselwatch/tracker/internal/config"
	"github.com/vesselwatch/tracker/internal/database"
	"github.com/vesselwatch/tracker/internal/storage/dbstore"
	"github.com/vesselwatch/tracker/internal/storage/memory"
)

// NewBackend creates a storage backend based on configuration.
func NewBackend(cfg config.StorageConfig, log zerolog.Logger) (Backend, error) {
	switch cfg.Type {
	case "postgres":
		manager := database.NewManager(log)
		manager.SqliteFilePath = cfg.SqlitePath
		return dbstore.New(manager), nil
	case "sqlite":
		manager := database.NewManager(log)
		manager.SqliteFilePath = cfg.SqlitePath
		manager.ShouldSaveLocal = true
		return dbstore.New(manager), nil
	case "memory":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
