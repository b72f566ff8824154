package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"mercator-hq/importcheck/pkg/config"
	"mercator-hq/importcheck/pkg/report"
)

// New opens the backend selected by cfg.Backend.
func New(cfg config.StorageConfig) (report.Storage, error) {
	switch cfg.Backend {
	case "memory":
		return NewMemoryStorage(), nil
	case "sqlite", "":
		if cfg.Path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
				return nil, report.NewStorageError(sqliteBackend, "open", err)
			}
		}
		return NewSQLiteStorage(&SQLiteConfig{
			Driver:       cfg.Driver,
			Path:         cfg.Path,
			MaxOpenConns: cfg.MaxOpenConns,
			MaxIdleConns: cfg.MaxIdleConns,
			WALMode:      config.BoolValue(cfg.WALMode, config.DefaultStorageWALMode),
			BusyTimeout:  cfg.BusyTimeout,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
