// Package stores opens the storage backend selected by configuration.
package stores

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmynk/finova/internal/config"
	"github.com/mmynk/finova/internal/storage"
	"github.com/mmynk/finova/internal/storage/postgres"
	"github.com/mmynk/finova/internal/storage/sqlite"
)

// Open returns the store for cfg.DBDriver.
func Open(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.DBDriver {
	case config.DriverSQLite:
		store, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		slog.InfoContext(ctx, "Storage initialized", "driver", cfg.DBDriver, "database", cfg.DBPath)
		return store, nil

	case config.DriverPostgres:
		store, err := postgres.Open(cfg.DatabaseURL, postgres.Options{
			SimpleProtocol: cfg.DBSimpleProtocol,
			MaxOpenConns:   cfg.DBMaxOpenConns,
		})
		if err != nil {
			return nil, err
		}
		slog.InfoContext(ctx, "Storage initialized", "driver", cfg.DBDriver, "simple_protocol", cfg.DBSimpleProtocol)
		return store, nil
	}
	return nil, fmt.Errorf("unsupported store driver %q", cfg.DBDriver)
}
