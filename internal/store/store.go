// Package store opens the core.Store backend selected by configuration.
package store

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/companies/internal/config"
	"github.com/JonMunkholm/companies/internal/core"
	"github.com/JonMunkholm/companies/internal/store/postgres"
	"github.com/JonMunkholm/companies/internal/store/sqlite"
)

// Open connects to the database named by cfg.URL and ensures the schema exists.
func Open(ctx context.Context, cfg config.DatabaseConfig) (core.Store, error) {
	var (
		s   core.Store
		err error
	)

	switch cfg.Driver() {
	case config.DriverPostgres:
		s, err = postgres.Open(ctx, cfg)
	case config.DriverSQLite:
		s, err = sqlite.Open(ctx, cfg.SQLitePath())
	default:
		return nil, fmt.Errorf("unsupported database URL scheme: want postgres://, sqlite: or file:")
	}
	if err != nil {
		return nil, err
	}

	if err := s.EnsureSchema(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}
