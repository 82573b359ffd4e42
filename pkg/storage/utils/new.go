// Package storageutils builds a storage.Driver from configuration.
package storageutils

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/papercomputeco/folio/pkg/storage"
	"github.com/papercomputeco/folio/pkg/storage/inmemory"
	"github.com/papercomputeco/folio/pkg/storage/postgres"
	"github.com/papercomputeco/folio/pkg/storage/sqlite"
)

type NewStorageDriverOpts struct {
	// ProviderType is one of "memory", "sqlite" or "postgres".
	ProviderType string

	// SQLitePath is the database file for the sqlite provider.
	SQLitePath string

	// PostgresDSN is the connection string for the postgres provider.
	PostgresDSN string

	Logger *slog.Logger
}

func NewStorageDriver(ctx context.Context, o *NewStorageDriverOpts) (storage.Driver, error) {
	switch o.ProviderType {
	case "memory", "inmemory", "":
		return inmemory.NewDriver(), nil
	case "sqlite":
		return sqlite.NewDriver(ctx, o.SQLitePath, o.Logger)
	case "postgres":
		if o.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres DSN is required")
		}
		return postgres.NewDriver(ctx, o.PostgresDSN, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", o.ProviderType)
	}
}
