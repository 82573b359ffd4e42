// Package sqlite provides a SQLite-backed storage driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"entgo.io/ent/dialect"
	_ "github.com/mattn/go-sqlite3"

	entdriver "github.com/papercomputeco/folio/pkg/storage/ent/driver"
)

// Driver implements storage.Driver using SQLite via the ent driver
type Driver struct {
	*entdriver.EntDriver
}

// NewDriver creates a new SQLite-backed store.
// The dbPath can be a file path or ":memory:" for an in-memory database.
func NewDriver(ctx context.Context, dbPath string, logger *slog.Logger) (*Driver, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("database path is required")
	}

	// Open the database using the github.com/mattn/go-sqlite3 driver (registered as "sqlite3")
	db, err := sql.Open("sqlite3", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer; an in-memory database additionally
	// lives only as long as its connection.
	db.SetMaxOpenConns(1)

	drv, err := entdriver.New(ctx, db, dialect.SQLite, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	logger.Debug("sqlite storage driver initialized", "db_path", dbPath)

	return &Driver{EntDriver: drv}, nil
}

// dsn enables foreign keys, which ent's migrator requires.
func dsn(path string) string {
	if strings.Contains(path, "_fk=") || strings.Contains(path, "_foreign_keys=") {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	if path == ":memory:" {
		return "file::memory:?_fk=1"
	}
	return path + sep + "_fk=1"
}
