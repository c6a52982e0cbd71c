package store

import (
	"errors"
	"fmt"

	"github.com/adethefirst1/odysia/internal/store/migrations"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// MigrateResult reports the schema version before and after a Migrate.
type MigrateResult struct {
	From    uint // 0 for a fresh database
	Version uint
	Dirty   bool
}

// Changed reports whether any migration ran.
func (r *MigrateResult) Changed() bool {
	return r.From != r.Version
}

// Migrate applies every pending migration.
func (db *DB) Migrate() (*MigrateResult, error) {
	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("migration source: %w", err)
	}
	driver, err := sqlite3.WithInstance(db.DB, &sqlite3.Config{})
	if err != nil {
		return nil, fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return nil, fmt.Errorf("migration instance: %w", err)
	}

	var result MigrateResult
	if v, _, err := m.Version(); err == nil {
		result.From = v
	} else if !errors.Is(err, migrate.ErrNilVersion) {
		return nil, fmt.Errorf("schema version: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return nil, fmt.Errorf("migrate %s from v%d: %w", db.path, result.From, err)
	}

	result.Version, result.Dirty, err = m.Version()
	if err != nil {
		return nil, fmt.Errorf("schema version: %w", err)
	}
	return &result, nil
}
