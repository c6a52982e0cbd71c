package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// pragmas applied to every connection. The RPC handlers and the outbox
// sender write concurrently; the busy timeout queues them.
const pragmas = "_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

// DB is the mock backend's conversation database.
type DB struct {
	*sql.DB
	path string
}

// Open connects to the SQLite file at path.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path+"?"+pragmas)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping %s: %w", path, err)
	}
	return &DB{DB: conn, path: path}, nil
}

// OpenMigrated opens path and brings its schema up to date.
func OpenMigrated(path string) (*DB, *MigrateResult, error) {
	db, err := Open(path)
	if err != nil {
		return nil, nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return db, result, nil
}

// Path returns the database file.
func (db *DB) Path() string {
	return db.path
}
