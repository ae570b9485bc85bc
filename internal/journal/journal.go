// Package journal keeps a SQLite history of captures.
package journal

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/scribe/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS captures (
	id              TEXT PRIMARY KEY,
	path            TEXT NOT NULL,
	template        TEXT NOT NULL DEFAULT '',
	mode            TEXT NOT NULL,
	inserted        TEXT NOT NULL DEFAULT '',
	line            INTEGER NOT NULL DEFAULT 0,
	ch              INTEGER NOT NULL DEFAULT 0,
	before_checksum TEXT NOT NULL DEFAULT '',
	after_checksum  TEXT NOT NULL DEFAULT '',
	created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_captures_path ON captures(path);
CREATE INDEX IF NOT EXISTS idx_captures_created ON captures(created_at);
`

// Journal records and queries captures. Consumers depend on this interface
// so that tests can swap in fakes.
type Journal interface {
	Add(e models.CaptureEntry) (models.CaptureEntry, error)
	Get(id string) (*models.CaptureEntry, error)
	List(limit, offset int, path string) ([]models.CaptureEntry, int, error)
	Search(query string, limit int) ([]models.CaptureEntry, error)
	Close() error
}

var _ Journal = (*DB)(nil)

// DB is the SQLite-backed Journal.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("journal: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("journal: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("journal: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the database.
func (db *DB) Close() error {
	return db.conn.Close()
}
