package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/starford/scribe/internal/apperr"
	"github.com/starford/scribe/internal/models"
)

const selectColumns = `id, path, template, mode, inserted, line, ch, before_checksum, after_checksum, created_at`

// Add stores e, assigning an ID and a timestamp when they are empty.
func (db *DB) Add(e models.CaptureEntry) (models.CaptureEntry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := db.conn.Exec(`
		INSERT INTO captures (`+selectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.Path, e.Template, e.Mode, e.Inserted, e.Line, e.Ch, e.BeforeChecksum, e.AfterChecksum, e.CreatedAt)
	if err != nil {
		return models.CaptureEntry{}, fmt.Errorf("journal: add: %w", err)
	}
	return e, nil
}

// Get returns one entry by ID.
func (db *DB) Get(id string) (*models.CaptureEntry, error) {
	row := db.conn.QueryRow(`SELECT `+selectColumns+` FROM captures WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("journal: get %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("journal: get %s: %w", id, err)
	}
	return &e, nil
}

// List returns entries newest first, optionally restricted to one file,
// plus the total number of matching entries.
func (db *DB) List(limit, offset int, path string) ([]models.CaptureEntry, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	where, args := "", []any{}
	if path != "" {
		where = ` WHERE path = ?`
		args = append(args, path)
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM captures`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("journal: count: %w", err)
	}

	rows, err := db.conn.Query(`SELECT `+selectColumns+` FROM captures`+where+
		` ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("journal: list: %w", err)
	}
	defer rows.Close()
	out, err := scanAll(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("journal: list: %w", err)
	}
	return out, total, nil
}

// Search matches query against the captured text, the target path and the
// template name.
func (db *DB) Search(query string, limit int) ([]models.CaptureEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + query + "%"
	rows, err := db.conn.Query(`
		SELECT `+selectColumns+`
		FROM captures
		WHERE inserted LIKE ? OR path LIKE ? OR template LIKE ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, like, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: search: %w", err)
	}
	defer rows.Close()
	out, err := scanAll(rows)
	if err != nil {
		return nil, fmt.Errorf("journal: search: %w", err)
	}
	return out, nil
}

// Prune deletes entries older than before and returns how many went.
func (db *DB) Prune(before time.Time) (int64, error) {
	res, err := db.conn.Exec(`DELETE FROM captures WHERE created_at < ?`, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("journal: prune: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (models.CaptureEntry, error) {
	var e models.CaptureEntry
	err := s.Scan(&e.ID, &e.Path, &e.Template, &e.Mode, &e.Inserted, &e.Line, &e.Ch,
		&e.BeforeChecksum, &e.AfterChecksum, &e.CreatedAt)
	return e, err
}

func scanAll(rows *sql.Rows) ([]models.CaptureEntry, error) {
	var out []models.CaptureEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
