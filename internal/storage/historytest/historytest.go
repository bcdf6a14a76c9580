// Package historytest writes Chromium-schema history databases for tests.
package historytest

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/runnerr0/archistory/internal/chrometime"
)

// Visit is one row to insert. URLs are deduplicated into the urls table the
// way the browser does; a nil Title stores NULL.
type Visit struct {
	URL   string
	Title *string
	Time  time.Time
}

// Title returns a pointer for Visit.Title.
func Title(s string) *string {
	return &s
}

// Schema mirrors the columns of the browser's urls and visits tables that
// history search reads, plus the ones the browser always populates.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS urls (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		url             LONGVARCHAR,
		title           LONGVARCHAR,
		visit_count     INTEGER DEFAULT 0 NOT NULL,
		typed_count     INTEGER DEFAULT 0 NOT NULL,
		last_visit_time INTEGER NOT NULL,
		hidden          INTEGER DEFAULT 0 NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS visits (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		url            INTEGER NOT NULL,
		visit_time     INTEGER NOT NULL,
		from_visit     INTEGER,
		transition     INTEGER DEFAULT 0 NOT NULL,
		segment_id     INTEGER,
		visit_duration INTEGER DEFAULT 0 NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS urls_url_index ON urls(url)`,
	`CREATE INDEX IF NOT EXISTS visits_url_index ON visits(url)`,
	`CREATE INDEX IF NOT EXISTS visits_time_index ON visits(visit_time)`,
}

// Write creates (or extends) a history database at path with visits.
func Write(path string, visits []Visit) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create fixture dir: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("open fixture: %w", err)
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, stmt := range Schema {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}

	for _, v := range visits {
		micros, err := chrometime.FromTime(v.Time)
		if err != nil {
			return err
		}
		if err := insertVisit(tx, v, micros); err != nil {
			return fmt.Errorf("insert %s: %w", v.URL, err)
		}
	}

	return tx.Commit()
}

// MustWrite is Write for tests.
func MustWrite(t testing.TB, path string, visits ...Visit) string {
	t.Helper()
	if err := Write(path, visits); err != nil {
		t.Fatalf("write history fixture: %v", err)
	}
	return path
}

func insertVisit(tx *sql.Tx, v Visit, micros int64) error {
	var urlID int64
	err := tx.QueryRow(`SELECT id FROM urls WHERE url = ?`, v.URL).Scan(&urlID)
	switch {
	case err == sql.ErrNoRows:
		var title any
		if v.Title != nil {
			title = *v.Title
		}
		res, err := tx.Exec(
			`INSERT INTO urls (url, title, visit_count, last_visit_time) VALUES (?, ?, 0, ?)`,
			v.URL, title, micros,
		)
		if err != nil {
			return err
		}
		if urlID, err = res.LastInsertId(); err != nil {
			return err
		}
	case err != nil:
		return err
	}

	if _, err := tx.Exec(
		`INSERT INTO visits (url, visit_time) VALUES (?, ?)`, urlID, micros,
	); err != nil {
		return err
	}

	_, err = tx.Exec(`
		UPDATE urls
		SET visit_count = visit_count + 1,
		    last_visit_time = MAX(last_visit_time, ?)
		WHERE id = ?`, micros, urlID)
	return err
}
