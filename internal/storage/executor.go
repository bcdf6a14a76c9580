package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/runnerr0/archistory/internal/chrometime"
	"github.com/runnerr0/archistory/internal/snapshot"
)

// DefaultQueryTimeout bounds a single open+query against one snapshot.
const DefaultQueryTimeout = 5 * time.Second

const (
	countSQL = `SELECT COUNT(*) FROM visits JOIN urls ON visits.url = urls.id WHERE `
	fetchSQL = `
		SELECT urls.url, urls.title, visits.visit_time
		FROM visits
		JOIN urls ON visits.url = urls.id
		WHERE %s
		ORDER BY visits.visit_time DESC
		LIMIT ? OFFSET ?
	`
)

// ExecutorOptions configures an Executor.
type ExecutorOptions struct {
	Timeout time.Duration
	Logger  *slog.Logger
}

// Executor runs read-only queries against a single profile snapshot.
type Executor struct {
	timeout time.Duration
	logger  *slog.Logger
}

// CountResult is the outcome of Executor.Count. Count is 0 when Err is set.
type CountResult struct {
	Profile string
	Count   int
	Err     error
}

// FetchResult is the outcome of Executor.Fetch. Records is empty, never nil,
// when Err is set.
type FetchResult struct {
	Profile string
	Records []VisitRecord
	Err     error
}

// NewExecutor creates an Executor.
func NewExecutor(opts ExecutorOptions) *Executor {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultQueryTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Executor{timeout: opts.Timeout, logger: opts.Logger}
}

// Count returns the number of visits in snap matching p.
func (e *Executor) Count(ctx context.Context, snap snapshot.Snapshot, p Predicate) CountResult {
	res := CountResult{Profile: snap.Profile}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	db, err := e.open(ctx, snap)
	if err != nil {
		res.Err = &QueryError{Profile: snap.Profile, Op: "open", Err: err}
		return res
	}
	defer db.Close()

	var n int
	if err := db.QueryRowContext(ctx, countSQL+p.Where(), p.Args...).Scan(&n); err != nil {
		res.Err = &QueryError{Profile: snap.Profile, Op: "count", Err: err}
		return res
	}

	res.Count = n
	return res
}

// Fetch returns up to limit visits matching p, newest first, skipping offset.
func (e *Executor) Fetch(ctx context.Context, snap snapshot.Snapshot, p Predicate, limit, offset int) FetchResult {
	res := FetchResult{Profile: snap.Profile, Records: []VisitRecord{}}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	db, err := e.open(ctx, snap)
	if err != nil {
		res.Err = &QueryError{Profile: snap.Profile, Op: "open", Err: err}
		return res
	}
	defer db.Close()

	args := make([]any, 0, len(p.Args)+2)
	args = append(args, p.Args...)
	args = append(args, limit, offset)

	records, err := e.scanRecords(ctx, db, snap.Profile, fmt.Sprintf(fetchSQL, p.Where()), args...)
	if err != nil {
		res.Err = &QueryError{Profile: snap.Profile, Op: "fetch", Err: err}
		return res
	}

	res.Records = records
	return res
}

// open returns a read-only handle on the snapshot. The file is checked first
// so a missing snapshot is reported as such rather than as a driver error.
func (e *Executor) open(ctx context.Context, snap snapshot.Snapshot) (*sql.DB, error) {
	if snap.Path == "" {
		return nil, ErrSnapshotMissing
	}
	if _, err := os.Stat(snap.Path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSnapshotMissing, snap.Path)
		}
		return nil, err
	}

	dsn, err := readOnlyDSN(snap.Path, e.timeout)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func (e *Executor) scanRecords(ctx context.Context, db *sql.DB, profile, query string, args ...any) ([]VisitRecord, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []VisitRecord{}
	for rows.Next() {
		var (
			rawURL    sql.NullString
			title     sql.NullString
			visitTime int64
		)
		if err := rows.Scan(&rawURL, &title, &visitTime); err != nil {
			return nil, fmt.Errorf("scan visit: %w", err)
		}

		ts, err := chrometime.ToTime(visitTime)
		if err != nil {
			e.logger.Debug("skipping visit with unusable timestamp", "profile", profile, "error", err)
			continue
		}

		r := VisitRecord{
			URL:       rawURL.String,
			Title:     title.String,
			VisitTime: ts,
			Profile:   profile,
		}
		if r.Title == "" {
			r.Title = NoTitle
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// readOnlyDSN builds a SQLite URI that opens path read-only.
func readOnlyDSN(path string, busy time.Duration) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("mode", "ro")
	q.Set("_busy_timeout", strconv.FormatInt(busy.Milliseconds(), 10))

	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs), RawQuery: q.Encode()}
	return u.String(), nil
}
