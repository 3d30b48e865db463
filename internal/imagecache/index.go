package imagecache

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"apod/internal/logging"
	"apod/internal/services"
)

//go:embed schema.sql
var schemaSQL string

const (
	uniqueHashIndex = "idx_apod_sha256"
	plainHashIndex  = "idx_apod_sha256_lookup"

	sqliteBusyCode             = 5
	sqliteConstraintUniqueCode = 2067
	busyRetryAttempts          = 5
	busyRetryInitialBackoff    = 10 * time.Millisecond
	busyRetryMaxBackoff        = 200 * time.Millisecond
)

// ErrDuplicateHash is returned by Insert when another record already holds the
// same content hash.
var ErrDuplicateHash = errors.New("content hash already indexed")

// Record is one cached image.
type Record struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Explanation string `json:"explanation"`
	FilePath    string `json:"file_path"`
	ContentHash string `json:"sha256"`
}

// Index is the SQLite-backed record store.
type Index struct {
	db         *sql.DB
	path       string
	logger     *slog.Logger
	uniqueHash bool
}

// OpenIndex creates the database location if needed, opens it and makes sure
// the schema exists. Every failure is classified as services.ErrStorageInit.
func OpenIndex(ctx context.Context, dbPath string, logger *slog.Logger) (*Index, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, services.Wrap(services.ErrStorageInit, "imagecache", "open index", "database path is empty", nil)
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, services.Wrap(services.ErrStorageInit, "imagecache", "open index", "create database directory", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, services.Wrap(services.ErrStorageInit, "imagecache", "open index", "open sqlite db", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, services.Wrap(services.ErrStorageInit, "imagecache", "open index", fmt.Sprintf("apply pragma %q", pragma), execErr)
		}
	}

	index := &Index{
		db:     db,
		path:   dbPath,
		logger: logging.NewComponentLogger(logger, "imagecache"),
	}
	if err := index.EnsureInitialized(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return index, nil
}

// EnsureInitialized creates the table and indexes when absent. It never
// touches existing rows and is safe to call repeatedly.
func (x *Index) EnsureInitialized(ctx context.Context) error {
	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return services.Wrap(services.ErrStorageInit, "imagecache", "init schema", "begin tx", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return services.Wrap(services.ErrStorageInit, "imagecache", "init schema", "create schema", err)
	}

	var duplicates int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM (SELECT sha256 FROM apod GROUP BY sha256 HAVING COUNT(1) > 1)`,
	).Scan(&duplicates); err != nil {
		return services.Wrap(services.ErrStorageInit, "imagecache", "init schema", "check duplicate hashes", err)
	}

	if duplicates == 0 {
		if _, err := tx.ExecContext(ctx, "CREATE UNIQUE INDEX IF NOT EXISTS "+uniqueHashIndex+" ON apod(sha256)"); err != nil {
			return services.Wrap(services.ErrStorageInit, "imagecache", "init schema", "create unique hash index", err)
		}
	} else {
		if _, err := tx.ExecContext(ctx, "CREATE INDEX IF NOT EXISTS "+plainHashIndex+" ON apod(sha256)"); err != nil {
			return services.Wrap(services.ErrStorageInit, "imagecache", "init schema", "create hash index", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return services.Wrap(services.ErrStorageInit, "imagecache", "init schema", "commit", err)
	}

	x.uniqueHash = duplicates == 0
	if !x.uniqueHash {
		logging.WarnWithContext(x.logger, "index holds duplicate content hashes", "index_duplicates",
			logging.Int("duplicate_hashes", duplicates),
			logging.Path(x.path),
			logging.String(logging.FieldImpact, "concurrent fetches of the same image may create extra rows"),
			logging.String(logging.FieldErrorHint, "remove the extra rows to enable the unique hash constraint"),
		)
	}
	return nil
}

// Path returns the database file location.
func (x *Index) Path() string {
	if x == nil {
		return ""
	}
	return x.path
}

// UniqueHashes reports whether the database enforces one row per hash.
func (x *Index) UniqueHashes() bool {
	return x != nil && x.uniqueHash
}

// Close closes the underlying database handle.
func (x *Index) Close() error {
	if x == nil || x.db == nil {
		return nil
	}
	return x.db.Close()
}

// FindByHash returns the id of the oldest record holding digest.
func (x *Index) FindByHash(ctx context.Context, digest string) (int64, bool, error) {
	digest = strings.ToLower(strings.TrimSpace(digest))
	var id int64
	err := retryOnBusy(ctx, func() error {
		return x.db.QueryRowContext(ctx,
			`SELECT id FROM apod WHERE sha256 = ? ORDER BY id ASC LIMIT 1`, digest,
		).Scan(&id)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, services.Wrap(services.ErrStorageRead, "imagecache", "find by hash", "", err)
	}
	return id, true, nil
}

// Insert appends a record and returns its assigned id. The ID field of rec
// is ignored.
func (x *Index) Insert(ctx context.Context, rec Record) (int64, error) {
	var res sql.Result
	err := retryOnBusy(ctx, func() error {
		var execErr error
		res, execErr = x.db.ExecContext(ctx,
			`INSERT INTO apod (title, explanation, file_path, sha256) VALUES (?, ?, ?, ?)`,
			rec.Title, rec.Explanation, rec.FilePath, strings.ToLower(rec.ContentHash),
		)
		return execErr
	})
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: %s", ErrDuplicateHash, rec.ContentHash)
		}
		return 0, services.Wrap(services.ErrStorageWrite, "imagecache", "insert", "", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, services.Wrap(services.ErrStorageWrite, "imagecache", "insert", "read inserted id", err)
	}
	return id, nil
}

// GetByID returns the record with id, or nil when none exists.
func (x *Index) GetByID(ctx context.Context, id int64) (*Record, error) {
	return x.getOne(ctx, "get by id",
		`SELECT id, title, explanation, file_path, sha256 FROM apod WHERE id = ?`, id)
}

// GetByTitle returns the most recently inserted record with an exact title
// match, or nil when none exists.
func (x *Index) GetByTitle(ctx context.Context, title string) (*Record, error) {
	return x.getOne(ctx, "get by title",
		`SELECT id, title, explanation, file_path, sha256 FROM apod WHERE title = ? ORDER BY id DESC LIMIT 1`, title)
}

// ListTitles returns every title in the index in insertion order.
func (x *Index) ListTitles(ctx context.Context) ([]string, error) {
	var titles []string
	err := x.queryRows(ctx, `SELECT title FROM apod ORDER BY id`, func(rows *sql.Rows) error {
		var title string
		if err := rows.Scan(&title); err != nil {
			return err
		}
		titles = append(titles, title)
		return nil
	}, func() { titles = nil })
	if err != nil {
		return nil, services.Wrap(services.ErrStorageRead, "imagecache", "list titles", "", err)
	}
	return titles, nil
}

// List returns all records ordered by id.
func (x *Index) List(ctx context.Context) ([]Record, error) {
	var records []Record
	err := x.queryRows(ctx, `SELECT id, title, explanation, file_path, sha256 FROM apod ORDER BY id`, func(rows *sql.Rows) error {
		rec, err := scanRecord(rows)
		if err != nil {
			return err
		}
		records = append(records, *rec)
		return nil
	}, func() { records = nil })
	if err != nil {
		return nil, services.Wrap(services.ErrStorageRead, "imagecache", "list", "", err)
	}
	return records, nil
}

// Count returns the number of records.
func (x *Index) Count(ctx context.Context) (int, error) {
	var n int
	err := retryOnBusy(ctx, func() error {
		return x.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM apod`).Scan(&n)
	})
	if err != nil {
		return 0, services.Wrap(services.ErrStorageRead, "imagecache", "count", "", err)
	}
	return n, nil
}

// queryRows runs query under retryOnBusy and hands each row to scan. reset
// discards partial results before a retry.
func (x *Index) queryRows(ctx context.Context, query string, scan func(*sql.Rows) error, reset func()) error {
	return retryOnBusy(ctx, func() error {
		reset()
		rows, err := x.db.QueryContext(ctx, query)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			if err := scan(rows); err != nil {
				return err
			}
		}
		return rows.Err()
	})
}

func (x *Index) getOne(ctx context.Context, operation, query string, arg any) (*Record, error) {
	var rec *Record
	err := retryOnBusy(ctx, func() error {
		var scanErr error
		rec, scanErr = scanRecord(x.db.QueryRowContext(ctx, query, arg))
		return scanErr
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, services.Wrap(services.ErrStorageRead, "imagecache", operation, "", err)
	}
	return rec, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*Record, error) {
	var rec Record
	if err := s.Scan(&rec.ID, &rec.Title, &rec.Explanation, &rec.FilePath, &rec.ContentHash); err != nil {
		return nil, err
	}
	return &rec, nil
}

func sqliteCode(err error) (int, bool) {
	var coder interface{ Code() int }
	if errors.As(err, &coder) {
		return coder.Code(), true
	}
	return 0, false
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := sqliteCode(err); ok && code&0xff == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := sqliteCode(err); ok && code == sqliteConstraintUniqueCode {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
