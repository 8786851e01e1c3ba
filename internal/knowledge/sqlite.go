package knowledge

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/zeddy89/Context-Engine/internal/errkind"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// SQLiteStore keeps every record in one table of a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path, applies the
// WAL pragmas and runs migrations.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errkind.New(errkind.ErrStoreUnavailable, "open knowledge db", err)
	}

	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, errkind.New(errkind.ErrStoreUnavailable, "open knowledge db", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, errkind.New(errkind.ErrStoreUnavailable, "open knowledge db", fmt.Errorf("pragma %q: %w", p, err))
		}
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, errkind.New(errkind.ErrStoreUnavailable, "migrate knowledge db", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS records (
			seq        INTEGER PRIMARY KEY AUTOINCREMENT,
			id         TEXT    NOT NULL UNIQUE,
			category   TEXT    NOT NULL,
			body       TEXT    NOT NULL,
			task_id    TEXT,
			created_at TEXT    NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_records_category ON records(category, created_at DESC);
	`)
	return err
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Append inserts a new record.
func (s *SQLiteStore) Append(ctx context.Context, in NewRecord) (Record, error) {
	in, err := validateNew(in)
	if err != nil {
		return Record{}, err
	}
	rec := Record{
		ID:        uuid.NewString(),
		Category:  in.Category,
		CreatedAt: timeNow().UTC(),
		Body:      in.Body,
		Task:      in.Task,
	}

	var task any
	if rec.Task != "" {
		task = rec.Task
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO records (id, category, body, task_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, string(rec.Category), rec.Body, task, rec.CreatedAt.Format(timestampLayout),
	)
	if err != nil {
		return Record{}, errkind.New(errkind.ErrWriteFailure, "append knowledge", err)
	}
	return rec, nil
}

// Recent returns at most n records of category c, newest first. Records
// sharing a timestamp come back in reverse insertion order.
func (s *SQLiteStore) Recent(ctx context.Context, c Category, n int) ([]Record, error) {
	if n <= 0 {
		return nil, nil
	}
	if _, ok := dirNames[c]; !ok {
		return nil, fmt.Errorf("invalid category %q", c)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, category, body, ifnull(task_id, ''), created_at
		 FROM records
		 WHERE category = ?
		 ORDER BY created_at DESC, seq DESC
		 LIMIT ?`,
		string(c), n,
	)
	if err != nil {
		return nil, errkind.New(errkind.ErrStoreUnavailable, "read "+string(c)+" records", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r       Record
			cat     string
			created string
		)
		if err := rows.Scan(&r.ID, &cat, &r.Body, &r.Task, &created); err != nil {
			return nil, errkind.New(errkind.ErrStoreUnavailable, "read "+string(c)+" records", err)
		}
		r.Category = Category(cat)
		r.CreatedAt, err = time.Parse(timestampLayout, created)
		if err != nil {
			return nil, errkind.New(errkind.ErrStoreUnavailable, "read "+string(c)+" records",
				fmt.Errorf("record %s: bad created_at %q: %w", r.ID, created, err))
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errkind.New(errkind.ErrStoreUnavailable, "read "+string(c)+" records", err)
	}
	return out, nil
}

// Count returns the number of records in c.
func (s *SQLiteStore) Count(ctx context.Context, c Category) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM records WHERE category = ?`, string(c)).Scan(&n)
	if err != nil {
		return 0, errkind.New(errkind.ErrStoreUnavailable, "count "+string(c)+" records", err)
	}
	return n, nil
}
