package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

var sqlitePragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA foreign_keys = ON",
	"PRAGMA busy_timeout = 5000",
}

const snapshotSchema = `
CREATE TABLE IF NOT EXISTS snapshot_records (
	kind    TEXT NOT NULL,
	id      TEXT NOT NULL,
	record  TEXT NOT NULL,
	PRIMARY KEY (kind, id)
);

CREATE TABLE IF NOT EXISTS snapshot_meta (
	kind        TEXT PRIMARY KEY,
	fetched_at  TEXT NOT NULL,
	record_count INTEGER NOT NULL
);`

// Store persists cache snapshots on local disk so a restart can serve
// lookups without a cold-start fetch. Each snapshot is replaced wholesale
// inside one transaction; a failed refresh never corrupts the previous one.
type Store struct {
	db *sql.DB
}

func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	for _, pragma := range sqlitePragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(snapshotSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure snapshot schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Replace swaps the on-disk snapshot for kind in one transaction.
func (s *Store) Replace(ctx context.Context, kind Kind, records map[string]json.RawMessage, fetchedAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshot_records WHERE kind = ?`, string(kind)); err != nil {
		return fmt.Errorf("clear %s snapshot: %w", kind, err)
	}
	for id, record := range records {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO snapshot_records (kind, id, record)
VALUES (?, ?, ?)`, string(kind), id, string(record)); err != nil {
			return fmt.Errorf("insert %s record %s: %w", kind, id, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `
INSERT INTO snapshot_meta (kind, fetched_at, record_count)
VALUES (?, ?, ?)
ON CONFLICT(kind) DO UPDATE SET fetched_at = excluded.fetched_at, record_count = excluded.record_count`,
		string(kind), fetchedAt.UTC().Format(time.RFC3339Nano), len(records)); err != nil {
		return fmt.Errorf("update %s meta: %w", kind, err)
	}
	return tx.Commit()
}

// Load reads the snapshot for kind. A missing snapshot returns an empty map
// and a zero fetch time, not an error.
func (s *Store) Load(ctx context.Context, kind Kind) (map[string]json.RawMessage, time.Time, error) {
	var fetchedRaw string
	err := s.db.QueryRowContext(ctx, `SELECT fetched_at FROM snapshot_meta WHERE kind = ?`, string(kind)).Scan(&fetchedRaw)
	if err == sql.ErrNoRows {
		return map[string]json.RawMessage{}, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("load %s meta: %w", kind, err)
	}
	fetchedAt, err := time.Parse(time.RFC3339Nano, fetchedRaw)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("parse %s fetched_at: %w", kind, err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, record FROM snapshot_records WHERE kind = ?`, string(kind))
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("load %s records: %w", kind, err)
	}
	defer rows.Close()

	records := map[string]json.RawMessage{}
	for rows.Next() {
		var id, record string
		if err := rows.Scan(&id, &record); err != nil {
			return nil, time.Time{}, fmt.Errorf("scan %s record: %w", kind, err)
		}
		records[id] = json.RawMessage(record)
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, err
	}
	return records, fetchedAt, nil
}
