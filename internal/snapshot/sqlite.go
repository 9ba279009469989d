package snapshot

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kamusis/adr-cli/internal/vecstore"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS snapshot_info (
    id         INTEGER PRIMARY KEY CHECK (id = 1),
    created_at TEXT NOT NULL,
    model      TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS snapshot_rows (
    ord       INTEGER PRIMARY KEY,
    path      TEXT NOT NULL UNIQUE,
    embedding BLOB NOT NULL,
    meta      TEXT NOT NULL DEFAULT '{}'
);`

// sqlitePragmas put the database in WAL mode so readers keep seeing the last
// committed snapshot while a save is in progress, and make a connection wait
// for a competing lock instead of failing with SQLITE_BUSY.
const sqlitePragmas = "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

// SQLiteStore keeps a snapshot in a SQLite database. A save rewrites both
// tables inside one transaction.
type SQLiteStore struct {
	path string
}

// NewSQLiteStore returns a store for the SQLite database at path.
func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

// Location returns the database path.
func (s *SQLiteStore) Location() string {
	return s.path
}

func (s *SQLiteStore) open() (*sql.DB, error) {
	db, err := sql.Open("sqlite", s.path+sqlitePragmas)
	if err != nil {
		return nil, fmt.Errorf("cannot open snapshot db %s: %w", s.path, err)
	}
	return db, nil
}

// Load reads the snapshot. A missing database, or one never written to, yields an empty snapshot.
func (s *SQLiteStore) Load(ctx context.Context) (*vecstore.Snapshot, error) {
	if _, err := os.Stat(s.path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return vecstore.Empty(), nil
		}
		return nil, fmt.Errorf("cannot stat snapshot %s: %w", s.path, err)
	}

	db, err := s.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var tables int
	err = db.QueryRowContext(ctx,
		`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name IN ('snapshot_info', 'snapshot_rows')`).Scan(&tables)
	if err != nil {
		return nil, fmt.Errorf("cannot inspect snapshot db %s: %w", s.path, err)
	}
	if tables < 2 {
		return vecstore.Empty(), nil
	}

	snap := vecstore.Empty()
	var createdAt string
	err = db.QueryRowContext(ctx, `SELECT created_at, model FROM snapshot_info WHERE id = 1`).Scan(&createdAt, &snap.Model)
	if errors.Is(err, sql.ErrNoRows) {
		return snap, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read snapshot info %s: %w", s.path, err)
	}
	if snap.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("invalid created_at %q in %s: %w", createdAt, s.path, err)
	}

	rows, err := db.QueryContext(ctx, `SELECT path, embedding, meta FROM snapshot_rows ORDER BY ord`)
	if err != nil {
		return nil, fmt.Errorf("cannot read snapshot rows %s: %w", s.path, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			r    vecstore.Record
			blob []byte
			meta string
		)
		if err := rows.Scan(&r.Path, &blob, &meta); err != nil {
			return nil, err
		}
		if r.Embedding, err = decodeEmbedding(blob); err != nil {
			return nil, fmt.Errorf("row %s: %w", r.Path, err)
		}
		if err := json.Unmarshal([]byte(meta), &r.Meta); err != nil {
			return nil, fmt.Errorf("row %s: invalid meta JSON: %w", r.Path, err)
		}
		snap.Rows = append(snap.Rows, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return checkLoaded(snap, s.path)
}

// Save replaces the stored snapshot with snap in a single transaction.
func (s *SQLiteStore) Save(ctx context.Context, snap *vecstore.Snapshot) error {
	if err := vecstore.Validate(snap); err != nil {
		return err
	}
	unlock, err := acquireLock(ctx, s.path)
	if err != nil {
		return err
	}
	defer unlock()

	db, err := s.open()
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("cannot create snapshot schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshot_rows`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshot_info(id, created_at, model) VALUES(1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET created_at = excluded.created_at, model = excluded.model`,
		snap.CreatedAt.UTC().Format(time.RFC3339Nano), snap.Model); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO snapshot_rows(ord, path, embedding, meta) VALUES(?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, r := range snap.Rows {
		meta := r.Meta
		if meta == nil {
			meta = map[string]any{}
		}
		mb, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("row %s: cannot encode meta: %w", r.Path, err)
		}
		if _, err := stmt.ExecContext(ctx, i, r.Path, encodeEmbedding(r.Embedding), string(mb)); err != nil {
			return fmt.Errorf("row %s: %w", r.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("cannot commit snapshot: %w", err)
	}
	return nil
}

// encodeEmbedding packs vec as little-endian IEEE 754 float32 values.
func encodeEmbedding(vec []float32) []byte {
	b := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(v))
	}
	return b
}

func decodeEmbedding(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding blob length %d (not multiple of 4)", len(b))
	}
	vec := make([]float32, len(b)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return vec, nil
}
