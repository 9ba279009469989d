// Package snapshot persists index snapshots.
//
// Every Save replaces the previous snapshot as a whole: readers observe either
// the old complete snapshot or the new one, never a partial write. Loading a
// location that holds no snapshot yields an empty snapshot, not an error.
package snapshot

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kamusis/adr-cli/internal/vecstore"
)

// Store loads and replaces whole snapshots at one location.
type Store interface {
	Load(ctx context.Context) (*vecstore.Snapshot, error)
	Save(ctx context.Context, snap *vecstore.Snapshot) error
	Location() string
}

// Open returns the store for path, chosen by file extension:
// .db/.sqlite/.sqlite3 use SQLite, anything else a JSON document
// (zstd-compressed when the name ends in .zst).
func Open(path string) Store {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return NewSQLiteStore(path)
	default:
		return NewFileStore(path)
	}
}

// checkLoaded normalizes a decoded snapshot and rejects inconsistent ones.
func checkLoaded(snap *vecstore.Snapshot, location string) (*vecstore.Snapshot, error) {
	if snap.Rows == nil {
		snap.Rows = []vecstore.Record{}
	}
	if err := vecstore.Validate(snap); err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", location, err)
	}
	return snap, nil
}
