package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/kamusis/adr-cli/internal/vecstore"
)

// snapshotMode is the permission of an installed snapshot file.
const snapshotMode = 0o644

// FileStore keeps a snapshot as a single JSON document.
type FileStore struct {
	path string
}

// NewFileStore returns a store for the JSON snapshot at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Location returns the snapshot file path.
func (s *FileStore) Location() string {
	return s.path
}

func (s *FileStore) compressed() bool {
	return strings.HasSuffix(s.path, ".zst")
}

// Load reads the snapshot. A missing file yields an empty snapshot.
func (s *FileStore) Load(_ context.Context) (*vecstore.Snapshot, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return vecstore.Empty(), nil
		}
		return nil, fmt.Errorf("cannot open snapshot %s: %w", s.path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if s.compressed() {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("cannot open zstd stream %s: %w", s.path, err)
		}
		defer dec.Close()
		r = dec
	}

	var snap vecstore.Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("invalid snapshot JSON %s: %w", s.path, err)
	}
	return checkLoaded(&snap, s.path)
}

// Save writes snap to a temporary file beside the target and renames it into place.
func (s *FileStore) Save(ctx context.Context, snap *vecstore.Snapshot) error {
	if err := vecstore.Validate(snap); err != nil {
		return err
	}
	unlock, err := acquireLock(ctx, s.path)
	if err != nil {
		return err
	}
	defer unlock()

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("cannot create temp snapshot: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := s.encode(tmp, snap); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("cannot write snapshot: %w", err)
	}
	if err := tmp.Chmod(snapshotMode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("cannot set snapshot mode: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("cannot sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("cannot install snapshot %s: %w", s.path, err)
	}
	committed = true
	syncDir(dir)
	return nil
}

// syncDir flushes the directory entry of a rename. Platforms that cannot
// sync a directory are ignored.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}

func (s *FileStore) encode(w io.Writer, snap *vecstore.Snapshot) error {
	out := *snap
	out.Rows = make([]vecstore.Record, len(snap.Rows))
	for i, r := range snap.Rows {
		if r.Meta == nil {
			r.Meta = map[string]any{}
		}
		out.Rows[i] = r
	}

	if !s.compressed() {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(&out)
	}

	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	if err := json.NewEncoder(zw).Encode(&out); err != nil {
		_ = zw.Close()
		return err
	}
	return zw.Close()
}
