package indexer

import (
	"sort"

	"github.com/kamusis/adr-cli/internal/corpus"
	"github.com/kamusis/adr-cli/internal/vecstore"
)

// Drift lists how the corpus has moved away from a snapshot.
type Drift struct {
	Added   []string
	Removed []string
	Changed []string
}

// Stale reports whether the snapshot no longer matches the corpus.
func (d Drift) Stale() bool {
	return len(d.Added)+len(d.Removed)+len(d.Changed) > 0
}

// CheckFreshness compares snap with the corpus currently on disk.
func CheckFreshness(snap *vecstore.Snapshot, root string, patterns []string) (Drift, error) {
	docs, err := corpus.Discover(root, patterns)
	if err != nil {
		return Drift{}, err
	}
	hashes, err := corpus.Hashes(docs)
	if err != nil {
		return Drift{}, err
	}
	return Compare(snap, hashes), nil
}

// Compare diffs snapshot rows against current content hashes keyed by path.
// Rows without a recorded hash count as changed.
func Compare(snap *vecstore.Snapshot, current map[string]string) Drift {
	var d Drift
	indexed := make(map[string]struct{}, snap.Len())
	if snap != nil {
		for _, r := range snap.Rows {
			indexed[r.Path] = struct{}{}
			h, ok := current[r.Path]
			if !ok {
				d.Removed = append(d.Removed, r.Path)
				continue
			}
			if prev, _ := r.Meta[corpus.MetaHash].(string); prev == "" || prev != h {
				d.Changed = append(d.Changed, r.Path)
			}
		}
	}
	for p := range current {
		if _, ok := indexed[p]; !ok {
			d.Added = append(d.Added, p)
		}
	}
	sort.Strings(d.Added)
	sort.Strings(d.Removed)
	sort.Strings(d.Changed)
	return d
}
