package vecstore

import (
	"fmt"
	"sort"
)

// SimilaritySearch scores every row of snap against query by cosine similarity,
// ranks them descending (ties keep row order), keeps the first k and then drops
// results scoring at or below minScore.
//
// A nil or empty snapshot, or k <= 0, yields an empty result.
func SimilaritySearch(query []float32, snap *Snapshot, k int, minScore float64) ([]Result, error) {
	if snap.Len() == 0 || k <= 0 {
		return []Result{}, nil
	}

	results := make([]Result, 0, len(snap.Rows))
	for _, r := range snap.Rows {
		score, err := Cosine(query, r.Embedding)
		if err != nil {
			return nil, fmt.Errorf("%w: query has %d dimensions, row %s has %d", err, len(query), r.Path, len(r.Embedding))
		}
		results = append(results, Result{Path: r.Path, Score: score})
	}

	SortResults(results)
	if len(results) > k {
		results = results[:k]
	}

	out := results[:0]
	for _, r := range results {
		if r.Score > minScore {
			out = append(out, r)
		}
	}
	return out, nil
}

// SortResults sorts results by score (descending), keeping the input order for equal scores.
func SortResults(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
}
