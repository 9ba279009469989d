// Package retrieval answers "which indexed documents are most like this text".
package retrieval

import (
	"context"
	"fmt"

	"github.com/kamusis/adr-cli/internal/llm"
	"github.com/kamusis/adr-cli/internal/metrics"
	"github.com/kamusis/adr-cli/internal/vecstore"
)

const (
	// DefaultTopK favours a short, precise evidence list.
	DefaultTopK = 5
	// DefaultMinScore drops loosely related documents.
	DefaultMinScore = 0.2
)

// ErrModelMismatch is returned when the snapshot was built with a different
// embedding model than the one configured for the query.
var ErrModelMismatch = fmt.Errorf("%w: embedding model mismatch", vecstore.ErrConfiguration)

// FindRelated embeds queryText with a single call and ranks snap against it.
// An empty snapshot yields an empty result and the embedder is not called.
func FindRelated(ctx context.Context, emb llm.Embedder, snap *vecstore.Snapshot, queryText string, topK int, minScore float64) ([]vecstore.Result, error) {
	results, err := findRelated(ctx, emb, snap, queryText, topK, minScore)
	metrics.RelatedQueriesTotal.WithLabelValues(metrics.Status(err)).Inc()
	return results, err
}

func findRelated(ctx context.Context, emb llm.Embedder, snap *vecstore.Snapshot, queryText string, topK int, minScore float64) ([]vecstore.Result, error) {
	if snap.Len() == 0 {
		return []vecstore.Result{}, nil
	}
	if snap.Model != "" && emb.ModelID() != "" && snap.Model != emb.ModelID() {
		return nil, fmt.Errorf("%w: snapshot built with %s, querying with %s; rebuild the index",
			ErrModelMismatch, snap.Model, emb.ModelID())
	}

	vecs, err := emb.Embed(ctx, []string{queryText})
	if err != nil {
		return nil, fmt.Errorf("cannot embed query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, &llm.CollaboratorError{Provider: emb.ModelID(), Op: "embed",
			Err: fmt.Errorf("got %d embeddings for 1 query", len(vecs))}
	}

	return vecstore.SimilaritySearch(vecs[0], snap, topK, minScore)
}
