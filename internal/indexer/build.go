// Package indexer builds index snapshots from the document corpus.
package indexer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/kamusis/adr-cli/internal/corpus"
	"github.com/kamusis/adr-cli/internal/llm"
	"github.com/kamusis/adr-cli/internal/metrics"
	"github.com/kamusis/adr-cli/internal/snapshot"
	"github.com/kamusis/adr-cli/internal/vecstore"
)

// Options controls index building.
type Options struct {
	// Root is the directory corpus patterns are resolved against.
	Root     string
	Patterns []string
	// Normalize stores unit-length embeddings.
	Normalize bool
	Logger    *slog.Logger
	// OnBlank is told about every matching file that holds only whitespace.
	// Such files are not input documents and get no row. When nil they are
	// logged at warn level.
	OnBlank func(path string)
	// Now defaults to time.Now.
	Now func() time.Time
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// BuildIndex discovers the corpus, embeds every document with a single batched
// call and returns the resulting snapshot. Nothing is persisted.
//
// An empty corpus yields an empty snapshot without calling the embedder.
func BuildIndex(ctx context.Context, emb llm.Embedder, opts Options) (*vecstore.Snapshot, error) {
	if opts.Root == "" {
		return nil, fmt.Errorf("%w: corpus root is required", vecstore.ErrConfiguration)
	}
	log := opts.logger()

	docs, err := corpus.Discover(opts.Root, opts.Patterns)
	if err != nil {
		return nil, err
	}

	contents := make([]corpus.Content, 0, len(docs))
	for _, d := range docs {
		c, err := corpus.Read(d)
		if err != nil {
			return nil, err
		}
		if corpus.IsBlank([]byte(c.Text)) {
			if opts.OnBlank != nil {
				opts.OnBlank(d.Path)
			} else {
				log.Warn("skipping blank document", "path", d.Path)
			}
			continue
		}
		contents = append(contents, c)
	}

	snap := &vecstore.Snapshot{
		CreatedAt: opts.now().UTC(),
		Model:     emb.ModelID(),
		Rows:      make([]vecstore.Record, 0, len(contents)),
	}
	if len(contents) == 0 {
		log.Info("corpus is empty", "patterns", opts.Patterns)
		return snap, nil
	}

	texts := make([]string, len(contents))
	for i, c := range contents {
		texts[i] = c.Text
	}
	log.Debug("embedding corpus", "documents", len(texts), "model", emb.ModelID())
	vecs, err := emb.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("cannot embed %d documents: %w", len(texts), err)
	}
	if len(vecs) != len(texts) {
		return nil, &llm.CollaboratorError{Provider: emb.ModelID(), Op: "embed",
			Err: fmt.Errorf("got %d embeddings for %d documents", len(vecs), len(texts))}
	}

	for i, c := range contents {
		v := vecs[i]
		if opts.Normalize {
			v = vecstore.NormalizeL2(v)
		}
		snap.Rows = append(snap.Rows, vecstore.Record{
			Path:      c.Path,
			Embedding: v,
			Meta:      c.Meta,
		})
	}
	if err := vecstore.Validate(snap); err != nil {
		return nil, fmt.Errorf("embedder %s returned inconsistent vectors: %w", emb.ModelID(), err)
	}
	return snap, nil
}

// Build runs BuildIndex and, only if it succeeds, replaces the snapshot held by store.
// A failed build leaves any existing snapshot untouched.
func Build(ctx context.Context, emb llm.Embedder, store snapshot.Store, opts Options) (*vecstore.Snapshot, error) {
	start := time.Now()
	snap, err := BuildIndex(ctx, emb, opts)
	if err == nil {
		err = store.Save(ctx, snap)
	}

	metrics.IndexBuildsTotal.WithLabelValues(metrics.Status(err)).Inc()
	metrics.IndexBuildDuration.Set(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	metrics.IndexDocuments.Set(float64(snap.Len()))
	metrics.IndexLastSuccess.SetToCurrentTime()

	opts.logger().Info("snapshot written",
		"documents", snap.Len(),
		"dim", snap.Dim(),
		"location", store.Location(),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return snap, nil
}
