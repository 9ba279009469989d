package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamusis/adr-cli/internal/llm"
	"github.com/kamusis/adr-cli/internal/llm/llmtest"
	"github.com/kamusis/adr-cli/internal/metrics"
	"github.com/kamusis/adr-cli/internal/vecstore"
)

func snapshotOf(rows map[string][]float32, order ...string) *vecstore.Snapshot {
	s := vecstore.Empty()
	for _, p := range order {
		s.Rows = append(s.Rows, vecstore.Record{Path: p, Embedding: rows[p]})
	}
	return s
}

func TestFindRelated_RanksAndFilters(t *testing.T) {
	snap := snapshotOf(map[string][]float32{
		"adr/001-a.md": {1, 0},
		"adr/002-b.md": {0, 1},
		"docs/x.md":    {0.7071, 0.7071},
	}, "adr/001-a.md", "adr/002-b.md", "docs/x.md")
	fake := &llmtest.Fake{Vectors: map[string][]float32{"use postgres": {1, 0}}}

	got, err := FindRelated(context.Background(), fake, snap, "use postgres", DefaultTopK, DefaultMinScore)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "adr/001-a.md", got[0].Path)
	assert.InDelta(t, 1.0, got[0].Score, 1e-6)
	assert.Equal(t, "docs/x.md", got[1].Path)
	assert.InDelta(t, 0.7071, got[1].Score, 1e-3)

	require.Equal(t, 1, fake.Calls())
	assert.Equal(t, []string{"use postgres"}, fake.EmbedCalls[0])
}

func TestFindRelated_TopK(t *testing.T) {
	snap := snapshotOf(map[string][]float32{
		"a": {1, 0}, "b": {0.9, 0.1}, "c": {0.8, 0.2},
	}, "a", "b", "c")
	fake := &llmtest.Fake{Vectors: map[string][]float32{"q": {1, 0}}}

	got, err := FindRelated(context.Background(), fake, snap, "q", 2, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, []string{got[0].Path, got[1].Path})
}

func TestFindRelated_EmptySnapshotSkipsEmbedder(t *testing.T) {
	fake := &llmtest.Fake{EmbedErr: errors.New("must not be called")}

	got, err := FindRelated(context.Background(), fake, vecstore.Empty(), "anything", 5, 0.2)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Equal(t, 0, fake.Calls())

	got, err = FindRelated(context.Background(), fake, nil, "anything", 5, 0.2)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 0, fake.Calls())
}

func TestFindRelated_EmbedFailure(t *testing.T) {
	snap := snapshotOf(map[string][]float32{"a": {1, 0}}, "a")
	boom := &llm.CollaboratorError{Provider: "fake", Op: "embed", Err: errors.New("timeout")}

	before := testutil.ToFloat64(metrics.RelatedQueriesTotal.WithLabelValues("error"))
	_, err := FindRelated(context.Background(), &llmtest.Fake{EmbedErr: boom}, snap, "q", 5, 0.2)

	var ce *llm.CollaboratorError
	require.ErrorAs(t, err, &ce)
	assert.False(t, errors.Is(err, vecstore.ErrConfiguration))
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.RelatedQueriesTotal.WithLabelValues("error")))
}

func TestFindRelated_WrongVectorCount(t *testing.T) {
	snap := snapshotOf(map[string][]float32{"a": {1, 0}}, "a")
	_, err := FindRelated(context.Background(), &llmtest.Fake{Dim: 2, Short: true}, snap, "q", 5, 0.2)
	var ce *llm.CollaboratorError
	require.ErrorAs(t, err, &ce)
}

func TestFindRelated_DimensionMismatch(t *testing.T) {
	snap := snapshotOf(map[string][]float32{"a": {1, 0}}, "a")
	_, err := FindRelated(context.Background(), &llmtest.Fake{Dim: 3}, snap, "q", 5, 0.2)
	require.ErrorIs(t, err, vecstore.ErrDimensionMismatch)
	require.ErrorIs(t, err, vecstore.ErrConfiguration)
}

func TestFindRelated_ModelMismatch(t *testing.T) {
	snap := snapshotOf(map[string][]float32{"a": {1, 0}}, "a")
	snap.Model = "openai:text-embedding-3-large"
	fake := &llmtest.Fake{Dim: 2}

	_, err := FindRelated(context.Background(), fake, snap, "q", 5, 0.2)
	require.ErrorIs(t, err, ErrModelMismatch)
	require.ErrorIs(t, err, vecstore.ErrConfiguration)
	assert.Equal(t, 0, fake.Calls())

	snap.Model = ""
	_, err = FindRelated(context.Background(), fake, snap, "q", 5, 0.2)
	require.NoError(t, err)
}

func TestFindRelated_NormalizedSnapshotScoresUnchanged(t *testing.T) {
	raw := snapshotOf(map[string][]float32{"a": {3, 4}, "b": {1, 2}}, "a", "b")
	unit := snapshotOf(map[string][]float32{
		"a": vecstore.NormalizeL2([]float32{3, 4}),
		"b": vecstore.NormalizeL2([]float32{1, 2}),
	}, "a", "b")
	fake := &llmtest.Fake{Vectors: map[string][]float32{"q": {2, 1}}}

	r1, err := FindRelated(context.Background(), fake, raw, "q", 5, -1)
	require.NoError(t, err)
	r2, err := FindRelated(context.Background(), fake, unit, "q", 5, -1)
	require.NoError(t, err)
	require.Len(t, r2, len(r1))
	for i := range r1 {
		assert.Equal(t, r1[i].Path, r2[i].Path)
		assert.InDelta(t, r1[i].Score, r2[i].Score, 1e-6)
	}
}

func TestEvidence(t *testing.T) {
	assert.Equal(t, "", Evidence(nil))
	assert.Equal(t, "- adr/001-a.md (score 0.87)\n- kb/faq.md (score 0.21)",
		Evidence([]vecstore.Result{{Path: "adr/001-a.md", Score: 0.8712}, {Path: "kb/faq.md", Score: 0.214}}))
}
