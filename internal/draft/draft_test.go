package draft

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamusis/adr-cli/internal/llm/llmtest"
	"github.com/kamusis/adr-cli/internal/vecstore"
)

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b c"}, SplitList(" a, ,b c ,"))
	assert.Nil(t, SplitList(""))
}

func TestQueryText(t *testing.T) {
	r := Request{Title: "Pick DB", Context: "ctx", Constraints: "cheap", Options: []string{"pg", "mysql"}}
	assert.Equal(t, "Pick DB ctx cheap pg mysql", r.QueryText())
}

func TestPrompt(t *testing.T) {
	r := Request{Title: "Pick DB", Options: []string{"pg", "mysql"}, Drivers: []string{"cost", "latency"}}

	p := r.Prompt("- adr/001-a.md (score 0.91)")
	assert.Contains(t, p, "Title: Pick DB\n")
	assert.Contains(t, p, "Decision drivers (quality attributes): cost, latency\n")
	assert.Contains(t, p, "Considered options: pg, mysql\n")
	assert.True(t, strings.HasSuffix(p, "Similar existing docs:\n- adr/001-a.md (score 0.91)\n"))

	p = Request{Title: "x", Options: []string{"a"}}.Prompt("")
	assert.Contains(t, p, "Decision drivers (quality attributes): N/A\n")
	assert.Contains(t, p, "- (no index yet or nothing similar)")
}

func TestRender(t *testing.T) {
	r := Request{Title: "Pick DB", Options: []string{"pg", "mysql"}}
	date := time.Date(2026, 5, 4, 23, 0, 0, 0, time.UTC)

	out := r.Render(DefaultTemplate, "\n  body text  \n", "", date)
	assert.Contains(t, out, "# Pick DB\n")
	assert.Contains(t, out, "* Status: Proposed")
	assert.Contains(t, out, "* Date: 2026-05-04")
	assert.Contains(t, out, "- pg\n- mysql")
	assert.Contains(t, out, "(fill in any additional constraints/assumptions)")
	assert.Contains(t, out, "## Pros and Cons of the Options\n\nbody text\n")
	assert.Contains(t, out, "## Related Decisions and Documents\n\n—\n")
	assert.NotContains(t, out, "{")

	out = r.Render("{related} {related}", "", "- a (score 0.50)", date)
	assert.Equal(t, "- a (score 0.50) {related}", out)
}

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"Use PostgreSQL for Events": "use-postgresql-for-events",
		"  --Café & Crème!! ":       "cafe-creme",
		"Über 2.0":                  "uber-2-0",
		"???":                       "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slug(in), in)
	}
}

func TestNextNumber(t *testing.T) {
	dir := t.TempDir()
	n, err := NextNumber(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Equal(t, "001", n)

	for _, name := range []string{"001-a.md", "007-b.md", "notes.md", "12x-c.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	n, err = NextNumber(dir)
	require.NoError(t, err)
	assert.Equal(t, "008", n)

	p, err := FileName(dir, "!!!")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "008-untitled.md"), p)
}

func TestCompose(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "adr")
	snap := &vecstore.Snapshot{Rows: []vecstore.Record{
		{Path: "adr/001-queue.md", Embedding: []float32{1, 0}},
		{Path: "kb/unrelated.md", Embedding: []float32{0, 1}},
	}}
	req := Request{Title: "Use Kafka", Options: []string{"kafka", "nats"}}
	fake := &llmtest.Fake{
		Vectors: map[string][]float32{req.QueryText(): {1, 0}},
		Reply:   "generated body",
	}

	res, err := Compose(context.Background(), fake, snap, req, Options{
		TopK: 5, MinScore: 0.2, Dir: dir,
		Now: func() time.Time { return time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "001-use-kafka.md"), res.Path)
	assert.Equal(t, "- adr/001-queue.md (score 1.00)", res.Evidence)
	assert.Contains(t, res.Content, "generated body")
	assert.Contains(t, res.Content, "- adr/001-queue.md (score 1.00)")
	require.Len(t, fake.Prompts, 1)
	assert.Contains(t, fake.Prompts[0], "Similar existing docs:\n- adr/001-queue.md (score 1.00)")

	require.NoError(t, res.Write())
	b, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, res.Content, string(b))
	assert.Error(t, res.Write(), "existing draft is not overwritten")
}

func TestCompose_EmptyIndex(t *testing.T) {
	fake := &llmtest.Fake{Reply: "body"}
	res, err := Compose(context.Background(), fake, vecstore.Empty(),
		Request{Title: "T", Options: []string{"a"}}, Options{TopK: 5, MinScore: 0.2, Dir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, 0, fake.Calls())
	assert.Empty(t, res.Related)
	assert.Contains(t, fake.Prompts[0], "- (no index yet or nothing similar)")
}

func TestCompose_LookupFailureAborts(t *testing.T) {
	snap := &vecstore.Snapshot{Rows: []vecstore.Record{{Path: "a", Embedding: []float32{1}}}}
	fake := &llmtest.Fake{EmbedErr: errors.New("offline")}
	_, err := Compose(context.Background(), fake, snap,
		Request{Title: "T", Options: []string{"a"}}, Options{TopK: 5, MinScore: 0.2, Dir: t.TempDir()})
	require.Error(t, err)
	assert.Empty(t, fake.Prompts, "no generation without evidence lookup")
}

func TestCompose_Validation(t *testing.T) {
	_, err := Compose(context.Background(), &llmtest.Fake{}, nil, Request{Title: "T"}, Options{})
	require.Error(t, err)
}
