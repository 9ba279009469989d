package corpus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func docPaths(docs []Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Path
	}
	return out
}

func TestDiscover_LexicographicAcrossPatterns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "kb/a.md", "kb")
	writeFile(t, root, "adr/002-y.md", "y")
	writeFile(t, root, "adr/001-x.md", "x")
	writeFile(t, root, "docs/deep/nested/guide.md", "guide")
	writeFile(t, root, "docs/notes.txt", "ignored")

	docs, err := Discover(root, []string{"kb/**/*.md", "adr/**/*.md", "docs/**/*.md"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"adr/001-x.md",
		"adr/002-y.md",
		"docs/deep/nested/guide.md",
		"kb/a.md",
	}, docPaths(docs))
	assert.Equal(t, filepath.Join(root, "adr", "001-x.md"), docs[0].File)
}

func TestDiscover_NoMatchesIsEmpty(t *testing.T) {
	docs, err := Discover(t.TempDir(), []string{"adr/**/*.md"})
	require.NoError(t, err)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)
}

func TestDiscover_DeduplicatesOverlappingPatterns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "adr/001-x.md", "x")
	docs, err := Discover(root, []string{"adr/*.md", "**/*.md"})
	require.NoError(t, err)
	assert.Equal(t, []string{"adr/001-x.md"}, docPaths(docs))
}

func TestDiscover_SkipsDirectories(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "adr", "folder.md"), 0o755))
	writeFile(t, root, "adr/001-x.md", "x")
	docs, err := Discover(root, []string{"adr/*"})
	require.NoError(t, err)
	assert.Equal(t, []string{"adr/001-x.md"}, docPaths(docs))
}

func TestDiscover_AbsolutePatternOutsideRoot(t *testing.T) {
	root := t.TempDir()
	other := t.TempDir()
	writeFile(t, other, "shared/policy.md", "p")
	docs, err := Discover(root, []string{filepath.Join(other, "shared", "*.md")})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, filepath.ToSlash(filepath.Join(other, "shared", "policy.md")), docs[0].Path)
}

func TestDiscover_BadPattern(t *testing.T) {
	_, err := Discover(t.TempDir(), []string{"adr/[.md"})
	require.Error(t, err)
}

func TestRead_FrontmatterAndHash(t *testing.T) {
	root := t.TempDir()
	content := "---\ntitle: Use Postgres\nStatus: accepted\ntags: [db]\n---\n\n# Body\n"
	writeFile(t, root, "adr/001-x.md", content)

	c, err := Read(Document{Path: "adr/001-x.md", File: filepath.Join(root, "adr", "001-x.md")})
	require.NoError(t, err)
	assert.Equal(t, content, c.Text)
	assert.Equal(t, "Use Postgres", c.Meta["title"])
	assert.Equal(t, "accepted", c.Meta["status"])
	assert.NotContains(t, c.Meta, "tags", "non-string frontmatter values are dropped")
	assert.Equal(t, TextHash([]byte(content)), c.Meta[MetaHash])
}

func TestRead_NormalizesToNFC(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "kb/cafe.md", "cafe\u0301")
	c, err := Read(Document{Path: "kb/cafe.md", File: filepath.Join(root, "kb", "cafe.md")})
	require.NoError(t, err)
	assert.Equal(t, "caf\u00e9", c.Text)
	assert.Equal(t, TextHash([]byte("cafe\u0301")), c.Meta[MetaHash], "hash covers raw bytes")
}

func TestFrontmatterMeta(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    map[string]any
	}{
		{"no block", "# Title\ntext\n", map[string]any{}},
		{"bad yaml", "---\n: : bad yaml [\n---\nbody", map[string]any{}},
		{"unterminated", "---\ntitle: x\nbody", map[string]any{}},
		{"crlf", "---\r\ntitle: x\r\n---\r\nbody", map[string]any{"title": "x"}},
		{"dashes inside value", "---\ntitle: a---b\n---\n", map[string]any{"title": "a---b"}},
		{"bom", "\ufeff---\nStatus: draft\n---\n", map[string]any{"status": "draft"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, frontmatterMeta(tc.content))
		})
	}
}

func TestHashes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", "one")
	docs, err := Discover(root, []string{"*.md"})
	require.NoError(t, err)
	h, err := Hashes(docs)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a.md": TextHash([]byte("one"))}, h)
}

func TestBaseDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "adr/001-x.md", "x")
	writeFile(t, root, "docs/guide.md", "g")
	dirs := BaseDirs(root, []string{"adr/**/*.md", "adr/*.md", "docs/**/*.md", "kb/**/*.md"})
	assert.Equal(t, []string{filepath.Join(root, "adr"), filepath.Join(root, "docs")}, dirs)
}

func TestHashes_SkipsBlank(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", "one")
	writeFile(t, root, "b.md", " \n\t")
	docs, err := Discover(root, []string{"*.md"})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	h, err := Hashes(docs)
	require.NoError(t, err)
	assert.Len(t, h, 1)
	assert.True(t, IsBlank([]byte(" \n")))
}
