package corpus

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"golang.org/x/text/unicode/norm"
)

// MetaHash is the meta key holding the sha256 of a document's raw content.
const MetaHash = "sha256"

// Content is a document read for indexing.
type Content struct {
	Document
	// Text is the full content, NFC-normalized.
	Text string
	// Meta carries frontmatter string values and MetaHash.
	Meta map[string]any
}

// Read loads d, normalizes its text and collects its metadata.
func Read(d Document) (Content, error) {
	b, err := os.ReadFile(d.File)
	if err != nil {
		return Content{}, fmt.Errorf("cannot read %s: %w", d.File, err)
	}

	meta := frontmatterMeta(string(b))
	meta[MetaHash] = TextHash(b)

	return Content{
		Document: d,
		Text:     norm.NFC.String(string(b)),
		Meta:     meta,
	}, nil
}

// TextHash returns a sha256 hash (hex) of b.
func TextHash(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}

// IsBlank reports whether b holds only whitespace. Blank documents are not indexed.
func IsBlank(b []byte) bool {
	return len(bytes.TrimSpace(b)) == 0
}

// Hashes returns the content hash of every non-blank document keyed by Path.
func Hashes(docs []Document) (map[string]string, error) {
	out := make(map[string]string, len(docs))
	for _, d := range docs {
		b, err := os.ReadFile(d.File)
		if err != nil {
			return nil, fmt.Errorf("cannot read %s: %w", d.File, err)
		}
		if IsBlank(b) {
			continue
		}
		out[d.Path] = TextHash(b)
	}
	return out, nil
}
