package llm

import (
	"errors"
	"fmt"

	"github.com/kamusis/adr-cli/internal/vecstore"
)

// ErrNotConfigured indicates a required provider setting is missing or invalid.
var ErrNotConfigured = fmt.Errorf("%w: language model provider not configured", vecstore.ErrConfiguration)

// CollaboratorError is a failed embedding or generation call: transport,
// HTTP status, quota, timeout or a malformed reply. It is never retried here.
type CollaboratorError struct {
	Provider   string
	Op         string
	StatusCode int
	Err        error
}

func (e *CollaboratorError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s failed: HTTP %d: %v", e.Provider, e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Provider, e.Op, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

// errEmptyReply marks a generation call that returned no text.
var errEmptyReply = errors.New("reply contains no text")

// checkEmbeddings verifies a reply carries one non-empty vector per text.
func checkEmbeddings(provider string, texts []string, vecs [][]float32) error {
	if len(vecs) != len(texts) {
		return &CollaboratorError{Provider: provider, Op: "embed",
			Err: fmt.Errorf("got %d embeddings for %d texts", len(vecs), len(texts))}
	}
	for i, v := range vecs {
		if len(v) == 0 {
			return &CollaboratorError{Provider: provider, Op: "embed",
				Err: fmt.Errorf("missing embedding for input %d", i)}
		}
	}
	return nil
}
