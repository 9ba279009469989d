package draft

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/kamusis/adr-cli/internal/llm"
	"github.com/kamusis/adr-cli/internal/retrieval"
	"github.com/kamusis/adr-cli/internal/vecstore"
)

// Options tunes a drafting run.
type Options struct {
	TopK     int
	MinScore float64
	// Template is the MADR template text; DefaultTemplate when empty.
	Template string
	// Dir is where ADRs live.
	Dir    string
	Logger *slog.Logger
	Now    func() time.Time
}

// Result is a rendered draft.
type Result struct {
	Path     string
	Content  string
	Related  []vecstore.Result
	Evidence string
}

// Compose looks up related documents, generates the ADR body and renders the
// template. Nothing is written. A failed lookup aborts the draft.
func Compose(ctx context.Context, p llm.Provider, snap *vecstore.Snapshot, req Request, opts Options) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	tmpl := opts.Template
	if tmpl == "" {
		tmpl = DefaultTemplate
	}

	related, err := retrieval.FindRelated(ctx, p, snap, req.QueryText(), opts.TopK, opts.MinScore)
	if err != nil {
		return nil, fmt.Errorf("related-document lookup failed: %w", err)
	}
	evidence := retrieval.Evidence(related)
	log.Debug("related documents", "count", len(related))

	body, err := p.Generate(ctx, req.Prompt(evidence))
	if err != nil {
		return nil, fmt.Errorf("cannot generate draft: %w", err)
	}

	path, err := FileName(opts.Dir, req.Title)
	if err != nil {
		return nil, err
	}
	return &Result{
		Path:     path,
		Content:  req.Render(tmpl, body, evidence, now()),
		Related:  related,
		Evidence: evidence,
	}, nil
}

// Write stores the draft at r.Path. An existing file is never overwritten.
func (r *Result) Write() error {
	if err := os.MkdirAll(filepath.Dir(r.Path), 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", filepath.Dir(r.Path), err)
	}
	f, err := os.OpenFile(r.Path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("cannot create %s: %w", r.Path, err)
	}
	if _, err := io.WriteString(f, r.Content); err != nil {
		f.Close()
		return fmt.Errorf("cannot write %s: %w", r.Path, err)
	}
	return f.Close()
}
