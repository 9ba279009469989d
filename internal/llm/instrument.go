package llm

import (
	"context"

	"github.com/kamusis/adr-cli/internal/metrics"
)

type instrumented struct {
	Provider
}

// Instrument wraps p so every collaborator call is counted by provider and outcome.
func Instrument(p Provider) Provider {
	if _, ok := p.(*instrumented); ok {
		return p
	}
	return &instrumented{Provider: p}
}

func (i *instrumented) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := i.Provider.Embed(ctx, texts)
	metrics.EmbedRequestsTotal.WithLabelValues(i.Name(), metrics.Status(err)).Inc()
	return vecs, err
}

func (i *instrumented) Generate(ctx context.Context, prompt string) (string, error) {
	out, err := i.Provider.Generate(ctx, prompt)
	metrics.GenerateRequestsTotal.WithLabelValues(i.Name(), metrics.Status(err)).Inc()
	return out, err
}
