// Package llmtest provides an in-memory llm.Provider for tests.
package llmtest

import (
	"context"
	"hash/fnv"
	"sync"
)

// Fake is a deterministic provider. Texts listed in Vectors embed to the given
// vector; any other text embeds to a hash-derived vector of length Dim.
type Fake struct {
	Dim     int
	Vectors map[string][]float32
	// EmbedErr, when set, fails every Embed call.
	EmbedErr error
	// Short drops the last vector of every Embed reply.
	Short bool
	// Reply is returned by Generate.
	Reply       string
	GenerateErr error

	mu         sync.Mutex
	EmbedCalls [][]string
	Prompts    []string
}

func (f *Fake) Name() string    { return "fake" }
func (f *Fake) ModelID() string { return "fake:test" }

func (f *Fake) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	f.EmbedCalls = append(f.EmbedCalls, append([]string(nil), texts...))
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.EmbedErr != nil {
		return nil, f.EmbedErr
	}
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		if v, ok := f.Vectors[t]; ok {
			out = append(out, v)
			continue
		}
		out = append(out, f.hashVector(t))
	}
	if f.Short && len(out) > 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (f *Fake) Generate(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.Prompts = append(f.Prompts, prompt)
	f.mu.Unlock()
	if f.GenerateErr != nil {
		return "", f.GenerateErr
	}
	return f.Reply, nil
}

// Calls returns the number of Embed invocations.
func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.EmbedCalls)
}

func (f *Fake) hashVector(t string) []float32 {
	dim := f.Dim
	if dim <= 0 {
		dim = 4
	}
	v := make([]float32, dim)
	for i := range v {
		h := fnv.New32a()
		_, _ = h.Write([]byte{byte(i)})
		_, _ = h.Write([]byte(t))
		v[i] = float32(h.Sum32()%1000)/1000 + 0.001
	}
	return v
}
