package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOpenAI(t *testing.T, h http.HandlerFunc) Provider {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewOpenAI(OpenAIConfig{APIKey: "sk-test", Model: "gen", EmbedModel: "emb", BaseURL: srv.URL + "/"})
}

func TestOpenAI_EmbedBatchInOrder(t *testing.T) {
	calls := 0
	p := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "emb", req.Model)
		assert.Equal(t, []string{"a", "b", "c"}, req.Input)

		// Out of order on purpose; the index field decides placement.
		_, _ = w.Write([]byte(`{"data":[
			{"index":2,"embedding":[0,0,1]},
			{"index":0,"embedding":[1,0,0]},
			{"index":1,"embedding":[0,1,0]}]}`))
	})

	vecs, err := p.Embed(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, [][]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}, vecs)
	assert.Equal(t, "openai:emb", p.ModelID())
}

func TestOpenAI_EmbedEmptyInputSkipsRequest(t *testing.T) {
	p := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})
	vecs, err := p.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vecs)
}

func TestOpenAI_EmbedCountMismatch(t *testing.T) {
	p := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"index":0,"embedding":[1,0]}]}`))
	})
	_, err := p.Embed(context.Background(), []string{"a", "b"})
	var ce *CollaboratorError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "embed", ce.Op)
}

func TestOpenAI_HTTPError(t *testing.T) {
	p := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"rate limited"}`))
	})
	_, err := p.Embed(context.Background(), []string{"a"})
	var ce *CollaboratorError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, http.StatusTooManyRequests, ce.StatusCode)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestOpenAI_TimeoutPropagates(t *testing.T) {
	p := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := p.Embed(ctx, []string{"a"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestOpenAI_Generate(t *testing.T) {
	p := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/responses", r.URL.Path)
		var req map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gen", req["model"])
		assert.Equal(t, "draft it", req["input"])
		_, _ = w.Write([]byte(`{"output":[
			{"type":"reasoning","content":[]},
			{"type":"message","content":[
				{"type":"output_text","text":"Hello "},
				{"type":"output_text","text":"ADR"}]}]}`))
	})
	out, err := p.Generate(context.Background(), "draft it")
	require.NoError(t, err)
	assert.Equal(t, "Hello ADR", out)
}

func TestOpenAI_GenerateEmptyReply(t *testing.T) {
	p := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"output":[{"type":"reasoning","content":[]}]}`))
	})
	_, err := p.Generate(context.Background(), "draft it")
	var ce *CollaboratorError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "generate", ce.Op)
}
