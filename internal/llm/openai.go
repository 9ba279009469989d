package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type openAIProvider struct {
	model      string
	embedModel string
	apiKey     string
	baseURL    string
	client     *http.Client
}

// NewOpenAI constructs an OpenAI-compatible provider.
//
// It uses the REST endpoints:
//
//	POST {baseURL}/embeddings  {"model": "...", "input": ["...", ...]}
//	POST {baseURL}/responses   {"model": "...", "input": "..."}
func NewOpenAI(cfg OpenAIConfig) Provider {
	return &openAIProvider{
		model:      cfg.Model,
		embedModel: cfg.EmbedModel,
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		client:     &http.Client{Timeout: 2 * time.Minute},
	}
}

func (p *openAIProvider) Name() string {
	return "openai"
}

func (p *openAIProvider) ModelID() string {
	return "openai:" + p.embedModel
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// Embed sends all texts in one request and returns the vectors in input order.
func (p *openAIProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	var parsed embeddingResponse
	req := map[string]any{
		"model": p.embedModel,
		"input": texts,
	}
	if err := p.post(ctx, "embed", "/embeddings", req, &parsed); err != nil {
		return nil, err
	}

	if len(parsed.Data) != len(texts) {
		return nil, &CollaboratorError{Provider: p.Name(), Op: "embed",
			Err: fmt.Errorf("got %d embeddings for %d texts", len(parsed.Data), len(texts))}
	}
	out := make([][]float32, len(texts))
	for _, d := range parsed.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, &CollaboratorError{Provider: p.Name(), Op: "embed",
				Err: fmt.Errorf("embedding index %d out of range [0, %d)", d.Index, len(texts))}
		}
		out[d.Index] = d.Embedding
	}
	if err := checkEmbeddings(p.Name(), texts, out); err != nil {
		return nil, err
	}
	return out, nil
}

type responsesResponse struct {
	Output []struct {
		Type    string `json:"type"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
}

// Generate calls the Responses API and concatenates the output_text parts.
func (p *openAIProvider) Generate(ctx context.Context, prompt string) (string, error) {
	var parsed responsesResponse
	req := map[string]any{
		"model": p.model,
		"input": prompt,
	}
	if err := p.post(ctx, "generate", "/responses", req, &parsed); err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, item := range parsed.Output {
		if item.Type != "message" {
			continue
		}
		for _, c := range item.Content {
			if c.Type == "output_text" {
				sb.WriteString(c.Text)
			}
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", &CollaboratorError{Provider: p.Name(), Op: "generate", Err: errEmptyReply}
	}
	return sb.String(), nil
}

func (p *openAIProvider) post(ctx context.Context, op, path string, body, out any) error {
	fail := func(status int, err error) error {
		return &CollaboratorError{Provider: p.Name(), Op: op, StatusCode: status, Err: err}
	}

	b, err := json.Marshal(body)
	if err != nil {
		return fail(0, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return fail(0, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return fail(0, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return fail(0, fmt.Errorf("cannot read response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fail(resp.StatusCode, fmt.Errorf("%s", strings.TrimSpace(string(respBody))))
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fail(0, fmt.Errorf("cannot parse response: %w", err))
	}
	return nil
}
