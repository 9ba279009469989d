// Package llm provides the language-model collaborators: batched text
// embedding and prompt completion, one implementation per backend.
//
// A provider is selected once from configuration and injected into the
// indexer, the retrieval query and the drafting workflow; none of them branch
// on the backend.
package llm

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/kamusis/adr-cli/internal/config"
)

// Embedder turns texts into fixed-length vectors.
//
// Embed returns exactly one vector per input text, in input order.
type Embedder interface {
	ModelID() string
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator completes a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Provider is the full collaborator capability set.
type Provider interface {
	Embedder
	Generator
	Name() string
}

// OpenAIConfig configures the OpenAI-compatible REST provider.
type OpenAIConfig struct {
	APIKey     string
	Model      string
	EmbedModel string
	BaseURL    string
}

// BedrockConfig configures the Amazon Bedrock provider.
type BedrockConfig struct {
	Region         string
	ModelID        string
	EmbeddingModel string
	// RPS caps embedding requests per second; <= 0 disables the limit.
	RPS float64
	// Concurrency bounds in-flight embedding requests.
	Concurrency int
}

// Config contains the resolved provider configuration.
type Config struct {
	Provider string
	OpenAI   OpenAIConfig
	Bedrock  BedrockConfig
}

// LoadConfig resolves provider config from environment variables first, then the project .env.
func LoadConfig(env *config.Env) (*Config, error) {
	cfg := &Config{
		Provider: strings.ToLower(strings.TrimSpace(env.GetOr("PROVIDER", "openai"))),
		OpenAI: OpenAIConfig{
			APIKey:     env.Get("OPENAI_API_KEY"),
			Model:      env.GetOr("OPENAI_MODEL", "gpt-4.1-mini"),
			EmbedModel: env.GetOr("OPENAI_EMBED_MODEL", "text-embedding-3-small"),
			BaseURL:    env.GetOr("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		},
		Bedrock: BedrockConfig{
			Region:         env.Get("BEDROCK_REGION"),
			ModelID:        env.Get("BEDROCK_MODEL_ID"),
			EmbeddingModel: env.Get("BEDROCK_EMBEDDING_MODEL"),
			RPS:            5,
			Concurrency:    4,
		},
	}

	if v := env.Get("BEDROCK_EMBED_RPS"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: BEDROCK_EMBED_RPS=%q is not a number", ErrNotConfigured, v)
		}
		cfg.Bedrock.RPS = rps
	}
	if v := env.Get("BEDROCK_EMBED_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("%w: BEDROCK_EMBED_CONCURRENCY=%q must be a positive integer", ErrNotConfigured, v)
		}
		cfg.Bedrock.Concurrency = n
	}
	return cfg, nil
}

// Validate reports the first required setting that is missing for the selected provider.
func (c *Config) Validate() error {
	require := func(key, v string) error {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%w: missing env %s", ErrNotConfigured, key)
		}
		return nil
	}
	switch c.Provider {
	case "openai":
		return require("OPENAI_API_KEY", c.OpenAI.APIKey)
	case "bedrock":
		if err := require("BEDROCK_REGION", c.Bedrock.Region); err != nil {
			return err
		}
		if err := require("BEDROCK_MODEL_ID", c.Bedrock.ModelID); err != nil {
			return err
		}
		return require("BEDROCK_EMBEDDING_MODEL", c.Bedrock.EmbeddingModel)
	default:
		return fmt.Errorf("%w: unsupported PROVIDER %q", ErrNotConfigured, c.Provider)
	}
}

// NewFromConfig returns the configured provider, instrumented with metrics.
func NewFromConfig(ctx context.Context, cfg *Config) (Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: provider config is nil", ErrNotConfigured)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var (
		p   Provider
		err error
	)
	switch cfg.Provider {
	case "openai":
		p = NewOpenAI(cfg.OpenAI)
	case "bedrock":
		p, err = NewBedrock(ctx, cfg.Bedrock)
	}
	if err != nil {
		return nil, err
	}
	return Instrument(p), nil
}
