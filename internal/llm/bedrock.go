package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// bedrockAPI is the subset of the Bedrock runtime client the provider calls.
type bedrockAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

type bedrockProvider struct {
	api         bedrockAPI
	modelID     string
	embedModel  string
	limiter     *rate.Limiter
	concurrency int
}

// NewBedrock constructs a Bedrock provider using the default AWS credential chain.
//
// Generation uses the Converse API. Embedding uses InvokeModel with the Titan
// text-embeddings body, one request per text, fanned out under a rate limit.
func NewBedrock(ctx context.Context, cfg BedrockConfig) (Provider, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("%w: cannot load AWS config: %v", ErrNotConfigured, err)
	}
	return newBedrock(bedrockruntime.NewFromConfig(awsCfg), cfg), nil
}

func newBedrock(api bedrockAPI, cfg BedrockConfig) *bedrockProvider {
	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &bedrockProvider{
		api:         api,
		modelID:     cfg.ModelID,
		embedModel:  cfg.EmbeddingModel,
		limiter:     rate.NewLimiter(limit, 1),
		concurrency: concurrency,
	}
}

func (p *bedrockProvider) Name() string {
	return "bedrock"
}

func (p *bedrockProvider) ModelID() string {
	return "bedrock:" + p.embedModel
}

// Embed returns one vector per text in input order. The first failure cancels
// the remaining requests and fails the whole call.
func (p *bedrockProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, text := range texts {
		g.Go(func() error {
			if err := p.limiter.Wait(gctx); err != nil {
				return err
			}
			v, err := p.embedOne(gctx, text)
			if err != nil {
				return fmt.Errorf("input %d: %w", i, err)
			}
			out[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		var ce *CollaboratorError
		if errors.As(err, &ce) {
			return nil, err
		}
		return nil, &CollaboratorError{Provider: p.Name(), Op: "embed", Err: err}
	}
	if err := checkEmbeddings(p.Name(), texts, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *bedrockProvider) embedOne(ctx context.Context, text string) ([]float32, error) {
	payload, err := json.Marshal(map[string]string{"inputText": text})
	if err != nil {
		return nil, err
	}
	res, err := p.api.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(p.embedModel),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        payload,
	})
	if err != nil {
		return nil, err
	}
	var parsed struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := json.Unmarshal(res.Body, &parsed); err != nil {
		return nil, fmt.Errorf("cannot parse embedding response: %w", err)
	}
	return parsed.Embedding, nil
}

// Generate sends prompt as a single user turn and returns the text blocks of the reply.
func (p *bedrockProvider) Generate(ctx context.Context, prompt string) (string, error) {
	res, err := p.api.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId: aws.String(p.modelID),
		Messages: []types.Message{{
			Role:    types.ConversationRoleUser,
			Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: prompt}},
		}},
	})
	if err != nil {
		return "", &CollaboratorError{Provider: p.Name(), Op: "generate", Err: err}
	}

	msg, ok := res.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return "", &CollaboratorError{Provider: p.Name(), Op: "generate",
			Err: fmt.Errorf("unexpected converse output %T", res.Output)}
	}
	var sb strings.Builder
	for _, block := range msg.Value.Content {
		if tb, ok := block.(*types.ContentBlockMemberText); ok {
			sb.WriteString(tb.Value)
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", &CollaboratorError{Provider: p.Name(), Op: "generate", Err: errEmptyReply}
	}
	return sb.String(), nil
}
