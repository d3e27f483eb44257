package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/redleadhq/redlead/internal/config"
)

// openaiProvider implements the Provider interface for OpenAI.
type openaiProvider struct {
	cfg         *config.Config
	client      *openai.Client
	logger      *zerolog.Logger
	rateLimiter *rate.Limiter
}

// NewOpenAIProvider creates a new OpenAI LLM provider.
func NewOpenAIProvider(cfg *config.Config, logger *zerolog.Logger) Provider {
	rateLimit := cfg.RateLimitRPS
	if rateLimit == 0 {
		rateLimit = 1
	}

	return &openaiProvider{
		cfg:         cfg,
		client:      openai.NewClient(cfg.OpenAIAPIKey),
		logger:      logger,
		rateLimiter: rate.NewLimiter(rate.Limit(float64(rateLimit)), rateLimiterBurst),
	}
}

// Name returns the provider identifier.
func (p *openaiProvider) Name() ProviderName {
	return ProviderOpenAI
}

// IsAvailable returns true if the provider is configured and available.
func (p *openaiProvider) IsAvailable() bool {
	return p.cfg.OpenAIAPIKey != ""
}

// Priority returns the provider priority.
func (p *openaiProvider) Priority() int {
	return PriorityPrimary
}

func (p *openaiProvider) resolveModel(model string) string {
	if model == "" {
		model = p.cfg.LLMModel
	}

	if model == "" {
		model = openai.GPT4oMini
	}

	return model
}

// ScoreOpportunity implements Provider interface.
func (p *openaiProvider) ScoreOpportunity(ctx context.Context, post PostInput, campaign CampaignContext, model string) (OpportunityScore, error) {
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return OpportunityScore{}, fmt.Errorf(errRateLimiter, err)
	}

	prompt := buildScoringPrompt(post, campaign)

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.resolveModel(model),
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: scoringTemperature,
		MaxTokens:   scoringMaxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return OpportunityScore{}, fmt.Errorf("openai chat completion: %w", err)
	}

	content := resp.Choices[0].Message.Content
	p.logger.Debug().Str("content", content).Msg("LLM scoring response")

	return parseOpportunityScore(content)
}

// GenerateText implements Provider interface.
func (p *openaiProvider) GenerateText(ctx context.Context, prompt, model string) (string, error) {
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf(errRateLimiter, err)
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.resolveModel(model),
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens: generateMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}

	return resp.Choices[0].Message.Content, nil
}

// parseOpportunityScore unmarshals a scoring verdict, tolerating extra
// prose around the JSON object.
func parseOpportunityScore(content string) (OpportunityScore, error) {
	var score OpportunityScore
	if err := json.Unmarshal([]byte(extractJSON(content)), &score); err != nil {
		return OpportunityScore{}, fmt.Errorf("parse scoring response: %w", err)
	}

	score.Score = clampScore(score.Score)

	return score, nil
}

// Ensure openaiProvider implements Provider interface.
var _ Provider = (*openaiProvider)(nil)
