package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/redleadhq/redlead/internal/config"
)

// Anthropic model constants.
const (
	ModelClaudeHaiku = "claude-haiku-4.5"

	// Default model for Anthropic.
	defaultAnthropicModel = ModelClaudeHaiku

	modelPrefixClaude = "claude"

	contentTypeText = "text"
)

// anthropicProvider implements the Provider interface for Anthropic Claude.
type anthropicProvider struct {
	cfg         *config.Config
	client      anthropic.Client
	logger      *zerolog.Logger
	rateLimiter *rate.Limiter
}

// NewAnthropicProvider creates a new Anthropic LLM provider.
func NewAnthropicProvider(cfg *config.Config, logger *zerolog.Logger) Provider {
	client := anthropic.NewClient(option.WithAPIKey(cfg.AnthropicAPIKey))

	rateLimit := cfg.RateLimitRPS
	if rateLimit == 0 {
		rateLimit = 1
	}

	return &anthropicProvider{
		cfg:         cfg,
		client:      client,
		logger:      logger,
		rateLimiter: rate.NewLimiter(rate.Limit(float64(rateLimit)), rateLimiterBurst),
	}
}

// Name returns the provider identifier.
func (p *anthropicProvider) Name() ProviderName {
	return ProviderAnthropic
}

// IsAvailable returns true if the provider is configured and available.
func (p *anthropicProvider) IsAvailable() bool {
	return p.cfg.AnthropicAPIKey != ""
}

// Priority returns the provider priority.
func (p *anthropicProvider) Priority() int {
	return PriorityFallback
}

// resolveModel returns the appropriate model name for Anthropic.
// OpenAI-style model names from config map to the default Claude model.
func (p *anthropicProvider) resolveModel(model string) string {
	if model == "" {
		return defaultAnthropicModel
	}

	if strings.HasPrefix(model, modelPrefixClaude) {
		return model
	}

	return defaultAnthropicModel
}

func (p *anthropicProvider) complete(ctx context.Context, prompt, model string, maxTokens int64, temperature float64) (string, error) {
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf(errRateLimiter, err)
	}

	resolvedModel := anthropic.Model(p.resolveModel(model))

	params := anthropic.MessageNewParams{
		Model:     resolvedModel,
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}

	if temperature > 0 {
		params.Temperature = anthropic.Float(temperature)
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic message: %w", err)
	}

	return extractTextFromResponse(resp), nil
}

// ScoreOpportunity implements Provider interface.
func (p *anthropicProvider) ScoreOpportunity(ctx context.Context, post PostInput, campaign CampaignContext, model string) (OpportunityScore, error) {
	prompt := buildScoringPrompt(post, campaign)

	content, err := p.complete(ctx, prompt, model, scoringMaxTokens, scoringTemperature)
	if err != nil {
		return OpportunityScore{}, err
	}

	p.logger.Debug().Str("content", content).Msg("LLM scoring response")

	return parseOpportunityScore(content)
}

// GenerateText implements Provider interface.
func (p *anthropicProvider) GenerateText(ctx context.Context, prompt, model string) (string, error) {
	return p.complete(ctx, prompt, model, generateMaxTokens, 0)
}

// extractTextFromResponse extracts text content from an Anthropic response.
func extractTextFromResponse(resp *anthropic.Message) string {
	var result strings.Builder

	for _, block := range resp.Content {
		if block.Type == contentTypeText {
			result.WriteString(block.Text)
		}
	}

	return result.String()
}

// extractJSON tries to extract JSON from a response that might have extra text.
func extractJSON(text string) string {
	// Look for JSON object
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")

	if start != -1 && end != -1 && end > start {
		return text[start : end+1]
	}

	// Look for JSON array
	start = strings.Index(text, "[")
	end = strings.LastIndex(text, "]")

	if start != -1 && end != -1 && end > start {
		return text[start : end+1]
	}

	return text
}

// Ensure anthropicProvider implements Provider interface.
var _ Provider = (*anthropicProvider)(nil)
