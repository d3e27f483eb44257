// Package llm scores Reddit posts for buying intent and generates reply
// drafts, with provider fallback between OpenAI and Anthropic.
package llm

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/redleadhq/redlead/internal/config"
)

// PostInput is the post content handed to the scorer.
type PostInput struct {
	Title     string
	Body      string
	Subreddit string
}

// CampaignContext is the campaign side of the scoring prompt.
type CampaignContext struct {
	Name        string
	Description string
	Keywords    []string
}

// OpportunityScore is the structured scoring verdict for a post.
type OpportunityScore struct {
	Score  int    `json:"score"`
	Intent string `json:"intent"`
	Reason string `json:"reason"`
}

// Intent assigned when every provider failed and the pipeline falls
// back to a neutral verdict.
const IntentUnclassified = "unclassified"

// DefaultOpportunityScore is the neutral verdict used when scoring is
// unavailable, so discovery runs never stall on provider outages.
func DefaultOpportunityScore() OpportunityScore {
	return OpportunityScore{Score: defaultScore, Intent: IntentUnclassified}
}

// Client is the scoring and generation interface used by the pipeline.
type Client interface {
	ScoreOpportunity(ctx context.Context, post PostInput, campaign CampaignContext, model string) (OpportunityScore, error)
	GenerateText(ctx context.Context, prompt, model string) (string, error)
	GetProviderStatuses() []ProviderStatus
}

// NewClient builds a provider registry from the configured API keys.
// Without any key a mock provider is registered so local development
// and tests work offline.
func NewClient(cfg *config.Config, logger *zerolog.Logger) Client {
	registry := NewRegistry(logger)
	cbCfg := DefaultCircuitBreakerConfig()

	if cfg.OpenAIAPIKey != "" {
		registry.Register(NewOpenAIProvider(cfg, logger), cbCfg)
	}

	if cfg.AnthropicAPIKey != "" {
		registry.Register(NewAnthropicProvider(cfg, logger), cbCfg)
	}

	if registry.ProviderCount() == 0 {
		logger.Warn().Msg("no LLM API keys configured, using mock provider")
		registry.Register(NewMockProvider(), cbCfg)
	}

	return registry
}

func clampScore(n int) int {
	if n < 0 {
		return 0
	}

	if n > maxScore {
		return maxScore
	}

	return n
}
