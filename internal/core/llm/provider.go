package llm

import "context"

// ProviderName identifies an LLM provider.
type ProviderName string

// Provider name constants.
const (
	ProviderOpenAI    ProviderName = "openai"
	ProviderAnthropic ProviderName = "anthropic"
	ProviderMock      ProviderName = "mock"
)

// Priority constants for provider ordering.
const (
	PriorityPrimary  = 100 // Primary provider (OpenAI)
	PriorityFallback = 50  // First fallback (Anthropic)
	PriorityMock     = 0   // Mock provider for testing
)

// TaskType identifies the kind of work a request performs, used for
// metrics labels and fallback logging.
type TaskType string

// Task types.
const (
	TaskTypeScore    TaskType = "score"
	TaskTypeGenerate TaskType = "generate"
)

// Provider defines the interface for LLM providers.
type Provider interface {
	// Name returns the provider identifier.
	Name() ProviderName

	// IsAvailable returns true if the provider is configured and available.
	IsAvailable() bool

	// Priority returns the provider priority (higher = preferred).
	Priority() int

	// ScoreOpportunity rates a Reddit post against a campaign.
	ScoreOpportunity(ctx context.Context, post PostInput, campaign CampaignContext, model string) (OpportunityScore, error)

	// GenerateText completes a free-form prompt.
	GenerateText(ctx context.Context, prompt, model string) (string, error)
}
