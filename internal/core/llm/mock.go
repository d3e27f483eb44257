package llm

import (
	"context"
	"strings"
)

// Mock verdicts keyed on obvious intent markers so local runs produce
// plausible score spreads.
const (
	mockScoreBuying     = 92
	mockScoreAdvice     = 75
	mockScoreDiscussing = 55
)

// mockProvider implements the Provider interface for offline development
// and tests.
type mockProvider struct{}

// NewMockProvider creates a new mock LLM provider.
func NewMockProvider() Provider {
	return &mockProvider{}
}

// Name returns the provider identifier.
func (p *mockProvider) Name() ProviderName {
	return ProviderMock
}

// IsAvailable returns true as mock is always available.
func (p *mockProvider) IsAvailable() bool {
	return true
}

// Priority returns the provider priority.
func (p *mockProvider) Priority() int {
	return PriorityMock
}

// ScoreOpportunity implements Provider interface.
func (p *mockProvider) ScoreOpportunity(_ context.Context, post PostInput, _ CampaignContext, _ string) (OpportunityScore, error) {
	text := strings.ToLower(post.Title + " " + post.Body)

	switch {
	case strings.Contains(text, "recommend") || strings.Contains(text, "looking for a tool"):
		return OpportunityScore{Score: mockScoreBuying, Intent: "Buying", Reason: "mock: recommendation request"}, nil
	case strings.Contains(text, "how do you") || strings.Contains(text, "advice"):
		return OpportunityScore{Score: mockScoreAdvice, Intent: "Seeking Advice", Reason: "mock: advice request"}, nil
	default:
		return OpportunityScore{Score: mockScoreDiscussing, Intent: "Discussing", Reason: "mock: general discussion"}, nil
	}
}

// GenerateText implements Provider interface.
func (p *mockProvider) GenerateText(_ context.Context, _, _ string) (string, error) {
	return "I ran into the same problem a while back. Happy to share what worked for us if you want details.", nil
}

// Ensure mockProvider implements Provider interface.
var _ Provider = (*mockProvider)(nil)
