package engagement

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redleadhq/redlead/internal/core/domain"
	"github.com/redleadhq/redlead/internal/core/llm"
)

type fakeLLM struct {
	reply  string
	err    error
	prompt string
}

func (f *fakeLLM) ScoreOpportunity(context.Context, llm.PostInput, llm.CampaignContext, string) (llm.OpportunityScore, error) {
	return llm.OpportunityScore{}, errors.New("not used")
}

func (f *fakeLLM) GenerateText(_ context.Context, prompt, _ string) (string, error) {
	f.prompt = prompt

	return f.reply, f.err
}

func (f *fakeLLM) GetProviderStatuses() []llm.ProviderStatus { return nil }

func TestGenerateReply(t *testing.T) {
	client := &fakeLLM{reply: "  I had the same issue, MailFlow fixed it for me.  \n"}
	logger := zerolog.Nop()

	generator := NewGenerator(client, &logger)

	lead := domain.Lead{
		ID:        "l1",
		Subreddit: "smallbusiness",
		Title:     "email tool recommendations?",
		Body:      "drowning in manual newsletters",
	}
	campaign := domain.Campaign{
		Name:                 "MailFlow",
		GeneratedDescription: "email marketing for small shops",
	}

	reply, err := generator.GenerateReply(context.Background(), lead, campaign)
	require.NoError(t, err)

	assert.Equal(t, "I had the same issue, MailFlow fixed it for me.", reply)

	assert.Contains(t, client.prompt, "r/smallbusiness")
	assert.Contains(t, client.prompt, "MailFlow")
	assert.Contains(t, client.prompt, "email tool recommendations?")
	assert.Contains(t, client.prompt, "drowning in manual newsletters")
}

func TestGenerateReplyError(t *testing.T) {
	client := &fakeLLM{err: errors.New("provider down")}
	logger := zerolog.Nop()

	generator := NewGenerator(client, &logger)

	_, err := generator.GenerateReply(context.Background(), domain.Lead{}, domain.Campaign{})
	assert.Error(t, err)
}
