// Package engagement drafts Reddit replies for leads. Drafts are never
// posted automatically; the user reviews and posts them.
package engagement

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/redleadhq/redlead/internal/core/domain"
	"github.com/redleadhq/redlead/internal/core/llm"
)

const replyPromptTemplate = `You are a helpful, experienced member of r/%s replying to the post below.
You work on "%s" (%s), which is relevant to the author's problem.

Write a reply that:
- sounds like a genuine redditor sharing experience, not marketing copy
- is plain text: no markdown headers, no bullet lists, no links unless the author asked for one
- leads with concrete advice for the author's situation
- mentions the product at most once, casually, and only where it truly helps
- stays under 120 words

Post title: %s
Post body: %s

Reply with the comment text only.`

// Generator produces reply drafts via the LLM client.
type Generator struct {
	llm    llm.Client
	logger *zerolog.Logger
}

// NewGenerator creates a reply draft generator.
func NewGenerator(llmClient llm.Client, logger *zerolog.Logger) *Generator {
	return &Generator{llm: llmClient, logger: logger}
}

// GenerateReply drafts a reply to the lead's post on behalf of the
// campaign's product.
func (g *Generator) GenerateReply(ctx context.Context, lead domain.Lead, campaign domain.Campaign) (string, error) {
	prompt := fmt.Sprintf(replyPromptTemplate,
		lead.Subreddit,
		campaign.Name,
		campaign.GeneratedDescription,
		lead.Title,
		lead.Body,
	)

	reply, err := g.llm.GenerateText(ctx, prompt, "")
	if err != nil {
		return "", fmt.Errorf("generate reply: %w", err)
	}

	reply = strings.TrimSpace(reply)

	g.logger.Debug().
		Str("lead_id", lead.ID).
		Int("reply_len", len(reply)).
		Msg("generated reply draft")

	return reply, nil
}
