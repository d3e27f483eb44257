package llm

import (
	"fmt"
	"strings"
)

const scoringPromptTemplate = `You are an expert lead generation analyst for "%s" (%s).
The product's keywords are: %s.

Analyze the Reddit post below and rate it as a sales opportunity from 0 to 100:
- 90-100: Explicit buying intent or a direct request for tool recommendations.
- 70-89: The author is seeking advice about the problem space the product solves.
- 40-69: The author is discussing the problem without asking for solutions.
- 0-39: Unrelated content, or the author is selling something themselves.

Classify the author's intent as exactly one of: "Buying", "Seeking Advice", "Discussing", "Selling", "Unrelated".

Respond with ONLY a JSON object in this exact format:
{"score": <integer>, "intent": "<string>", "reason": "<one short sentence>"}

Subreddit: r/%s
Title: %s
Body: %s`

// buildScoringPrompt renders the scoring prompt for a post. Long
// selftexts are truncated before prompting.
func buildScoringPrompt(post PostInput, campaign CampaignContext) string {
	body := post.Body
	if len(body) > maxBodyChars {
		body = body[:maxBodyChars]
	}

	if body == "" {
		body = "(no body)"
	}

	return fmt.Sprintf(scoringPromptTemplate,
		campaign.Name,
		campaign.Description,
		strings.Join(campaign.Keywords, ", "),
		post.Subreddit,
		post.Title,
		body,
	)
}
