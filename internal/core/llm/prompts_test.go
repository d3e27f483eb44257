package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildScoringPrompt(t *testing.T) {
	post := PostInput{
		Title:     "which email tool do you use?",
		Body:      "sick of sending newsletters by hand",
		Subreddit: "smallbusiness",
	}
	campaign := CampaignContext{
		Name:        "MailFlow",
		Description: "email marketing for small shops",
		Keywords:    []string{"email marketing", "newsletter tool"},
	}

	prompt := buildScoringPrompt(post, campaign)

	assert.Contains(t, prompt, `"MailFlow" (email marketing for small shops)`)
	assert.Contains(t, prompt, "email marketing, newsletter tool")
	assert.Contains(t, prompt, "Subreddit: r/smallbusiness")
	assert.Contains(t, prompt, "which email tool do you use?")
	assert.Contains(t, prompt, "sick of sending newsletters by hand")
}

func TestBuildScoringPromptTruncatesBody(t *testing.T) {
	post := PostInput{
		Title: "long one",
		Body:  strings.Repeat("a", maxBodyChars+500),
	}

	prompt := buildScoringPrompt(post, CampaignContext{Name: "x"})

	assert.Contains(t, prompt, strings.Repeat("a", maxBodyChars))
	assert.NotContains(t, prompt, strings.Repeat("a", maxBodyChars+1))
}

func TestBuildScoringPromptEmptyBodyPlaceholder(t *testing.T) {
	prompt := buildScoringPrompt(PostInput{Title: "title only"}, CampaignContext{Name: "x"})

	assert.Contains(t, prompt, "Body: (no body)")
}
