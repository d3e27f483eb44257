package discovery

import (
	"strings"

	"github.com/redleadhq/redlead/internal/core/domain"
)

// Tokens this short carry no signal on their own ("a", "for", "ai").
const minKeywordTokenLen = 2

// NormalizeSubreddit strips the r/ prefix and surrounding whitespace so
// user input like "r/golang" and "golang" compare equal.
func NormalizeSubreddit(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimPrefix(name, "/r/")
	name = strings.TrimPrefix(name, "r/")

	return name
}

// MatchesAnyKeyword reports whether the post text matches at least one
// campaign keyword. A keyword matches either as a whole substring or
// when every token longer than two characters appears somewhere in the
// text, in any order.
func MatchesAnyKeyword(post domain.RedditPost, keywords []string) bool {
	text := postText(post)

	for _, keyword := range keywords {
		if matchesKeyword(text, keyword) {
			return true
		}
	}

	return false
}

func matchesKeyword(text, keyword string) bool {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return false
	}

	if strings.Contains(text, keyword) {
		return true
	}

	tokens := strings.Fields(keyword)
	if len(tokens) < 2 {
		return false
	}

	significant := 0

	for _, token := range tokens {
		if len(token) <= minKeywordTokenLen {
			continue
		}

		significant++

		if !strings.Contains(text, token) {
			return false
		}
	}

	return significant > 0
}

// ContainsNegativeKeyword reports whether the post text contains any of
// the campaign's exclusion keywords.
func ContainsNegativeKeyword(post domain.RedditPost, negatives []string) bool {
	if len(negatives) == 0 {
		return false
	}

	text := postText(post)

	for _, negative := range negatives {
		negative = strings.ToLower(strings.TrimSpace(negative))
		if negative != "" && strings.Contains(text, negative) {
			return true
		}
	}

	return false
}

func postText(post domain.RedditPost) string {
	return strings.ToLower(post.Title + " " + post.Body)
}
