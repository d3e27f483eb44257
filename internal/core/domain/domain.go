// Package domain holds the core entities shared across the service:
// campaigns, leads and the Reddit posts the discovery pipeline works on.
package domain

import "time"

// LeadStatus is the lifecycle state of a lead set by the user.
type LeadStatus string

// Lead status values.
const (
	LeadStatusNew     LeadStatus = "new"
	LeadStatusReplied LeadStatus = "replied"
	LeadStatusSaved   LeadStatus = "saved"
	LeadStatusIgnored LeadStatus = "ignored"
)

// Valid reports whether s is a known lead status.
func (s LeadStatus) Valid() bool {
	switch s {
	case LeadStatusNew, LeadStatusReplied, LeadStatusSaved, LeadStatusIgnored:
		return true
	}

	return false
}

// DiscoveryKind identifies which discovery flow produced a run.
type DiscoveryKind string

// Discovery kinds.
const (
	DiscoveryManual   DiscoveryKind = "manual"
	DiscoveryGlobal   DiscoveryKind = "global"
	DiscoveryTargeted DiscoveryKind = "targeted"
)

// Campaign describes a product the user wants to find leads for.
type Campaign struct {
	ID                   string
	UserID               string
	Name                 string
	AnalyzedURL          string
	GeneratedKeywords    []string
	GeneratedDescription string
	TargetSubreddits     []string
	Competitors          []string
	NegativeKeywords     []string
	SubredditBlacklist   []string

	LastManualDiscoveryAt   *time.Time
	LastGlobalDiscoveryAt   *time.Time
	LastTargetedDiscoveryAt *time.Time

	CreatedAt time.Time
}

// Lead is a scored Reddit post persisted for a campaign.
// The (RedditID, CampaignID) pair is unique; re-discovering the same
// post refreshes its score and intent but never its user-set status.
type Lead struct {
	ID         string
	CampaignID string
	RedditID   string

	Title     string
	Author    string
	Subreddit string
	URL       string
	Body      string
	PostedAt  time.Time

	OpportunityScore int
	Intent           string
	Status           LeadStatus

	NumComments int
	UpvoteRatio float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// RedditPost is a post as returned by the Reddit JSON listing API.
type RedditPost struct {
	ID          string
	Title       string
	Author      string
	Subreddit   string
	Body        string
	Permalink   string
	PostedAt    time.Time
	NumComments int
	UpvoteRatio float64
}

// URL returns the canonical reddit.com URL for the post.
func (p RedditPost) URL() string {
	return "https://www.reddit.com" + p.Permalink
}
