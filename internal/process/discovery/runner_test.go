package discovery

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redleadhq/redlead/internal/core/domain"
	"github.com/redleadhq/redlead/internal/core/llm"
)

type fakeReddit struct {
	fetchResults map[string]FetchResult
	fetchErrs    map[string]error
	globalPosts  []domain.RedditPost
	globalErr    error
	targeted     map[string][]domain.RedditPost
	targetedErr  error
}

func (f *fakeReddit) FetchSubreddit(_ context.Context, subreddit string, _ []string) (FetchResult, error) {
	if err, ok := f.fetchErrs[subreddit]; ok {
		return FetchResult{}, err
	}

	return f.fetchResults[subreddit], nil
}

func (f *fakeReddit) GlobalSearch(context.Context, string) ([]domain.RedditPost, error) {
	if f.globalErr != nil {
		return nil, f.globalErr
	}

	return f.globalPosts, nil
}

func (f *fakeReddit) TargetedSearch(_ context.Context, subreddit string, _ []string) ([]domain.RedditPost, error) {
	if f.targetedErr != nil {
		return nil, f.targetedErr
	}

	return f.targeted[subreddit], nil
}

type fakeCampaignStore struct {
	campaign domain.Campaign
	getErr   error

	touched []domain.DiscoveryKind
}

func (f *fakeCampaignStore) GetCampaign(_ context.Context, id string) (domain.Campaign, error) {
	if f.getErr != nil {
		return domain.Campaign{}, f.getErr
	}

	if id != f.campaign.ID {
		return domain.Campaign{}, errors.New("campaign not found")
	}

	return f.campaign, nil
}

func (f *fakeCampaignStore) SetLastDiscoveryAt(_ context.Context, _ string, kind domain.DiscoveryKind, _ time.Time) error {
	f.touched = append(f.touched, kind)

	return nil
}

type fakeLeadWriter struct {
	leads     []domain.Lead
	upsertErr error
}

func (f *fakeLeadWriter) UpsertLead(_ context.Context, lead domain.Lead) (bool, error) {
	if f.upsertErr != nil {
		return false, f.upsertErr
	}

	for _, existing := range f.leads {
		if existing.RedditID == lead.RedditID && existing.CampaignID == lead.CampaignID {
			return false, nil
		}
	}

	f.leads = append(f.leads, lead)

	return true, nil
}

// scriptedLLM returns a fixed score per post title, or errs.
type scriptedLLM struct {
	scores map[string]llm.OpportunityScore
	err    error

	calls int
}

func (s *scriptedLLM) ScoreOpportunity(_ context.Context, post llm.PostInput, _ llm.CampaignContext, _ string) (llm.OpportunityScore, error) {
	s.calls++

	if s.err != nil {
		return llm.OpportunityScore{}, s.err
	}

	if verdict, ok := s.scores[post.Title]; ok {
		return verdict, nil
	}

	return llm.OpportunityScore{Score: 60, Intent: "Discussing", Reason: "default"}, nil
}

func (s *scriptedLLM) GenerateText(context.Context, string, string) (string, error) {
	return "", errors.New("not scripted")
}

func (s *scriptedLLM) GetProviderStatuses() []llm.ProviderStatus { return nil }

func testCampaign() domain.Campaign {
	return domain.Campaign{
		ID:                   "c1",
		Name:                 "MailFlow",
		GeneratedDescription: "email marketing for small shops",
		GeneratedKeywords:    []string{"email marketing", "newsletter tool"},
		TargetSubreddits:     []string{"r/smallbusiness"},
	}
}

func newTestRunner(reddit RedditFetcher, client llm.Client, campaigns CampaignStore, leads LeadWriter) *Runner {
	logger := zerolog.Nop()

	return NewRunner(reddit, client, campaigns, leads, 0, &logger)
}

func post(id, title, subreddit string) domain.RedditPost {
	return domain.RedditPost{ID: id, Title: title, Author: "u1", Subreddit: subreddit, Permalink: "/r/" + subreddit + "/comments/" + id + "/"}
}

func TestRunManualPersistsRelevantPosts(t *testing.T) {
	reddit := &fakeReddit{
		fetchResults: map[string]FetchResult{
			"smallbusiness": {
				Endpoint: EndpointNew,
				Posts: []domain.RedditPost{
					post("p1", "need an email marketing tool", "smallbusiness"),
					post("p2", "look at my cat", "smallbusiness"),
				},
			},
		},
	}
	store := &fakeCampaignStore{campaign: testCampaign()}
	leads := &fakeLeadWriter{}
	client := &scriptedLLM{scores: map[string]llm.OpportunityScore{
		"need an email marketing tool": {Score: 92, Intent: "Buying", Reason: "asking for tools"},
	}}

	runner := newTestRunner(reddit, client, store, leads)

	result, err := runner.RunManual(context.Background(), "c1")
	require.NoError(t, err)

	require.Len(t, leads.leads, 1)
	assert.Equal(t, "p1", leads.leads[0].RedditID)
	assert.Equal(t, 92, leads.leads[0].OpportunityScore)
	assert.Equal(t, "Buying", leads.leads[0].Intent)
	assert.Equal(t, domain.LeadStatusNew, leads.leads[0].Status)

	assert.Equal(t, 1, result.Count)
	assert.Equal(t, "discovery complete", result.Message)
	require.Len(t, result.Diagnostics.Subreddits, 1)
	assert.Equal(t, 2, result.Diagnostics.Subreddits[0].Fetched)
	assert.Equal(t, 1, result.Diagnostics.Subreddits[0].Matched)
	assert.False(t, result.Diagnostics.AllBlocked)

	assert.Contains(t, store.touched, domain.DiscoveryManual)
}

func TestRunManualSkipsRelevanceFilterForSearchEndpoint(t *testing.T) {
	reddit := &fakeReddit{
		fetchResults: map[string]FetchResult{
			"smallbusiness": {
				Endpoint: EndpointSearch,
				Posts:    []domain.RedditPost{post("p1", "unrelated title", "smallbusiness")},
			},
		},
	}
	store := &fakeCampaignStore{campaign: testCampaign()}
	leads := &fakeLeadWriter{}

	runner := newTestRunner(reddit, &scriptedLLM{}, store, leads)

	result, err := runner.RunManual(context.Background(), "c1")
	require.NoError(t, err)

	assert.Equal(t, 1, result.Count)
	assert.Equal(t, 1, result.Diagnostics.Subreddits[0].Matched)
}

func TestRunManualGlobalPassAppliesScoreFloor(t *testing.T) {
	reddit := &fakeReddit{
		globalPosts: []domain.RedditPost{
			post("g1", "which email marketing platform", "Entrepreneur"),
			post("g2", "email marketing rant", "Entrepreneur"),
			post("g1", "which email marketing platform", "Entrepreneur"),
		},
	}

	campaign := testCampaign()
	campaign.TargetSubreddits = nil

	store := &fakeCampaignStore{campaign: campaign}
	leads := &fakeLeadWriter{}
	client := &scriptedLLM{scores: map[string]llm.OpportunityScore{
		"which email marketing platform": {Score: 85, Intent: "Buying"},
		"email marketing rant":           {Score: 40, Intent: "Discussing"},
	}}

	runner := newTestRunner(reddit, client, store, leads)

	result, err := runner.RunGlobal(context.Background(), "c1")
	require.NoError(t, err)

	require.Len(t, leads.leads, 1)
	assert.Equal(t, "g1", leads.leads[0].RedditID)
	assert.Equal(t, 1, result.Count)
	assert.Equal(t, 2, result.Diagnostics.GlobalFetched)
	assert.Equal(t, 1, result.Diagnostics.GlobalKept)
	assert.Equal(t, 2, client.calls)
}

func TestRunGlobalExcludesBlacklistedSubreddits(t *testing.T) {
	reddit := &fakeReddit{
		globalPosts: []domain.RedditPost{
			post("g1", "email marketing help", "Entrepreneur"),
			post("g2", "email marketing help", "memes"),
		},
	}

	campaign := testCampaign()
	campaign.SubredditBlacklist = []string{"r/Memes"}

	store := &fakeCampaignStore{campaign: campaign}
	leads := &fakeLeadWriter{}
	client := &scriptedLLM{scores: map[string]llm.OpportunityScore{
		"email marketing help": {Score: 90, Intent: "Seeking Advice"},
	}}

	runner := newTestRunner(reddit, client, store, leads)

	result, err := runner.RunGlobal(context.Background(), "c1")
	require.NoError(t, err)

	require.Len(t, leads.leads, 1)
	assert.Equal(t, "Entrepreneur", leads.leads[0].Subreddit)
	assert.Equal(t, 1, result.Count)
}

func TestRunManualAllBlockedOnForbidden(t *testing.T) {
	campaign := testCampaign()
	campaign.TargetSubreddits = []string{"r/smallbusiness", "r/startups"}

	reddit := &fakeReddit{
		fetchErrs: map[string]error{
			"smallbusiness": &StatusError{Endpoint: EndpointNew, StatusCode: http.StatusForbidden},
			"startups":      &StatusError{Endpoint: EndpointHot, StatusCode: http.StatusForbidden},
		},
		globalErr: &StatusError{Endpoint: EndpointSearch, StatusCode: http.StatusForbidden},
	}
	store := &fakeCampaignStore{campaign: campaign}
	leads := &fakeLeadWriter{}

	runner := newTestRunner(reddit, &scriptedLLM{}, store, leads)

	result, err := runner.RunManual(context.Background(), "c1")
	require.NoError(t, err)

	assert.True(t, result.Diagnostics.AllBlocked)
	assert.Zero(t, result.Count)
	assert.Empty(t, leads.leads)

	assert.Contains(t, result.Message, "403")
	assert.Contains(t, result.Message, "proxy")
}

func TestRunTargetedBlockedMessage(t *testing.T) {
	reddit := &fakeReddit{
		targetedErr: &StatusError{Endpoint: EndpointSearch, StatusCode: http.StatusForbidden},
	}
	store := &fakeCampaignStore{campaign: testCampaign()}

	runner := newTestRunner(reddit, &scriptedLLM{}, store, &fakeLeadWriter{})

	result, err := runner.RunTargeted(context.Background(), "c1")
	require.NoError(t, err)

	assert.True(t, result.Diagnostics.AllBlocked)
	assert.Contains(t, result.Message, "403")
}

func TestRunManualNotAllBlockedOnMixedErrors(t *testing.T) {
	campaign := testCampaign()
	campaign.TargetSubreddits = []string{"r/smallbusiness", "r/startups"}

	reddit := &fakeReddit{
		fetchErrs: map[string]error{
			"smallbusiness": &StatusError{Endpoint: EndpointNew, StatusCode: http.StatusForbidden},
			"startups":      &StatusError{Endpoint: EndpointNew, StatusCode: http.StatusInternalServerError},
		},
	}
	store := &fakeCampaignStore{campaign: campaign}

	runner := newTestRunner(reddit, &scriptedLLM{}, store, &fakeLeadWriter{})

	result, err := runner.RunManual(context.Background(), "c1")
	require.NoError(t, err)

	assert.False(t, result.Diagnostics.AllBlocked)
}

func TestRunManualNeutralVerdictOnScoringFailure(t *testing.T) {
	reddit := &fakeReddit{
		fetchResults: map[string]FetchResult{
			"smallbusiness": {
				Endpoint: EndpointNew,
				Posts:    []domain.RedditPost{post("p1", "email marketing question", "smallbusiness")},
			},
		},
	}
	store := &fakeCampaignStore{campaign: testCampaign()}
	leads := &fakeLeadWriter{}

	runner := newTestRunner(reddit, &scriptedLLM{err: errors.New("provider down")}, store, leads)

	result, err := runner.RunManual(context.Background(), "c1")
	require.NoError(t, err)

	require.Len(t, leads.leads, 1)
	assert.Equal(t, llm.DefaultOpportunityScore().Score, leads.leads[0].OpportunityScore)
	assert.Equal(t, llm.IntentUnclassified, leads.leads[0].Intent)
	assert.Equal(t, 1, result.Count)
}

func TestRunManualValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*domain.Campaign)
		wantErr error
	}{
		{
			name:    "no keywords",
			mutate:  func(c *domain.Campaign) { c.GeneratedKeywords = nil },
			wantErr: ErrNoKeywords,
		},
		{
			name:    "no subreddits",
			mutate:  func(c *domain.Campaign) { c.TargetSubreddits = nil },
			wantErr: ErrNoSubreddits,
		},
		{
			name: "all subreddits blacklisted",
			mutate: func(c *domain.Campaign) {
				c.SubredditBlacklist = []string{"smallbusiness"}
			},
			wantErr: ErrNoSubreddits,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			campaign := testCampaign()
			tt.mutate(&campaign)

			store := &fakeCampaignStore{campaign: campaign}
			runner := newTestRunner(&fakeReddit{}, &scriptedLLM{}, store, &fakeLeadWriter{})

			_, err := runner.RunManual(context.Background(), "c1")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRunTargeted(t *testing.T) {
	reddit := &fakeReddit{
		targeted: map[string][]domain.RedditPost{
			"smallbusiness": {
				post("t1", "anything at all", "smallbusiness"),
				post("t2", "we are hiring", "smallbusiness"),
			},
		},
	}

	campaign := testCampaign()
	campaign.NegativeKeywords = []string{"hiring"}

	store := &fakeCampaignStore{campaign: campaign}
	leads := &fakeLeadWriter{}

	runner := newTestRunner(reddit, &scriptedLLM{}, store, leads)

	result, err := runner.RunTargeted(context.Background(), "c1")
	require.NoError(t, err)

	require.Len(t, leads.leads, 1)
	assert.Equal(t, "t1", leads.leads[0].RedditID)
	assert.Equal(t, 1, result.Count)
	assert.Equal(t, string(EndpointSearch), result.Diagnostics.Subreddits[0].Endpoint)
	assert.Contains(t, store.touched, domain.DiscoveryTargeted)
}

func TestScoreAndPersistSkipsSeenPosts(t *testing.T) {
	campaign := testCampaign()
	store := &fakeCampaignStore{campaign: campaign}
	leads := &fakeLeadWriter{}
	client := &scriptedLLM{}

	runner := newTestRunner(&fakeReddit{}, client, store, leads)

	seen := map[string]struct{}{}
	posts := []domain.RedditPost{post("p1", "email marketing", "smallbusiness")}

	assert.Equal(t, 1, runner.scoreAndPersist(context.Background(), campaign, posts, seen, 0))
	assert.Equal(t, 0, runner.scoreAndPersist(context.Background(), campaign, posts, seen, 0))
	assert.Equal(t, 1, client.calls)
}
