package discovery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/redleadhq/redlead/internal/core/domain"
	"github.com/redleadhq/redlead/internal/core/llm"
	"github.com/redleadhq/redlead/internal/platform/observability"
	"github.com/redleadhq/redlead/internal/process/dedup"
)

// Leads found by the all-Reddit keyword search are only kept above this
// score; the query alone is too loose a relevance signal.
const globalScoreFloor = 40

// Runner errors surfaced to the API layer.
var (
	ErrNoKeywords   = errors.New("campaign has no generated keywords")
	ErrNoSubreddits = errors.New("campaign has no target subreddits")
)

// RedditFetcher is the Reddit access the runner needs.
type RedditFetcher interface {
	FetchSubreddit(ctx context.Context, subreddit string, keywords []string) (FetchResult, error)
	GlobalSearch(ctx context.Context, keyword string) ([]domain.RedditPost, error)
	TargetedSearch(ctx context.Context, subreddit string, keywords []string) ([]domain.RedditPost, error)
}

// CampaignStore is the campaign access the runner needs.
type CampaignStore interface {
	GetCampaign(ctx context.Context, id string) (domain.Campaign, error)
	SetLastDiscoveryAt(ctx context.Context, id string, kind domain.DiscoveryKind, at time.Time) error
}

// LeadWriter persists discovered leads.
type LeadWriter interface {
	UpsertLead(ctx context.Context, lead domain.Lead) (bool, error)
}

// SubredditReport is the per-subreddit slice of run diagnostics.
type SubredditReport struct {
	Subreddit string `json:"subreddit"`
	Endpoint  string `json:"endpoint,omitempty"`
	Fetched   int    `json:"fetched"`
	Matched   int    `json:"matched"`
	Error     string `json:"error,omitempty"`

	statusCode int
}

// Diagnostics describes what happened during a discovery run.
type Diagnostics struct {
	Subreddits    []SubredditReport `json:"subreddits"`
	GlobalFetched int               `json:"globalFetched"`
	GlobalKept    int               `json:"globalKept"`
	AllBlocked    bool              `json:"allBlocked"`
}

// RunResult is the discovery response returned to API callers.
type RunResult struct {
	Message     string      `json:"message"`
	Count       int         `json:"count"`
	Diagnostics Diagnostics `json:"diagnostics"`
}

// Runner orchestrates discovery runs: fetch, filter, score, persist.
type Runner struct {
	reddit    RedditFetcher
	llm       llm.Client
	campaigns CampaignStore
	leads     LeadWriter
	logger    *zerolog.Logger

	// Pause between subreddit fetches, on top of client-side rate
	// limiting. Zero disables it (tests).
	subredditPause time.Duration
}

// NewRunner creates a discovery runner.
func NewRunner(reddit RedditFetcher, llmClient llm.Client, campaigns CampaignStore, leads LeadWriter, pause time.Duration, logger *zerolog.Logger) *Runner {
	return &Runner{
		reddit:         reddit,
		llm:            llmClient,
		campaigns:      campaigns,
		leads:          leads,
		logger:         logger,
		subredditPause: pause,
	}
}

// RunManual runs the full discovery pipeline for one campaign: every
// target subreddit with endpoint fallback, then a global keyword pass.
func (r *Runner) RunManual(ctx context.Context, campaignID string) (RunResult, error) {
	start := time.Now()

	campaign, subreddits, err := r.loadCampaign(ctx, campaignID)
	if err != nil {
		observability.DiscoveryRuns.WithLabelValues(string(domain.DiscoveryManual), "error").Inc()

		return RunResult{}, err
	}

	var diag Diagnostics

	seen := make(map[string]struct{})
	count := 0

	for i, subreddit := range subreddits {
		if i > 0 && r.subredditPause > 0 {
			if err := sleepCtx(ctx, r.subredditPause); err != nil {
				return RunResult{}, err
			}
		}

		report, upserted := r.runSubreddit(ctx, campaign, subreddit, seen)
		count += upserted

		diag.Subreddits = append(diag.Subreddits, report)
	}

	count += r.runGlobalPass(ctx, campaign, seen, &diag)

	diag.AllBlocked = allBlocked(diag.Subreddits)

	if err := r.campaigns.SetLastDiscoveryAt(ctx, campaign.ID, domain.DiscoveryManual, time.Now().UTC()); err != nil {
		r.logger.Warn().Err(err).Str("campaign_id", campaign.ID).Msg("failed to record discovery timestamp")
	}

	observability.DiscoveryRuns.WithLabelValues(string(domain.DiscoveryManual), "success").Inc()
	observability.DiscoveryDuration.WithLabelValues(string(domain.DiscoveryManual)).Observe(time.Since(start).Seconds())

	r.logger.Info().
		Str("campaign_id", campaign.ID).
		Int("count", count).
		Bool("all_blocked", diag.AllBlocked).
		Msg("manual discovery complete")

	return RunResult{Message: runMessage("discovery complete", diag.AllBlocked), Count: count, Diagnostics: diag}, nil
}

// RunTargeted runs the search-only variant: a relevance-sorted search
// in each target subreddit using the top campaign keywords.
func (r *Runner) RunTargeted(ctx context.Context, campaignID string) (RunResult, error) {
	start := time.Now()

	campaign, subreddits, err := r.loadCampaign(ctx, campaignID)
	if err != nil {
		observability.DiscoveryRuns.WithLabelValues(string(domain.DiscoveryTargeted), "error").Inc()

		return RunResult{}, err
	}

	var diag Diagnostics

	seen := make(map[string]struct{})
	count := 0

	for i, subreddit := range subreddits {
		if i > 0 && r.subredditPause > 0 {
			if err := sleepCtx(ctx, r.subredditPause); err != nil {
				return RunResult{}, err
			}
		}

		report := SubredditReport{Subreddit: subreddit, Endpoint: string(EndpointSearch)}

		posts, err := r.reddit.TargetedSearch(ctx, subreddit, campaign.GeneratedKeywords)
		if err != nil {
			report.Error = err.Error()
			report.statusCode = StatusCodeOf(err)
			recordFetchError(err)

			diag.Subreddits = append(diag.Subreddits, report)

			continue
		}

		report.Fetched = len(posts)
		observability.PostsFetched.WithLabelValues(string(EndpointSearch)).Add(float64(len(posts)))

		posts = r.excludeNegatives(posts, campaign)
		report.Matched = len(posts)

		count += r.scoreAndPersist(ctx, campaign, posts, seen, 0)

		diag.Subreddits = append(diag.Subreddits, report)
	}

	diag.AllBlocked = allBlocked(diag.Subreddits)

	if err := r.campaigns.SetLastDiscoveryAt(ctx, campaign.ID, domain.DiscoveryTargeted, time.Now().UTC()); err != nil {
		r.logger.Warn().Err(err).Str("campaign_id", campaign.ID).Msg("failed to record discovery timestamp")
	}

	observability.DiscoveryRuns.WithLabelValues(string(domain.DiscoveryTargeted), "success").Inc()
	observability.DiscoveryDuration.WithLabelValues(string(domain.DiscoveryTargeted)).Observe(time.Since(start).Seconds())

	return RunResult{Message: runMessage("targeted discovery complete", diag.AllBlocked), Count: count, Diagnostics: diag}, nil
}

// RunGlobal runs only the all-Reddit keyword pass for a campaign. Used
// by the scheduled discovery worker.
func (r *Runner) RunGlobal(ctx context.Context, campaignID string) (RunResult, error) {
	start := time.Now()

	campaign, err := r.campaigns.GetCampaign(ctx, campaignID)
	if err != nil {
		observability.DiscoveryRuns.WithLabelValues(string(domain.DiscoveryGlobal), "error").Inc()

		return RunResult{}, fmt.Errorf("load campaign: %w", err)
	}

	if len(campaign.GeneratedKeywords) == 0 {
		observability.DiscoveryRuns.WithLabelValues(string(domain.DiscoveryGlobal), "error").Inc()

		return RunResult{}, ErrNoKeywords
	}

	var diag Diagnostics

	count := r.runGlobalPass(ctx, campaign, make(map[string]struct{}), &diag)

	if err := r.campaigns.SetLastDiscoveryAt(ctx, campaign.ID, domain.DiscoveryGlobal, time.Now().UTC()); err != nil {
		r.logger.Warn().Err(err).Str("campaign_id", campaign.ID).Msg("failed to record discovery timestamp")
	}

	observability.DiscoveryRuns.WithLabelValues(string(domain.DiscoveryGlobal), "success").Inc()
	observability.DiscoveryDuration.WithLabelValues(string(domain.DiscoveryGlobal)).Observe(time.Since(start).Seconds())

	return RunResult{Message: "global discovery complete", Count: count, Diagnostics: diag}, nil
}

// loadCampaign fetches and validates a campaign for subreddit-based runs,
// returning the normalized non-blacklisted target subreddits.
func (r *Runner) loadCampaign(ctx context.Context, campaignID string) (domain.Campaign, []string, error) {
	campaign, err := r.campaigns.GetCampaign(ctx, campaignID)
	if err != nil {
		return domain.Campaign{}, nil, fmt.Errorf("load campaign: %w", err)
	}

	if len(campaign.GeneratedKeywords) == 0 {
		return domain.Campaign{}, nil, ErrNoKeywords
	}

	subreddits := activeSubreddits(campaign)
	if len(subreddits) == 0 {
		return domain.Campaign{}, nil, ErrNoSubreddits
	}

	return campaign, subreddits, nil
}

// runSubreddit fetches one subreddit with endpoint fallback, filters
// and persists its posts. Returns the report and the upsert count.
func (r *Runner) runSubreddit(ctx context.Context, campaign domain.Campaign, subreddit string, seen map[string]struct{}) (SubredditReport, int) {
	report := SubredditReport{Subreddit: subreddit}

	result, err := r.reddit.FetchSubreddit(ctx, subreddit, campaign.GeneratedKeywords)
	if err != nil {
		report.Error = err.Error()
		report.statusCode = StatusCodeOf(err)
		recordFetchError(err)

		r.logger.Warn().
			Err(err).
			Str("campaign_id", campaign.ID).
			Str("subreddit", subreddit).
			Msg("subreddit fetch failed")

		return report, 0
	}

	report.Endpoint = string(result.Endpoint)
	report.Fetched = len(result.Posts)
	observability.PostsFetched.WithLabelValues(string(result.Endpoint)).Add(float64(len(result.Posts)))

	posts := result.Posts

	// The search endpoint is already keyword-constrained; only the
	// listing endpoints need client-side relevance filtering.
	if result.Endpoint != EndpointSearch {
		posts = filterRelevant(posts, campaign.GeneratedKeywords)
	}

	posts = r.excludeNegatives(posts, campaign)
	report.Matched = len(posts)

	return report, r.scoreAndPersist(ctx, campaign, posts, seen, 0)
}

// runGlobalPass searches all of Reddit for the primary keyword and
// keeps only high-scoring results.
func (r *Runner) runGlobalPass(ctx context.Context, campaign domain.Campaign, seen map[string]struct{}, diag *Diagnostics) int {
	posts, err := r.reddit.GlobalSearch(ctx, campaign.GeneratedKeywords[0])
	if err != nil {
		recordFetchError(err)

		r.logger.Warn().
			Err(err).
			Str("campaign_id", campaign.ID).
			Msg("global search failed")

		return 0
	}

	posts = dedup.ByKey(posts, func(p domain.RedditPost) string { return p.ID })
	posts = r.excludeBlacklisted(posts, campaign)
	posts = r.excludeNegatives(posts, campaign)

	diag.GlobalFetched = len(posts)
	observability.PostsFetched.WithLabelValues(string(EndpointSearch)).Add(float64(len(posts)))

	kept := r.scoreAndPersist(ctx, campaign, posts, seen, globalScoreFloor)
	diag.GlobalKept = kept

	return kept
}

// scoreAndPersist scores each unseen post and upserts those at or above
// minScore. A zero minScore keeps everything.
func (r *Runner) scoreAndPersist(ctx context.Context, campaign domain.Campaign, posts []domain.RedditPost, seen map[string]struct{}, minScore int) int {
	count := 0

	for _, post := range posts {
		if _, ok := seen[post.ID]; ok {
			continue
		}

		seen[post.ID] = struct{}{}

		verdict := r.scorePost(ctx, post, campaign)

		if minScore > 0 && verdict.Score <= minScore {
			continue
		}

		if r.upsertLead(ctx, campaign.ID, post, verdict) {
			count++
		}
	}

	return count
}

// scorePost asks the LLM for a verdict, degrading to a neutral score on
// failure so a provider outage never aborts the run.
func (r *Runner) scorePost(ctx context.Context, post domain.RedditPost, campaign domain.Campaign) llm.OpportunityScore {
	verdict, err := r.llm.ScoreOpportunity(ctx,
		llm.PostInput{Title: post.Title, Body: post.Body, Subreddit: post.Subreddit},
		llm.CampaignContext{
			Name:        campaign.Name,
			Description: campaign.GeneratedDescription,
			Keywords:    campaign.GeneratedKeywords,
		},
		"",
	)
	if err != nil {
		r.logger.Warn().
			Err(err).
			Str("campaign_id", campaign.ID).
			Str("post_id", post.ID).
			Msg("scoring failed, using neutral verdict")

		return llm.DefaultOpportunityScore()
	}

	return verdict
}

func (r *Runner) upsertLead(ctx context.Context, campaignID string, post domain.RedditPost, verdict llm.OpportunityScore) bool {
	lead := domain.Lead{
		CampaignID:       campaignID,
		RedditID:         post.ID,
		Title:            post.Title,
		Author:           post.Author,
		Subreddit:        post.Subreddit,
		URL:              post.URL(),
		Body:             post.Body,
		PostedAt:         post.PostedAt,
		OpportunityScore: verdict.Score,
		Intent:           verdict.Intent,
		Status:           domain.LeadStatusNew,
		NumComments:      post.NumComments,
		UpvoteRatio:      post.UpvoteRatio,
	}

	created, err := r.leads.UpsertLead(ctx, lead)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("campaign_id", campaignID).
			Str("post_id", post.ID).
			Msg("failed to upsert lead")

		return false
	}

	outcome := "refreshed"
	if created {
		outcome = "created"
	}

	observability.LeadsUpserted.WithLabelValues(outcome).Inc()

	return true
}

func (r *Runner) excludeNegatives(posts []domain.RedditPost, campaign domain.Campaign) []domain.RedditPost {
	if len(campaign.NegativeKeywords) == 0 {
		return posts
	}

	out := posts[:0:0]

	for _, post := range posts {
		if !ContainsNegativeKeyword(post, campaign.NegativeKeywords) {
			out = append(out, post)
		}
	}

	return out
}

func (r *Runner) excludeBlacklisted(posts []domain.RedditPost, campaign domain.Campaign) []domain.RedditPost {
	if len(campaign.SubredditBlacklist) == 0 {
		return posts
	}

	blocked := make(map[string]struct{}, len(campaign.SubredditBlacklist))
	for _, name := range campaign.SubredditBlacklist {
		blocked[strings.ToLower(NormalizeSubreddit(name))] = struct{}{}
	}

	out := posts[:0:0]

	for _, post := range posts {
		if _, ok := blocked[strings.ToLower(post.Subreddit)]; !ok {
			out = append(out, post)
		}
	}

	return out
}

func filterRelevant(posts []domain.RedditPost, keywords []string) []domain.RedditPost {
	out := posts[:0:0]

	for _, post := range posts {
		if MatchesAnyKeyword(post, keywords) {
			out = append(out, post)
		}
	}

	return out
}

// activeSubreddits normalizes the campaign's target subreddits and
// drops blacklisted ones.
func activeSubreddits(campaign domain.Campaign) []string {
	blocked := make(map[string]struct{}, len(campaign.SubredditBlacklist))
	for _, name := range campaign.SubredditBlacklist {
		blocked[strings.ToLower(NormalizeSubreddit(name))] = struct{}{}
	}

	out := make([]string, 0, len(campaign.TargetSubreddits))

	for _, name := range campaign.TargetSubreddits {
		normalized := NormalizeSubreddit(name)
		if normalized == "" {
			continue
		}

		if _, ok := blocked[strings.ToLower(normalized)]; ok {
			continue
		}

		out = append(out, normalized)
	}

	return out
}

// runMessage builds the user-facing run summary. An empty result from
// Reddit rejecting every request reads differently than one where
// nothing matched.
func runMessage(base string, blocked bool) string {
	if blocked {
		return base + ", but Reddit returned 403 for every request; configure a proxy or change the egress IP"
	}

	return base
}

// allBlocked reports whether every recorded fetch error was a 403, and
// at least one error was recorded. It signals that Reddit is blocking
// the service rather than individual subreddits misbehaving.
func allBlocked(reports []SubredditReport) bool {
	sawError := false

	for _, report := range reports {
		if report.Error == "" {
			continue
		}

		sawError = true

		if report.statusCode != http.StatusForbidden {
			return false
		}
	}

	return sawError
}

func recordFetchError(err error) {
	status := StatusCodeOf(err)
	observability.RedditFetchErrors.WithLabelValues(strconv.Itoa(status)).Inc()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
