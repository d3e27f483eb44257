// Package discovery implements the lead discovery pipeline: fetching
// Reddit posts with endpoint fallback, filtering them for campaign
// relevance and scoring survivors with an LLM.
package discovery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/redleadhq/redlead/internal/core/domain"
)

const (
	redditBaseURL = "https://www.reddit.com"

	listingLimit  = 25
	targetedLimit = 10

	// How many campaign keywords the targeted search OR-joins.
	targetedKeywordCount = 2

	redditDefaultTimeout = 15 * time.Second
	redditDefaultRPS     = 1

	redditRateBurst = 1

	headerAccept = "application/json"

	maxErrorBodyLen = 200
)

// Endpoint identifies a Reddit listing endpoint.
type Endpoint string

// Endpoints in fallback order.
const (
	EndpointNew    Endpoint = "new"
	EndpointHot    Endpoint = "hot"
	EndpointSearch Endpoint = "search"
)

// subredditEndpoints is the fallback chain tried for each subreddit.
var subredditEndpoints = []Endpoint{EndpointNew, EndpointHot, EndpointSearch}

// Reddit client errors.
var (
	errRedditUnexpectedStatus = errors.New("reddit unexpected status")
	errRedditNonJSONResponse  = errors.New("reddit non-json response")
)

// StatusError carries the HTTP status of a failed Reddit request so the
// orchestrator can distinguish blocks (403) from other failures.
type StatusError struct {
	Endpoint   Endpoint
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("reddit %s endpoint returned status %d", e.Endpoint, e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	return errRedditUnexpectedStatus
}

// StatusCodeOf extracts the HTTP status from a fetch error, or 0.
func StatusCodeOf(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}

	return 0
}

// RedditConfig configures the Reddit listing client.
type RedditConfig struct {
	UserAgent string
	Timeout   time.Duration
	RPS       float64
	Proxy     ProxyConfig
}

// RedditClient fetches posts from the unauthenticated Reddit JSON API.
type RedditClient struct {
	baseURL     string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	userAgent   string
	proxy       ProxyConfig
	logger      *zerolog.Logger
}

// NewRedditClient creates a Reddit client with the configured proxy.
func NewRedditClient(cfg RedditConfig, logger *zerolog.Logger) (*RedditClient, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = redditDefaultTimeout
	}

	rps := cfg.RPS
	if rps <= 0 {
		rps = redditDefaultRPS
	}

	httpClient, err := newHTTPClient(cfg.Proxy, timeout)
	if err != nil {
		return nil, fmt.Errorf("build reddit http client: %w", err)
	}

	return &RedditClient{
		baseURL:     redditBaseURL,
		httpClient:  httpClient,
		rateLimiter: rate.NewLimiter(rate.Limit(rps), redditRateBurst),
		userAgent:   cfg.UserAgent,
		proxy:       cfg.Proxy,
		logger:      logger,
	}, nil
}

// FetchResult is the outcome of a subreddit fetch, recording which
// endpoint produced the posts.
type FetchResult struct {
	Posts    []domain.RedditPost
	Endpoint Endpoint
}

// FetchSubreddit tries the listing endpoints in order (new, hot,
// search) and returns the first parseable 200 response. Later endpoints
// are not tried once one succeeds.
func (c *RedditClient) FetchSubreddit(ctx context.Context, subreddit string, keywords []string) (FetchResult, error) {
	var lastErr error

	for _, endpoint := range subredditEndpoints {
		posts, err := c.fetchListing(ctx, endpoint, c.endpointURL(endpoint, subreddit, keywords))
		if err != nil {
			lastErr = err

			c.logger.Debug().
				Err(err).
				Str("subreddit", subreddit).
				Str("endpoint", string(endpoint)).
				Msg("reddit endpoint failed, trying next")

			continue
		}

		return FetchResult{Posts: posts, Endpoint: endpoint}, nil
	}

	return FetchResult{}, fmt.Errorf("fetch subreddit %s: %w", subreddit, lastErr)
}

// GlobalSearch searches all of Reddit for a single keyword, newest first.
func (c *RedditClient) GlobalSearch(ctx context.Context, keyword string) ([]domain.RedditPost, error) {
	params := url.Values{}
	params.Set("q", keyword)
	params.Set("sort", "new")
	params.Set("limit", strconv.Itoa(listingLimit))

	target := c.baseURL + "/search.json?" + params.Encode()

	posts, err := c.fetchListing(ctx, EndpointSearch, target)
	if err != nil {
		return nil, fmt.Errorf("global search: %w", err)
	}

	return posts, nil
}

// TargetedSearch runs a relevance-sorted search inside one subreddit,
// OR-joining the top campaign keywords.
func (c *RedditClient) TargetedSearch(ctx context.Context, subreddit string, keywords []string) ([]domain.RedditPost, error) {
	top := keywords
	if len(top) > targetedKeywordCount {
		top = top[:targetedKeywordCount]
	}

	params := url.Values{}
	params.Set("q", strings.Join(top, " OR "))
	params.Set("restrict_sr", "1")
	params.Set("sort", "relevance")
	params.Set("limit", strconv.Itoa(targetedLimit))

	target := fmt.Sprintf("%s/r/%s/search.json?%s", c.baseURL, subreddit, params.Encode())

	posts, err := c.fetchListing(ctx, EndpointSearch, target)
	if err != nil {
		return nil, fmt.Errorf("targeted search %s: %w", subreddit, err)
	}

	return posts, nil
}

func (c *RedditClient) endpointURL(endpoint Endpoint, subreddit string, keywords []string) string {
	switch endpoint {
	case EndpointSearch:
		params := url.Values{}
		params.Set("q", strings.Join(keywords, " OR "))
		params.Set("restrict_sr", "1")
		params.Set("sort", "new")
		params.Set("limit", strconv.Itoa(listingLimit))

		return fmt.Sprintf("%s/r/%s/search.json?%s", c.baseURL, subreddit, params.Encode())
	default:
		params := url.Values{}
		params.Set("limit", strconv.Itoa(listingLimit))

		return fmt.Sprintf("%s/r/%s/%s.json?%s", c.baseURL, subreddit, endpoint, params.Encode())
	}
}

func (c *RedditClient) fetchListing(ctx context.Context, endpoint Endpoint, target string) ([]domain.RedditPost, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("reddit rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.proxy.requestURL(target), nil)
	if err != nil {
		return nil, fmt.Errorf("create reddit request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", headerAccept)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reddit request: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read reddit response: %w", err)
	}

	return parseListing(body)
}

// Reddit listing envelope: data.children[].data.
type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPostData `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPostData struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Subreddit   string  `json:"subreddit"`
	Selftext    string  `json:"selftext"`
	Permalink   string  `json:"permalink"`
	CreatedUTC  float64 `json:"created_utc"`
	NumComments int     `json:"num_comments"`
	UpvoteRatio float64 `json:"upvote_ratio"`
}

func parseListing(body []byte) ([]domain.RedditPost, error) {
	if err := checkNonJSON(body); err != nil {
		return nil, err
	}

	var listing redditListing
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("parse reddit json: %w", err)
	}

	posts := make([]domain.RedditPost, 0, len(listing.Data.Children))

	for _, child := range listing.Data.Children {
		if post := mapRedditPost(child.Data); post != nil {
			posts = append(posts, *post)
		}
	}

	return posts, nil
}

// checkNonJSON rejects block pages and rate-limit HTML that Reddit
// serves with a 200 status.
func checkNonJSON(body []byte) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] != '{' && trimmed[0] != '[' {
		errMsg := string(trimmed)
		if len(errMsg) > maxErrorBodyLen {
			errMsg = errMsg[:maxErrorBodyLen] + "..."
		}

		return fmt.Errorf("%w: %s", errRedditNonJSONResponse, errMsg)
	}

	return nil
}

func mapRedditPost(data redditPostData) *domain.RedditPost {
	if data.ID == "" {
		return nil
	}

	post := &domain.RedditPost{
		ID:          data.ID,
		Title:       data.Title,
		Author:      data.Author,
		Subreddit:   data.Subreddit,
		Body:        data.Selftext,
		Permalink:   data.Permalink,
		NumComments: data.NumComments,
		UpvoteRatio: data.UpvoteRatio,
	}

	if data.CreatedUTC > 0 {
		post.PostedAt = time.Unix(int64(data.CreatedUTC), 0).UTC()
	}

	return post
}
