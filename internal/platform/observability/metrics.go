package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DiscoveryRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "redlead_discovery_runs_total",
		Help: "The total number of discovery runs by kind and status",
	}, []string{"kind", "status"})

	DiscoveryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "redlead_discovery_duration_seconds",
		Help:    "Duration of discovery runs",
		Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120, 300},
	}, []string{"kind"})

	PostsFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "redlead_posts_fetched_total",
		Help: "The total number of Reddit posts fetched by winning endpoint",
	}, []string{"endpoint"})

	RedditFetchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "redlead_reddit_fetch_errors_total",
		Help: "Total Reddit fetch errors by HTTP status code",
	}, []string{"status"})

	LeadsUpserted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "redlead_leads_upserted_total",
		Help: "Total leads written by outcome (created or refreshed)",
	}, []string{"outcome"})

	LLMRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "redlead_llm_requests_total",
		Help: "Total LLM requests by provider, task and status",
	}, []string{"provider", "task", "status"})

	LLMRequestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "redlead_llm_request_duration_seconds",
		Help:    "Duration of LLM requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider", "task"})

	LLMFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "redlead_llm_fallbacks_total",
		Help: "Total fallbacks from one LLM provider to another",
	}, []string{"from_provider", "to_provider", "task"})

	LLMProviderAvailable = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "redlead_llm_provider_available",
		Help: "Whether an LLM provider is configured and usable (1) or not (0)",
	}, []string{"provider"})
)
