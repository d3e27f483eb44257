package llm

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/redleadhq/redlead/internal/platform/observability"
)

// Registry errors.
var (
	ErrNoProvidersAvailable = errors.New("no LLM providers available")
	ErrAllProvidersFailed   = errors.New("all LLM providers failed")
)

// Metric gauge values.
const (
	metricValueAvailable   = 1.0
	metricValueUnavailable = 0.0
)

// Registry manages LLM providers with priority-ordered fallback.
type Registry struct {
	mu              sync.RWMutex
	providers       map[ProviderName]Provider
	order           []ProviderName // Priority order (highest first)
	circuitBreakers map[ProviderName]*CircuitBreaker
	logger          *zerolog.Logger
}

// NewRegistry creates a new provider registry.
func NewRegistry(logger *zerolog.Logger) *Registry {
	return &Registry{
		providers:       make(map[ProviderName]Provider),
		order:           make([]ProviderName, 0),
		circuitBreakers: make(map[ProviderName]*CircuitBreaker),
		logger:          logger,
	}
}

// Register adds a provider to the registry.
func (r *Registry) Register(p Provider, cfg CircuitBreakerConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := p.Name()
	r.providers[name] = p
	r.order = append(r.order, name)
	r.circuitBreakers[name] = NewCircuitBreaker(cfg, r.logger)

	// Sort by priority (descending)
	r.sortProvidersByPriority()

	available := metricValueUnavailable
	if p.IsAvailable() {
		available = metricValueAvailable
	}

	observability.LLMProviderAvailable.WithLabelValues(string(name)).Set(available)

	r.logger.Info().
		Str(logKeyProvider, string(name)).
		Int("priority", p.Priority()).
		Msg("registered LLM provider")
}

// ProviderCount returns the number of registered providers.
func (r *Registry) ProviderCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.providers)
}

// ScoreOpportunity implements Client interface with fallback.
func (r *Registry) ScoreOpportunity(ctx context.Context, post PostInput, campaign CampaignContext, model string) (OpportunityScore, error) {
	return executeWithFallback(r, TaskTypeScore, func(p Provider) (OpportunityScore, error) {
		return p.ScoreOpportunity(ctx, post, campaign, model)
	})
}

// GenerateText implements Client interface with fallback.
func (r *Registry) GenerateText(ctx context.Context, prompt, model string) (string, error) {
	return executeWithFallback(r, TaskTypeGenerate, func(p Provider) (string, error) {
		return p.GenerateText(ctx, prompt, model)
	})
}

// executeWithFallback is a generic helper running fn against providers
// in priority order until one succeeds.
func executeWithFallback[T any](r *Registry, taskType TaskType, fn func(Provider) (T, error)) (T, error) {
	r.mu.RLock()
	order := make([]ProviderName, len(r.order))
	copy(order, r.order)
	r.mu.RUnlock()

	var zero T

	if len(order) == 0 {
		return zero, ErrNoProvidersAvailable
	}

	var lastErr error

	// First provider that failed or was skipped, so a later success is
	// recorded as a fallback.
	var previousProvider ProviderName

	for _, name := range order {
		result, success, err := tryProviderExec(r, name, taskType, fn)
		if err != nil || !success {
			if err != nil {
				lastErr = err
			}

			if previousProvider == "" {
				previousProvider = name
			}

			continue
		}

		if previousProvider != "" {
			observability.LLMFallbacks.WithLabelValues(
				string(previousProvider),
				string(name),
				string(taskType),
			).Inc()

			r.logger.Info().
				Str(logKeyProvider, string(name)).
				Str("from_provider", string(previousProvider)).
				Str(logKeyTask, string(taskType)).
				Msg("used fallback LLM provider")
		}

		return result, nil
	}

	if lastErr != nil {
		return zero, errors.Join(ErrAllProvidersFailed, lastErr)
	}

	return zero, ErrNoProvidersAvailable
}

// tryProviderExec attempts to execute fn with a single provider.
func tryProviderExec[T any](r *Registry, name ProviderName, taskType TaskType, fn func(Provider) (T, error)) (T, bool, error) {
	var zero T

	r.mu.RLock()
	p, exists := r.providers[name]
	r.mu.RUnlock()

	if !exists || !p.IsAvailable() {
		return zero, false, nil
	}

	cb := r.getCircuitBreaker(name)

	if !cb.CanAttempt() {
		observability.LLMProviderAvailable.WithLabelValues(string(name)).Set(metricValueUnavailable)

		r.logger.Debug().
			Str(logKeyProvider, string(name)).
			Str(logKeyTask, string(taskType)).
			Msg(logMsgCircuitBreakerOpen)

		return zero, false, nil
	}

	start := time.Now()

	result, err := fn(p)

	duration := time.Since(start)

	observability.LLMRequestLatency.WithLabelValues(string(name), string(taskType)).Observe(duration.Seconds())

	if err != nil {
		cb.RecordFailure(name)
		observability.LLMRequests.WithLabelValues(string(name), string(taskType), statusError).Inc()

		r.logger.Warn().
			Err(err).
			Str(logKeyProvider, string(name)).
			Str(logKeyTask, string(taskType)).
			Float64("duration_seconds", duration.Seconds()).
			Msg("LLM provider failed, trying fallback")

		return zero, false, err
	}

	cb.RecordSuccess()
	observability.LLMRequests.WithLabelValues(string(name), string(taskType), statusSuccess).Inc()
	observability.LLMProviderAvailable.WithLabelValues(string(name)).Set(metricValueAvailable)

	return result, true, nil
}

// sortProvidersByPriority sorts providers by priority in descending order.
func (r *Registry) sortProvidersByPriority() {
	sort.SliceStable(r.order, func(i, j int) bool {
		pi := r.providers[r.order[i]].Priority()
		pj := r.providers[r.order[j]].Priority()

		return pi > pj
	})
}

// getCircuitBreaker returns the circuit breaker for a provider.
func (r *Registry) getCircuitBreaker(name ProviderName) *CircuitBreaker {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.circuitBreakers[name]
}

// ProviderStatus holds status information for a provider.
type ProviderStatus struct {
	Name             ProviderName
	Priority         int
	Available        bool
	CircuitBreakerOK bool
}

// GetProviderStatuses returns status information for all registered providers.
func (r *Registry) GetProviderStatuses() []ProviderStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	statuses := make([]ProviderStatus, 0, len(r.order))

	for _, name := range r.order {
		p := r.providers[name]
		cb := r.circuitBreakers[name]

		statuses = append(statuses, ProviderStatus{
			Name:             name,
			Priority:         p.Priority(),
			Available:        p.IsAvailable(),
			CircuitBreakerOK: cb.CanAttempt(),
		})
	}

	return statuses
}

// Ensure Registry implements Client interface.
var _ Client = (*Registry)(nil)
