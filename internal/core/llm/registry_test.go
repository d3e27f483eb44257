package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redleadhq/redlead/internal/platform/observability"
)

var errProviderDown = errors.New("provider down")

// fakeProvider is a scripted provider for registry tests.
type fakeProvider struct {
	name      ProviderName
	priority  int
	available bool
	failScore bool
	calls     int
}

func (f *fakeProvider) Name() ProviderName { return f.name }
func (f *fakeProvider) IsAvailable() bool  { return f.available }
func (f *fakeProvider) Priority() int      { return f.priority }

func (f *fakeProvider) ScoreOpportunity(_ context.Context, _ PostInput, _ CampaignContext, _ string) (OpportunityScore, error) {
	f.calls++

	if f.failScore {
		return OpportunityScore{}, errProviderDown
	}

	return OpportunityScore{Score: 80, Intent: "Buying", Reason: string(f.name)}, nil
}

func (f *fakeProvider) GenerateText(_ context.Context, _, _ string) (string, error) {
	f.calls++

	if f.failScore {
		return "", errProviderDown
	}

	return "text from " + string(f.name), nil
}

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func TestRegistryPrefersHigherPriority(t *testing.T) {
	r := NewRegistry(testLogger())
	cb := DefaultCircuitBreakerConfig()

	secondary := &fakeProvider{name: "secondary", priority: 10, available: true}
	primary := &fakeProvider{name: "primary", priority: 100, available: true}

	r.Register(secondary, cb)
	r.Register(primary, cb)

	score, err := r.ScoreOpportunity(context.Background(), PostInput{Title: "t"}, CampaignContext{}, "")
	require.NoError(t, err)
	assert.Equal(t, "primary", score.Reason)
	assert.Equal(t, 0, secondary.calls)
}

func TestRegistryFallsBackOnFailure(t *testing.T) {
	r := NewRegistry(testLogger())
	cb := DefaultCircuitBreakerConfig()

	primary := &fakeProvider{name: "primary", priority: 100, available: true, failScore: true}
	secondary := &fakeProvider{name: "secondary", priority: 10, available: true}

	r.Register(primary, cb)
	r.Register(secondary, cb)

	score, err := r.ScoreOpportunity(context.Background(), PostInput{Title: "t"}, CampaignContext{}, "")
	require.NoError(t, err)
	assert.Equal(t, "secondary", score.Reason)
	assert.Equal(t, 1, primary.calls)
}

func TestRegistrySkipsUnavailableProvider(t *testing.T) {
	r := NewRegistry(testLogger())
	cb := DefaultCircuitBreakerConfig()

	primary := &fakeProvider{name: "primary", priority: 100, available: false}
	secondary := &fakeProvider{name: "secondary", priority: 10, available: true}

	r.Register(primary, cb)
	r.Register(secondary, cb)

	out, err := r.GenerateText(context.Background(), "hi", "")
	require.NoError(t, err)
	assert.Equal(t, "text from secondary", out)
	assert.Equal(t, 0, primary.calls)
}

func TestRegistryRecordsFallbackWhenPrimarySkipped(t *testing.T) {
	r := NewRegistry(testLogger())
	cb := DefaultCircuitBreakerConfig()

	primary := &fakeProvider{name: "skipped-primary", priority: 100, available: false}
	secondary := &fakeProvider{name: "standby-secondary", priority: 10, available: true}

	r.Register(primary, cb)
	r.Register(secondary, cb)

	fallbacks := observability.LLMFallbacks.WithLabelValues("skipped-primary", "standby-secondary", string(TaskTypeScore))
	before := testutil.ToFloat64(fallbacks)

	_, err := r.ScoreOpportunity(context.Background(), PostInput{Title: "t"}, CampaignContext{}, "")
	require.NoError(t, err)

	assert.Equal(t, before+1, testutil.ToFloat64(fallbacks))
}

func TestRegistryRecordsFallbackOnPrimaryFailure(t *testing.T) {
	r := NewRegistry(testLogger())
	cb := DefaultCircuitBreakerConfig()

	primary := &fakeProvider{name: "broken-primary", priority: 100, available: true, failScore: true}
	secondary := &fakeProvider{name: "healthy-secondary", priority: 10, available: true}

	r.Register(primary, cb)
	r.Register(secondary, cb)

	fallbacks := observability.LLMFallbacks.WithLabelValues("broken-primary", "healthy-secondary", string(TaskTypeScore))
	before := testutil.ToFloat64(fallbacks)

	_, err := r.ScoreOpportunity(context.Background(), PostInput{Title: "t"}, CampaignContext{}, "")
	require.NoError(t, err)

	assert.Equal(t, before+1, testutil.ToFloat64(fallbacks))
}

func TestRegistryAllProvidersFailed(t *testing.T) {
	r := NewRegistry(testLogger())
	cb := DefaultCircuitBreakerConfig()

	r.Register(&fakeProvider{name: "a", priority: 2, available: true, failScore: true}, cb)
	r.Register(&fakeProvider{name: "b", priority: 1, available: true, failScore: true}, cb)

	_, err := r.ScoreOpportunity(context.Background(), PostInput{}, CampaignContext{}, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAllProvidersFailed)
	assert.ErrorIs(t, err, errProviderDown)
}

func TestRegistryNoProviders(t *testing.T) {
	r := NewRegistry(testLogger())

	_, err := r.GenerateText(context.Background(), "hi", "")
	assert.ErrorIs(t, err, ErrNoProvidersAvailable)
}

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Threshold: 3, ResetAfter: time.Hour}, testLogger())

	for i := 0; i < 2; i++ {
		cb.RecordFailure("test")
	}

	assert.True(t, cb.CanAttempt())

	cb.RecordFailure("test")

	assert.False(t, cb.CanAttempt())
	assert.Error(t, cb.CheckCircuit())

	cb.Reset()
	assert.True(t, cb.CanAttempt())
}

func TestCircuitBreakerSkipsProviderInRegistry(t *testing.T) {
	r := NewRegistry(testLogger())

	failing := &fakeProvider{name: "failing", priority: 100, available: true, failScore: true}
	healthy := &fakeProvider{name: "healthy", priority: 10, available: true}

	r.Register(failing, CircuitBreakerConfig{Threshold: 1, ResetAfter: time.Hour})
	r.Register(healthy, DefaultCircuitBreakerConfig())

	// First call trips the breaker on the failing provider.
	_, err := r.GenerateText(context.Background(), "hi", "")
	require.NoError(t, err)
	assert.Equal(t, 1, failing.calls)

	// Second call must skip it entirely.
	_, err = r.GenerateText(context.Background(), "hi", "")
	require.NoError(t, err)
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 2, healthy.calls)
}

func TestDefaultOpportunityScore(t *testing.T) {
	s := DefaultOpportunityScore()
	assert.Equal(t, 50, s.Score)
	assert.Equal(t, IntentUnclassified, s.Intent)
}
