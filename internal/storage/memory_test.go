package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redleadhq/redlead/internal/core/domain"
)

func newCampaign(t *testing.T, store *Memory, name, userID string) domain.Campaign {
	t.Helper()

	campaign, err := store.CreateCampaign(context.Background(), domain.Campaign{
		Name:              name,
		UserID:            userID,
		GeneratedKeywords: []string{"email marketing"},
		TargetSubreddits:  []string{"smallbusiness"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, campaign.ID)

	return campaign
}

func newLead(campaignID, redditID string, score int) domain.Lead {
	return domain.Lead{
		CampaignID:       campaignID,
		RedditID:         redditID,
		Title:            "post " + redditID,
		Subreddit:        "smallbusiness",
		OpportunityScore: score,
		Intent:           "Buying",
		Status:           domain.LeadStatusNew,
	}
}

func TestMemoryCampaignCRUD(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	campaign := newCampaign(t, store, "MailFlow", "u1")

	got, err := store.GetCampaign(ctx, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, "MailFlow", got.Name)
	assert.False(t, got.CreatedAt.IsZero())

	campaign.Name = "MailFlow v2"
	campaign.NegativeKeywords = []string{"hiring"}
	require.NoError(t, store.UpdateCampaign(ctx, campaign))

	got, err = store.GetCampaign(ctx, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, "MailFlow v2", got.Name)
	assert.Equal(t, []string{"hiring"}, got.NegativeKeywords)

	require.NoError(t, store.DeleteCampaign(ctx, campaign.ID))

	_, err = store.GetCampaign(ctx, campaign.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryCampaignNotFound(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	_, err := store.GetCampaign(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, store.UpdateCampaign(ctx, domain.Campaign{ID: "missing"}), ErrNotFound)
	assert.ErrorIs(t, store.DeleteCampaign(ctx, "missing"), ErrNotFound)
	assert.ErrorIs(t, store.SetLastDiscoveryAt(ctx, "missing", domain.DiscoveryManual, time.Now()), ErrNotFound)
}

func TestMemoryListCampaignsByUser(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	newCampaign(t, store, "a", "u1")
	newCampaign(t, store, "b", "u1")
	newCampaign(t, store, "c", "u2")

	campaigns, err := store.ListCampaigns(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, campaigns, 2)

	all, err := store.ListAllCampaigns(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestMemoryUpsertLeadIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	campaign := newCampaign(t, store, "MailFlow", "u1")

	created, err := store.UpsertLead(ctx, newLead(campaign.ID, "abc", 70))
	require.NoError(t, err)
	assert.True(t, created)

	created, err = store.UpsertLead(ctx, newLead(campaign.ID, "abc", 95))
	require.NoError(t, err)
	assert.False(t, created)

	leads, err := store.ListLeads(ctx, campaign.ID, "")
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, 95, leads[0].OpportunityScore)
}

func TestMemoryUpsertPreservesUserStatus(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	campaign := newCampaign(t, store, "MailFlow", "u1")

	_, err := store.UpsertLead(ctx, newLead(campaign.ID, "abc", 70))
	require.NoError(t, err)

	leads, err := store.ListLeads(ctx, campaign.ID, "")
	require.NoError(t, err)
	require.NoError(t, store.UpdateLeadStatus(ctx, leads[0].ID, domain.LeadStatusReplied))

	_, err = store.UpsertLead(ctx, newLead(campaign.ID, "abc", 80))
	require.NoError(t, err)

	got, err := store.GetLead(ctx, leads[0].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LeadStatusReplied, got.Status)
	assert.Equal(t, 80, got.OpportunityScore)
}

func TestMemoryUpsertScopedByCampaign(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	first := newCampaign(t, store, "a", "u1")
	second := newCampaign(t, store, "b", "u1")

	created, err := store.UpsertLead(ctx, newLead(first.ID, "abc", 70))
	require.NoError(t, err)
	assert.True(t, created)

	created, err = store.UpsertLead(ctx, newLead(second.ID, "abc", 70))
	require.NoError(t, err)
	assert.True(t, created)
}

func TestMemoryListLeadsOrderingAndFilter(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	campaign := newCampaign(t, store, "MailFlow", "u1")

	_, err := store.UpsertLead(ctx, newLead(campaign.ID, "low", 40))
	require.NoError(t, err)
	_, err = store.UpsertLead(ctx, newLead(campaign.ID, "high", 95))
	require.NoError(t, err)
	_, err = store.UpsertLead(ctx, newLead(campaign.ID, "mid", 60))
	require.NoError(t, err)

	leads, err := store.ListLeads(ctx, campaign.ID, "")
	require.NoError(t, err)
	require.Len(t, leads, 3)
	assert.Equal(t, "high", leads[0].RedditID)
	assert.Equal(t, "mid", leads[1].RedditID)
	assert.Equal(t, "low", leads[2].RedditID)

	require.NoError(t, store.UpdateLeadStatus(ctx, leads[0].ID, domain.LeadStatusSaved))

	saved, err := store.ListLeads(ctx, campaign.ID, domain.LeadStatusSaved)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "high", saved[0].RedditID)

	_, err = store.ListLeads(ctx, campaign.ID, "bogus")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestMemoryUpdateLeadStatus(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	campaign := newCampaign(t, store, "MailFlow", "u1")

	_, err := store.UpsertLead(ctx, newLead(campaign.ID, "abc", 70))
	require.NoError(t, err)

	leads, err := store.ListLeads(ctx, campaign.ID, "")
	require.NoError(t, err)

	assert.ErrorIs(t, store.UpdateLeadStatus(ctx, leads[0].ID, "bogus"), ErrInvalidStatus)
	assert.ErrorIs(t, store.UpdateLeadStatus(ctx, "missing", domain.LeadStatusIgnored), ErrNotFound)
	assert.NoError(t, store.UpdateLeadStatus(ctx, leads[0].ID, domain.LeadStatusIgnored))
}

func TestMemoryDeleteCampaignCascades(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	campaign := newCampaign(t, store, "MailFlow", "u1")

	_, err := store.UpsertLead(ctx, newLead(campaign.ID, "abc", 70))
	require.NoError(t, err)

	require.NoError(t, store.DeleteCampaign(ctx, campaign.ID))

	leads, err := store.ListLeads(ctx, campaign.ID, "")
	require.NoError(t, err)
	assert.Empty(t, leads)

	// The slot is free again for a new campaign with the same post.
	recreated := newCampaign(t, store, "MailFlow", "u1")

	created, err := store.UpsertLead(ctx, newLead(recreated.ID, "abc", 70))
	require.NoError(t, err)
	assert.True(t, created)
}

func TestMemorySetLastDiscoveryAt(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	campaign := newCampaign(t, store, "MailFlow", "u1")

	at := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.SetLastDiscoveryAt(ctx, campaign.ID, domain.DiscoveryGlobal, at))

	got, err := store.GetCampaign(ctx, campaign.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastGlobalDiscoveryAt)
	assert.Equal(t, at, *got.LastGlobalDiscoveryAt)
	assert.Nil(t, got.LastManualDiscoveryAt)
}
