package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/redleadhq/redlead/internal/core/domain"
)

// Memory is an in-process Store used when no POSTGRES_DSN is
// configured, and in tests. Data does not survive a restart.
type Memory struct {
	mu        sync.RWMutex
	campaigns map[string]domain.Campaign
	leads     map[string]domain.Lead

	// leadIndex maps campaignID+"/"+redditID to the lead id, backing
	// the upsert uniqueness constraint.
	leadIndex map[string]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		campaigns: make(map[string]domain.Campaign),
		leads:     make(map[string]domain.Lead),
		leadIndex: make(map[string]string),
	}
}

// Ping implements Store. The in-memory store is always ready.
func (m *Memory) Ping(_ context.Context) error {
	return nil
}

// Close implements Store.
func (m *Memory) Close() {}

// CreateCampaign implements CampaignStore.
func (m *Memory) CreateCampaign(_ context.Context, campaign domain.Campaign) (domain.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	campaign.ID = uuid.NewString()
	campaign.CreatedAt = time.Now().UTC()

	m.campaigns[campaign.ID] = cloneCampaign(campaign)

	return campaign, nil
}

// GetCampaign implements CampaignStore.
func (m *Memory) GetCampaign(_ context.Context, id string) (domain.Campaign, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	campaign, ok := m.campaigns[id]
	if !ok {
		return domain.Campaign{}, ErrNotFound
	}

	return cloneCampaign(campaign), nil
}

// ListCampaigns implements CampaignStore.
func (m *Memory) ListCampaigns(_ context.Context, userID string) ([]domain.Campaign, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var campaigns []domain.Campaign

	for _, campaign := range m.campaigns {
		if campaign.UserID == userID {
			campaigns = append(campaigns, cloneCampaign(campaign))
		}
	}

	sort.Slice(campaigns, func(i, j int) bool {
		return campaigns[i].CreatedAt.After(campaigns[j].CreatedAt)
	})

	return campaigns, nil
}

// ListAllCampaigns implements CampaignStore.
func (m *Memory) ListAllCampaigns(_ context.Context) ([]domain.Campaign, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	campaigns := make([]domain.Campaign, 0, len(m.campaigns))

	for _, campaign := range m.campaigns {
		campaigns = append(campaigns, cloneCampaign(campaign))
	}

	sort.Slice(campaigns, func(i, j int) bool {
		return campaigns[i].CreatedAt.Before(campaigns[j].CreatedAt)
	})

	return campaigns, nil
}

// UpdateCampaign implements CampaignStore.
func (m *Memory) UpdateCampaign(_ context.Context, campaign domain.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.campaigns[campaign.ID]
	if !ok {
		return ErrNotFound
	}

	existing.Name = campaign.Name
	existing.AnalyzedURL = campaign.AnalyzedURL
	existing.GeneratedKeywords = append([]string(nil), campaign.GeneratedKeywords...)
	existing.GeneratedDescription = campaign.GeneratedDescription
	existing.TargetSubreddits = append([]string(nil), campaign.TargetSubreddits...)
	existing.Competitors = append([]string(nil), campaign.Competitors...)
	existing.NegativeKeywords = append([]string(nil), campaign.NegativeKeywords...)
	existing.SubredditBlacklist = append([]string(nil), campaign.SubredditBlacklist...)

	m.campaigns[campaign.ID] = existing

	return nil
}

// DeleteCampaign implements CampaignStore. Leads of the campaign are
// removed as well, mirroring the database cascade.
func (m *Memory) DeleteCampaign(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.campaigns[id]; !ok {
		return ErrNotFound
	}

	delete(m.campaigns, id)

	for leadID, lead := range m.leads {
		if lead.CampaignID == id {
			delete(m.leads, leadID)
			delete(m.leadIndex, leadKey(lead.CampaignID, lead.RedditID))
		}
	}

	return nil
}

// SetLastDiscoveryAt implements CampaignStore.
func (m *Memory) SetLastDiscoveryAt(_ context.Context, id string, kind domain.DiscoveryKind, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	campaign, ok := m.campaigns[id]
	if !ok {
		return ErrNotFound
	}

	ts := at

	switch kind {
	case domain.DiscoveryManual:
		campaign.LastManualDiscoveryAt = &ts
	case domain.DiscoveryGlobal:
		campaign.LastGlobalDiscoveryAt = &ts
	case domain.DiscoveryTargeted:
		campaign.LastTargetedDiscoveryAt = &ts
	}

	m.campaigns[id] = campaign

	return nil
}

// UpsertLead implements LeadStore, keyed by (campaign, reddit post).
// Refreshing an existing lead only updates score and intent.
func (m *Memory) UpsertLead(_ context.Context, lead domain.Lead) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	key := leadKey(lead.CampaignID, lead.RedditID)

	if existingID, ok := m.leadIndex[key]; ok {
		existing := m.leads[existingID]
		existing.OpportunityScore = lead.OpportunityScore
		existing.Intent = lead.Intent
		existing.UpdatedAt = now

		m.leads[existingID] = existing

		return false, nil
	}

	lead.ID = uuid.NewString()

	if lead.Status == "" {
		lead.Status = domain.LeadStatusNew
	}

	lead.CreatedAt = now
	lead.UpdatedAt = now

	m.leads[lead.ID] = lead
	m.leadIndex[key] = lead.ID

	return true, nil
}

// GetLead implements LeadStore.
func (m *Memory) GetLead(_ context.Context, id string) (domain.Lead, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	lead, ok := m.leads[id]
	if !ok {
		return domain.Lead{}, ErrNotFound
	}

	return lead, nil
}

// ListLeads implements LeadStore.
func (m *Memory) ListLeads(_ context.Context, campaignID string, status domain.LeadStatus) ([]domain.Lead, error) {
	if status != "" && !status.Valid() {
		return nil, ErrInvalidStatus
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var leads []domain.Lead

	for _, lead := range m.leads {
		if lead.CampaignID != campaignID {
			continue
		}

		if status != "" && lead.Status != status {
			continue
		}

		leads = append(leads, lead)
	}

	sort.Slice(leads, func(i, j int) bool {
		if leads[i].OpportunityScore != leads[j].OpportunityScore {
			return leads[i].OpportunityScore > leads[j].OpportunityScore
		}

		return leads[i].CreatedAt.After(leads[j].CreatedAt)
	})

	return leads, nil
}

// UpdateLeadStatus implements LeadStore.
func (m *Memory) UpdateLeadStatus(_ context.Context, id string, status domain.LeadStatus) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	lead, ok := m.leads[id]
	if !ok {
		return ErrNotFound
	}

	lead.Status = status
	lead.UpdatedAt = time.Now().UTC()

	m.leads[id] = lead

	return nil
}

func leadKey(campaignID, redditID string) string {
	return campaignID + "/" + redditID
}

func cloneCampaign(campaign domain.Campaign) domain.Campaign {
	campaign.GeneratedKeywords = append([]string(nil), campaign.GeneratedKeywords...)
	campaign.TargetSubreddits = append([]string(nil), campaign.TargetSubreddits...)
	campaign.Competitors = append([]string(nil), campaign.Competitors...)
	campaign.NegativeKeywords = append([]string(nil), campaign.NegativeKeywords...)
	campaign.SubredditBlacklist = append([]string(nil), campaign.SubredditBlacklist...)

	return campaign
}

// Ensure Memory implements Store.
var _ Store = (*Memory)(nil)
