package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/redleadhq/redlead/internal/core/domain"
)

// CampaignStore is the campaign persistence the handlers need.
type CampaignStore interface {
	CreateCampaign(ctx context.Context, campaign domain.Campaign) (domain.Campaign, error)
	GetCampaign(ctx context.Context, id string) (domain.Campaign, error)
	ListCampaigns(ctx context.Context, userID string) ([]domain.Campaign, error)
	UpdateCampaign(ctx context.Context, campaign domain.Campaign) error
	DeleteCampaign(ctx context.Context, id string) error
}

// CampaignHandler serves campaign CRUD.
type CampaignHandler struct {
	store  CampaignStore
	logger *zerolog.Logger
}

// NewCampaignHandler creates a CampaignHandler.
func NewCampaignHandler(store CampaignStore, logger *zerolog.Logger) *CampaignHandler {
	return &CampaignHandler{store: store, logger: logger}
}

type campaignRequest struct {
	UserID               string   `json:"userId"`
	Name                 string   `json:"name"`
	AnalyzedURL          string   `json:"analyzedUrl"`
	GeneratedKeywords    []string `json:"generatedKeywords"`
	GeneratedDescription string   `json:"generatedDescription"`
	TargetSubreddits     []string `json:"targetSubreddits"`
	Competitors          []string `json:"competitors"`
	NegativeKeywords     []string `json:"negativeKeywords"`
	SubredditBlacklist   []string `json:"subredditBlacklist"`
}

type campaignResponse struct {
	ID                   string   `json:"id"`
	UserID               string   `json:"userId"`
	Name                 string   `json:"name"`
	AnalyzedURL          string   `json:"analyzedUrl,omitempty"`
	GeneratedKeywords    []string `json:"generatedKeywords"`
	GeneratedDescription string   `json:"generatedDescription,omitempty"`
	TargetSubreddits     []string `json:"targetSubreddits"`
	Competitors          []string `json:"competitors,omitempty"`
	NegativeKeywords     []string `json:"negativeKeywords,omitempty"`
	SubredditBlacklist   []string `json:"subredditBlacklist,omitempty"`

	LastManualDiscoveryAt   *time.Time `json:"lastManualDiscoveryAt,omitempty"`
	LastGlobalDiscoveryAt   *time.Time `json:"lastGlobalDiscoveryAt,omitempty"`
	LastTargetedDiscoveryAt *time.Time `json:"lastTargetedDiscoveryAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

func toCampaignResponse(campaign domain.Campaign) campaignResponse {
	return campaignResponse{
		ID:                      campaign.ID,
		UserID:                  campaign.UserID,
		Name:                    campaign.Name,
		AnalyzedURL:             campaign.AnalyzedURL,
		GeneratedKeywords:       campaign.GeneratedKeywords,
		GeneratedDescription:    campaign.GeneratedDescription,
		TargetSubreddits:        campaign.TargetSubreddits,
		Competitors:             campaign.Competitors,
		NegativeKeywords:        campaign.NegativeKeywords,
		SubredditBlacklist:      campaign.SubredditBlacklist,
		LastManualDiscoveryAt:   campaign.LastManualDiscoveryAt,
		LastGlobalDiscoveryAt:   campaign.LastGlobalDiscoveryAt,
		LastTargetedDiscoveryAt: campaign.LastTargetedDiscoveryAt,
		CreatedAt:               campaign.CreatedAt,
	}
}

// Create handles POST /api/campaigns.
func (h *CampaignHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req campaignRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "name and userId are required")
		return
	}

	campaign, err := h.store.CreateCampaign(r.Context(), domain.Campaign{
		UserID:               req.UserID,
		Name:                 req.Name,
		AnalyzedURL:          req.AnalyzedURL,
		GeneratedKeywords:    req.GeneratedKeywords,
		GeneratedDescription: req.GeneratedDescription,
		TargetSubreddits:     req.TargetSubreddits,
		Competitors:          req.Competitors,
		NegativeKeywords:     req.NegativeKeywords,
		SubredditBlacklist:   req.SubredditBlacklist,
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to create campaign")
		writeServiceError(w, err)

		return
	}

	writeJSON(w, http.StatusCreated, toCampaignResponse(campaign))
}

// List handles GET /api/campaigns?userId=.
func (h *CampaignHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId query parameter is required")
		return
	}

	campaigns, err := h.store.ListCampaigns(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list campaigns")
		writeServiceError(w, err)

		return
	}

	out := make([]campaignResponse, 0, len(campaigns))
	for _, campaign := range campaigns {
		out = append(out, toCampaignResponse(campaign))
	}

	writeJSON(w, http.StatusOK, out)
}

// Get handles GET /api/campaigns/{campaignID}.
func (h *CampaignHandler) Get(w http.ResponseWriter, r *http.Request) {
	campaign, err := h.store.GetCampaign(r.Context(), chi.URLParam(r, "campaignID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toCampaignResponse(campaign))
}

// Update handles PATCH /api/campaigns/{campaignID}. Absent fields keep
// their current values.
func (h *CampaignHandler) Update(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "campaignID")

	campaign, err := h.store.GetCampaign(r.Context(), campaignID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var req campaignRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	applyCampaignPatch(&campaign, req)

	if err := h.store.UpdateCampaign(r.Context(), campaign); err != nil {
		h.logger.Error().Err(err).Str("campaign_id", campaignID).Msg("failed to update campaign")
		writeServiceError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, toCampaignResponse(campaign))
}

// Delete handles DELETE /api/campaigns/{campaignID}.
func (h *CampaignHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteCampaign(r.Context(), chi.URLParam(r, "campaignID")); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func applyCampaignPatch(campaign *domain.Campaign, req campaignRequest) {
	if req.Name != "" {
		campaign.Name = req.Name
	}

	if req.AnalyzedURL != "" {
		campaign.AnalyzedURL = req.AnalyzedURL
	}

	if req.GeneratedDescription != "" {
		campaign.GeneratedDescription = req.GeneratedDescription
	}

	if req.GeneratedKeywords != nil {
		campaign.GeneratedKeywords = req.GeneratedKeywords
	}

	if req.TargetSubreddits != nil {
		campaign.TargetSubreddits = req.TargetSubreddits
	}

	if req.Competitors != nil {
		campaign.Competitors = req.Competitors
	}

	if req.NegativeKeywords != nil {
		campaign.NegativeKeywords = req.NegativeKeywords
	}

	if req.SubredditBlacklist != nil {
		campaign.SubredditBlacklist = req.SubredditBlacklist
	}
}
