package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/redleadhq/redlead/internal/core/domain"
)

// LeadStore is the lead persistence the handlers need.
type LeadStore interface {
	GetLead(ctx context.Context, id string) (domain.Lead, error)
	ListLeads(ctx context.Context, campaignID string, status domain.LeadStatus) ([]domain.Lead, error)
	UpdateLeadStatus(ctx context.Context, id string, status domain.LeadStatus) error
}

// ReplyGenerator drafts a reply for a lead.
type ReplyGenerator interface {
	GenerateReply(ctx context.Context, lead domain.Lead, campaign domain.Campaign) (string, error)
}

// LeadHandler serves lead listing, status changes and reply drafts.
type LeadHandler struct {
	leads     LeadStore
	campaigns CampaignStore
	replies   ReplyGenerator
	logger    *zerolog.Logger
}

// NewLeadHandler creates a LeadHandler.
func NewLeadHandler(leads LeadStore, campaigns CampaignStore, replies ReplyGenerator, logger *zerolog.Logger) *LeadHandler {
	return &LeadHandler{
		leads:     leads,
		campaigns: campaigns,
		replies:   replies,
		logger:    logger,
	}
}

type leadResponse struct {
	ID               string     `json:"id"`
	CampaignID       string     `json:"campaignId"`
	RedditID         string     `json:"redditId"`
	Title            string     `json:"title"`
	Author           string     `json:"author"`
	Subreddit        string     `json:"subreddit"`
	URL              string     `json:"url"`
	Body             string     `json:"body,omitempty"`
	PostedAt         *time.Time `json:"postedAt,omitempty"`
	OpportunityScore int        `json:"opportunityScore"`
	Intent           string     `json:"intent"`
	Status           string     `json:"status"`
	NumComments      int        `json:"numComments"`
	UpvoteRatio      float64    `json:"upvoteRatio"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

func toLeadResponse(lead domain.Lead) leadResponse {
	resp := leadResponse{
		ID:               lead.ID,
		CampaignID:       lead.CampaignID,
		RedditID:         lead.RedditID,
		Title:            lead.Title,
		Author:           lead.Author,
		Subreddit:        lead.Subreddit,
		URL:              lead.URL,
		Body:             lead.Body,
		OpportunityScore: lead.OpportunityScore,
		Intent:           lead.Intent,
		Status:           string(lead.Status),
		NumComments:      lead.NumComments,
		UpvoteRatio:      lead.UpvoteRatio,
		CreatedAt:        lead.CreatedAt,
		UpdatedAt:        lead.UpdatedAt,
	}

	if !lead.PostedAt.IsZero() {
		postedAt := lead.PostedAt
		resp.PostedAt = &postedAt
	}

	return resp
}

// List handles GET /api/campaigns/{campaignID}/leads?status=.
func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "campaignID")
	status := domain.LeadStatus(r.URL.Query().Get("status"))

	// 404 for unknown campaigns rather than an empty list.
	if _, err := h.campaigns.GetCampaign(r.Context(), campaignID); err != nil {
		writeServiceError(w, err)
		return
	}

	leads, err := h.leads.ListLeads(r.Context(), campaignID, status)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]leadResponse, 0, len(leads))
	for _, lead := range leads {
		out = append(out, toLeadResponse(lead))
	}

	writeJSON(w, http.StatusOK, out)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus handles PATCH /api/leads/{leadID}/status.
func (h *LeadHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	leadID := chi.URLParam(r, "leadID")

	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status := domain.LeadStatus(req.Status)

	if err := h.leads.UpdateLeadStatus(r.Context(), leadID, status); err != nil {
		writeServiceError(w, err)
		return
	}

	lead, err := h.leads.GetLead(r.Context(), leadID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toLeadResponse(lead))
}

type replyResponse struct {
	Reply string `json:"reply"`
}

// Reply handles POST /api/leads/{leadID}/reply.
func (h *LeadHandler) Reply(w http.ResponseWriter, r *http.Request) {
	leadID := chi.URLParam(r, "leadID")

	lead, err := h.leads.GetLead(r.Context(), leadID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	campaign, err := h.campaigns.GetCampaign(r.Context(), lead.CampaignID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	reply, err := h.replies.GenerateReply(r.Context(), lead, campaign)
	if err != nil {
		h.logger.Error().Err(err).Str("lead_id", leadID).Msg("failed to generate reply")
		writeServiceError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, replyResponse{Reply: reply})
}
