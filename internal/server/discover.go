package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/redleadhq/redlead/internal/process/discovery"
)

// DiscoveryRunner triggers discovery runs for a campaign.
type DiscoveryRunner interface {
	RunManual(ctx context.Context, campaignID string) (discovery.RunResult, error)
	RunTargeted(ctx context.Context, campaignID string) (discovery.RunResult, error)
}

// DiscoverHandler serves the discovery trigger endpoints.
type DiscoverHandler struct {
	runner DiscoveryRunner
	logger *zerolog.Logger
}

// NewDiscoverHandler creates a DiscoverHandler.
func NewDiscoverHandler(runner DiscoveryRunner, logger *zerolog.Logger) *DiscoverHandler {
	return &DiscoverHandler{runner: runner, logger: logger}
}

// Manual handles POST /api/campaigns/{campaignID}/discover/manual.
func (h *DiscoverHandler) Manual(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "campaignID")

	result, err := h.runner.RunManual(r.Context(), campaignID)
	if err != nil {
		h.logger.Error().Err(err).Str("campaign_id", campaignID).Msg("manual discovery failed")
		writeServiceError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Targeted handles POST /api/campaigns/{campaignID}/discover/targeted.
func (h *DiscoverHandler) Targeted(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "campaignID")

	result, err := h.runner.RunTargeted(r.Context(), campaignID)
	if err != nil {
		h.logger.Error().Err(err).Str("campaign_id", campaignID).Msg("targeted discovery failed")
		writeServiceError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, result)
}
