// Package server exposes the HTTP API: campaign CRUD, discovery
// triggers and lead management.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// RouterDeps bundles the dependencies NewRouter needs.
type RouterDeps struct {
	Campaigns CampaignStore
	Leads     LeadStore
	Discovery DiscoveryRunner
	Replies   ReplyGenerator
	Logger    *zerolog.Logger
}

// NewRouter builds the API routing table.
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	campaignHandler := NewCampaignHandler(deps.Campaigns, deps.Logger)
	leadHandler := NewLeadHandler(deps.Leads, deps.Campaigns, deps.Replies, deps.Logger)
	discoverHandler := NewDiscoverHandler(deps.Discovery, deps.Logger)

	r.Route("/api/campaigns", func(r chi.Router) {
		r.Post("/", campaignHandler.Create)
		r.Get("/", campaignHandler.List)

		r.Route("/{campaignID}", func(r chi.Router) {
			r.Get("/", campaignHandler.Get)
			r.Patch("/", campaignHandler.Update)
			r.Delete("/", campaignHandler.Delete)

			r.Get("/leads", leadHandler.List)

			r.Post("/discover/manual", discoverHandler.Manual)
			r.Post("/discover/targeted", discoverHandler.Targeted)
		})
	})

	r.Route("/api/leads/{leadID}", func(r chi.Router) {
		r.Patch("/status", leadHandler.UpdateStatus)
		r.Post("/reply", leadHandler.Reply)
	})

	return r
}
