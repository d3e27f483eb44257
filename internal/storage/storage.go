// Package storage persists campaigns and leads. Two implementations
// exist: a PostgreSQL store backed by pgx and an in-memory store used
// when no database is configured and in tests.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redleadhq/redlead/internal/core/domain"
)

// Store errors.
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidStatus = errors.New("invalid lead status")
)

// CampaignStore provides campaign persistence.
type CampaignStore interface {
	CreateCampaign(ctx context.Context, campaign domain.Campaign) (domain.Campaign, error)
	GetCampaign(ctx context.Context, id string) (domain.Campaign, error)
	ListCampaigns(ctx context.Context, userID string) ([]domain.Campaign, error)
	ListAllCampaigns(ctx context.Context) ([]domain.Campaign, error)
	UpdateCampaign(ctx context.Context, campaign domain.Campaign) error
	DeleteCampaign(ctx context.Context, id string) error
	SetLastDiscoveryAt(ctx context.Context, id string, kind domain.DiscoveryKind, at time.Time) error
}

// LeadStore provides lead persistence.
type LeadStore interface {
	UpsertLead(ctx context.Context, lead domain.Lead) (bool, error)
	GetLead(ctx context.Context, id string) (domain.Lead, error)
	ListLeads(ctx context.Context, campaignID string, status domain.LeadStatus) ([]domain.Lead, error)
	UpdateLeadStatus(ctx context.Context, id string, status domain.LeadStatus) error
}

// Store is the full persistence surface the application wires up.
type Store interface {
	CampaignStore
	LeadStore

	Ping(ctx context.Context) error
	Close()
}
