package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/redleadhq/redlead/internal/core/domain"
)

const campaignColumns = `id, user_id, name, analyzed_url, generated_keywords, generated_description,
	target_subreddits, competitors, negative_keywords, subreddit_blacklist,
	last_manual_discovery_at, last_global_discovery_at, last_targeted_discovery_at, created_at`

// CreateCampaign inserts a campaign and returns it with the generated
// id and creation time filled in.
func (db *DB) CreateCampaign(ctx context.Context, campaign domain.Campaign) (domain.Campaign, error) {
	query := `INSERT INTO campaigns (
		user_id, name, analyzed_url, generated_keywords, generated_description,
		target_subreddits, competitors, negative_keywords, subreddit_blacklist
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING id, created_at`

	var id pgtype.UUID

	var createdAt pgtype.Timestamptz

	err := db.Pool.QueryRow(ctx, query,
		campaign.UserID,
		SanitizeUTF8(campaign.Name),
		toText(campaign.AnalyzedURL),
		campaign.GeneratedKeywords,
		toText(campaign.GeneratedDescription),
		campaign.TargetSubreddits,
		campaign.Competitors,
		campaign.NegativeKeywords,
		campaign.SubredditBlacklist,
	).Scan(&id, &createdAt)
	if err != nil {
		return domain.Campaign{}, fmt.Errorf("create campaign: %w", err)
	}

	campaign.ID = uuid.UUID(id.Bytes).String()
	campaign.CreatedAt = fromTimestamptz(createdAt)

	return campaign, nil
}

// GetCampaign fetches a campaign by id.
func (db *DB) GetCampaign(ctx context.Context, id string) (domain.Campaign, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Campaign{}, ErrNotFound
	}

	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1`

	campaign, err := scanCampaign(db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Campaign{}, ErrNotFound
		}

		return domain.Campaign{}, fmt.Errorf("get campaign: %w", err)
	}

	return campaign, nil
}

// ListCampaigns returns the campaigns belonging to a user, newest first.
func (db *DB) ListCampaigns(ctx context.Context, userID string) ([]domain.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	return collectCampaigns(rows)
}

// ListAllCampaigns returns every campaign. Used by the scheduled
// discovery worker.
func (db *DB) ListAllCampaigns(ctx context.Context) ([]domain.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns ORDER BY created_at`

	rows, err := db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list all campaigns: %w", err)
	}
	defer rows.Close()

	return collectCampaigns(rows)
}

// UpdateCampaign updates the user-editable campaign fields.
func (db *DB) UpdateCampaign(ctx context.Context, campaign domain.Campaign) error {
	query := `UPDATE campaigns SET
		name = $1,
		analyzed_url = $2,
		generated_keywords = $3,
		generated_description = $4,
		target_subreddits = $5,
		competitors = $6,
		negative_keywords = $7,
		subreddit_blacklist = $8
	WHERE id = $9`

	tag, err := db.Pool.Exec(ctx, query,
		SanitizeUTF8(campaign.Name),
		toText(campaign.AnalyzedURL),
		campaign.GeneratedKeywords,
		toText(campaign.GeneratedDescription),
		campaign.TargetSubreddits,
		campaign.Competitors,
		campaign.NegativeKeywords,
		campaign.SubredditBlacklist,
		campaign.ID,
	)
	if err != nil {
		return fmt.Errorf("update campaign: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteCampaign removes a campaign and, via cascade, its leads.
func (db *DB) DeleteCampaign(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}

	tag, err := db.Pool.Exec(ctx, `DELETE FROM campaigns WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete campaign: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// discoveryColumns maps a discovery kind to its timestamp column. The
// map keeps the column name out of caller-supplied input.
var discoveryColumns = map[domain.DiscoveryKind]string{
	domain.DiscoveryManual:   "last_manual_discovery_at",
	domain.DiscoveryGlobal:   "last_global_discovery_at",
	domain.DiscoveryTargeted: "last_targeted_discovery_at",
}

// SetLastDiscoveryAt records when a discovery flow last ran.
func (db *DB) SetLastDiscoveryAt(ctx context.Context, id string, kind domain.DiscoveryKind, at time.Time) error {
	column, ok := discoveryColumns[kind]
	if !ok {
		return fmt.Errorf("unknown discovery kind %q", kind)
	}

	query := fmt.Sprintf(`UPDATE campaigns SET %s = $1 WHERE id = $2`, column)

	tag, err := db.Pool.Exec(ctx, query, toTimestamptz(at), id)
	if err != nil {
		return fmt.Errorf("set last discovery at: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCampaign(row rowScanner) (domain.Campaign, error) {
	var campaign domain.Campaign

	var id pgtype.UUID

	var analyzedURL, description pgtype.Text

	var lastManual, lastGlobal, lastTargeted, createdAt pgtype.Timestamptz

	err := row.Scan(
		&id,
		&campaign.UserID,
		&campaign.Name,
		&analyzedURL,
		&campaign.GeneratedKeywords,
		&description,
		&campaign.TargetSubreddits,
		&campaign.Competitors,
		&campaign.NegativeKeywords,
		&campaign.SubredditBlacklist,
		&lastManual,
		&lastGlobal,
		&lastTargeted,
		&createdAt,
	)
	if err != nil {
		return domain.Campaign{}, err
	}

	campaign.ID = uuid.UUID(id.Bytes).String()
	campaign.AnalyzedURL = fromText(analyzedURL)
	campaign.GeneratedDescription = fromText(description)
	campaign.LastManualDiscoveryAt = fromTimestamptzPtr(lastManual)
	campaign.LastGlobalDiscoveryAt = fromTimestamptzPtr(lastGlobal)
	campaign.LastTargetedDiscoveryAt = fromTimestamptzPtr(lastTargeted)
	campaign.CreatedAt = fromTimestamptz(createdAt)

	return campaign, nil
}

func collectCampaigns(rows pgx.Rows) ([]domain.Campaign, error) {
	var campaigns []domain.Campaign

	for rows.Next() {
		campaign, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}

		campaigns = append(campaigns, campaign)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate campaigns: %w", err)
	}

	return campaigns, nil
}
