package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/redleadhq/redlead/internal/core/domain"
)

const leadColumns = `id, campaign_id, reddit_id, title, author, subreddit, url, body, posted_at,
	opportunity_score, intent, status, num_comments, upvote_ratio, created_at, updated_at`

// UpsertLead inserts a lead or, when the (campaign, reddit post) pair
// already exists, refreshes its score and intent. The user-set status
// of an existing lead is preserved. Returns true when a new row was
// created.
func (db *DB) UpsertLead(ctx context.Context, lead domain.Lead) (bool, error) {
	query := `INSERT INTO leads (
		campaign_id, reddit_id, title, author, subreddit, url, body, posted_at,
		opportunity_score, intent, status, num_comments, upvote_ratio
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	ON CONFLICT (campaign_id, reddit_id) DO UPDATE SET
		opportunity_score = EXCLUDED.opportunity_score,
		intent = EXCLUDED.intent,
		updated_at = now()
	RETURNING (xmax = 0)`

	status := lead.Status
	if status == "" {
		status = domain.LeadStatusNew
	}

	var created bool

	err := db.Pool.QueryRow(ctx, query,
		lead.CampaignID,
		lead.RedditID,
		SanitizeUTF8(lead.Title),
		lead.Author,
		lead.Subreddit,
		lead.URL,
		SanitizeUTF8(lead.Body),
		toTimestamptz(lead.PostedAt),
		lead.OpportunityScore,
		lead.Intent,
		string(status),
		lead.NumComments,
		lead.UpvoteRatio,
	).Scan(&created)
	if err != nil {
		return false, fmt.Errorf("upsert lead: %w", err)
	}

	return created, nil
}

// GetLead fetches a lead by id.
func (db *DB) GetLead(ctx context.Context, id string) (domain.Lead, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Lead{}, ErrNotFound
	}

	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`

	lead, err := scanLead(db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Lead{}, ErrNotFound
		}

		return domain.Lead{}, fmt.Errorf("get lead: %w", err)
	}

	return lead, nil
}

// ListLeads returns a campaign's leads ordered by score, best first.
// An empty status lists all leads.
func (db *DB) ListLeads(ctx context.Context, campaignID string, status domain.LeadStatus) ([]domain.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE campaign_id = $1`
	args := []any{campaignID}

	if status != "" {
		if !status.Valid() {
			return nil, ErrInvalidStatus
		}

		query += ` AND status = $2`

		args = append(args, string(status))
	}

	query += ` ORDER BY opportunity_score DESC, created_at DESC`

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	var leads []domain.Lead

	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}

		leads = append(leads, lead)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leads: %w", err)
	}

	return leads, nil
}

// UpdateLeadStatus moves a lead through its lifecycle.
func (db *DB) UpdateLeadStatus(ctx context.Context, id string, status domain.LeadStatus) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}

	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}

	tag, err := db.Pool.Exec(ctx,
		`UPDATE leads SET status = $1, updated_at = now() WHERE id = $2`,
		string(status), id,
	)
	if err != nil {
		return fmt.Errorf("update lead status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func scanLead(row rowScanner) (domain.Lead, error) {
	var lead domain.Lead

	var id, campaignID pgtype.UUID

	var body pgtype.Text

	var postedAt, createdAt, updatedAt pgtype.Timestamptz

	var status string

	err := row.Scan(
		&id,
		&campaignID,
		&lead.RedditID,
		&lead.Title,
		&lead.Author,
		&lead.Subreddit,
		&lead.URL,
		&body,
		&postedAt,
		&lead.OpportunityScore,
		&lead.Intent,
		&status,
		&lead.NumComments,
		&lead.UpvoteRatio,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return domain.Lead{}, err
	}

	lead.ID = uuid.UUID(id.Bytes).String()
	lead.CampaignID = uuid.UUID(campaignID.Bytes).String()
	lead.Body = fromText(body)
	lead.PostedAt = fromTimestamptz(postedAt)
	lead.Status = domain.LeadStatus(status)
	lead.CreatedAt = fromTimestamptz(createdAt)
	lead.UpdatedAt = fromTimestamptz(updatedAt)

	return lead, nil
}
