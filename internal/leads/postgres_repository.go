package leads

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// leadDB is the slice of pgxpool used by the repository, injectable for tests.
type leadDB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresRepository stores leads in the relational database.
type PostgresRepository struct {
	db leadDB
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("leads: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting a mock database for testing.
func NewPostgresRepositoryWithDB(db leadDB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const leadColumns = `
	id, user_id, source, parent_name, parent_email, parent_phone,
	child_age, diagnosis, severity, goals,
	urgency, service_type, zip_code, lat, lng, schedule, monthly_budget, special_requests,
	usage_duration_days, app_engagement,
	lead_score, conversion_probability, urgency_score, budget_score, location_score, quality_indicators,
	status, base_price, quality_multiplier, urgency_multiplier, engagement_multiplier, final_price,
	matched_providers, interested_providers, purchased_by, views,
	contact_attempts, email_opens, email_clicks,
	created_at, expires_at`

// Create inserts a new row.
func (r *PostgresRepository) Create(ctx context.Context, lead *Lead) error {
	query := `
		INSERT INTO leads (` + leadColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
			$21, $22, $23, $24, $25, $26, $27, $28, $29, $30,
			$31, $32, $33, $34, $35, $36, $37, $38, $39, $40, $41)
	`
	if _, err := r.db.Exec(ctx, query, leadArgs(lead)...); err != nil {
		return fmt.Errorf("leads: insert failed: %w", err)
	}
	return nil
}

// GetByID fetches a lead.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`
	lead, err := scanLead(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("leads: select failed: %w", err)
	}
	return lead, nil
}

// Update overwrites all mutable lead fields.
func (r *PostgresRepository) Update(ctx context.Context, lead *Lead) error {
	query := `
		UPDATE leads SET
			severity = $2, status = $3, matched_providers = $4,
			interested_providers = $5, purchased_by = $6, views = $7,
			contact_attempts = $8, email_opens = $9, email_clicks = $10,
			expires_at = $11
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query,
		lead.ID,
		lead.Severity,
		string(lead.Status),
		lead.MatchedProviders,
		lead.InterestedProviders,
		lead.PurchasedBy,
		lead.Views,
		lead.Engagement.ContactAttempts,
		lead.Engagement.EmailOpens,
		lead.Engagement.EmailClicks,
		lead.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("leads: update failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLeadNotFound
	}
	return nil
}

// ListActive returns active leads not yet past expiry.
func (r *PostgresRepository) ListActive(ctx context.Context, now time.Time) ([]*Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE status = 'active' AND expires_at > $1`
	rows, err := r.db.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("leads: list active failed: %w", err)
	}
	defer rows.Close()

	var out []*Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("leads: scan failed: %w", err)
		}
		out = append(out, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leads: list active rows: %w", err)
	}
	return out, nil
}

// IncrementViews bumps the view counter without a read-modify-write cycle.
func (r *PostgresRepository) IncrementViews(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `UPDATE leads SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("leads: increment views failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLeadNotFound
	}
	return nil
}

func leadArgs(l *Lead) []any {
	return []any{
		l.ID, l.UserID, l.Source, l.Contact.ParentName, l.Contact.ParentEmail, l.Contact.ParentPhone,
		l.ChildAge, l.Diagnosis, l.Severity, l.Goals,
		l.Urgency, l.ServiceType, l.ZipCode, l.Location.Lat, l.Location.Lng, l.Schedule, l.MonthlyBudget, l.SpecialRequests,
		l.UsageDurationDays, l.AppEngagement,
		l.LeadScore, l.ConversionProbability, l.UrgencyScore, l.BudgetScore, l.LocationScore, l.QualityIndicators,
		string(l.Status), l.Pricing.BasePrice, l.Pricing.QualityMultiplier, l.Pricing.UrgencyMultiplier, l.Pricing.EngagementMultiplier, l.Pricing.FinalPrice,
		l.MatchedProviders, l.InterestedProviders, l.PurchasedBy, l.Views,
		l.Engagement.ContactAttempts, l.Engagement.EmailOpens, l.Engagement.EmailClicks,
		l.CreatedAt, l.ExpiresAt,
	}
}

func scanLead(row pgx.Row) (*Lead, error) {
	var l Lead
	var status string
	if err := row.Scan(
		&l.ID, &l.UserID, &l.Source, &l.Contact.ParentName, &l.Contact.ParentEmail, &l.Contact.ParentPhone,
		&l.ChildAge, &l.Diagnosis, &l.Severity, &l.Goals,
		&l.Urgency, &l.ServiceType, &l.ZipCode, &l.Location.Lat, &l.Location.Lng, &l.Schedule, &l.MonthlyBudget, &l.SpecialRequests,
		&l.UsageDurationDays, &l.AppEngagement,
		&l.LeadScore, &l.ConversionProbability, &l.UrgencyScore, &l.BudgetScore, &l.LocationScore, &l.QualityIndicators,
		&status, &l.Pricing.BasePrice, &l.Pricing.QualityMultiplier, &l.Pricing.UrgencyMultiplier, &l.Pricing.EngagementMultiplier, &l.Pricing.FinalPrice,
		&l.MatchedProviders, &l.InterestedProviders, &l.PurchasedBy, &l.Views,
		&l.Engagement.ContactAttempts, &l.Engagement.EmailOpens, &l.Engagement.EmailClicks,
		&l.CreatedAt, &l.ExpiresAt,
	); err != nil {
		return nil, err
	}
	l.Status = Status(status)
	return &l, nil
}
