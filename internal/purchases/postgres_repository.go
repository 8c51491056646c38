package purchases

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type purchaseDB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresRepository stores purchases in the relational database.
type PostgresRepository struct {
	db purchaseDB
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("purchases: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting a mock database for testing.
func NewPostgresRepositoryWithDB(db purchaseDB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const purchaseColumns = `
	id, provider_id, lead_id, purchase_date, price_paid, payment_method, payment_ref,
	parent_name, parent_email, parent_phone,
	child_age, diagnosis, severity, goals, urgency, service_type, zip_code, schedule, special_requests,
	contacted, contacted_at, response_received, response_at,
	appointment_scheduled, appointment_at, converted, converted_at`

// Create inserts a new purchase row.
func (r *PostgresRepository) Create(ctx context.Context, p *Purchase) error {
	query := `
		INSERT INTO purchases (` + purchaseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19,
			$20, $21, $22, $23, $24, $25, $26, $27)
	`
	if _, err := r.db.Exec(ctx, query,
		p.ID, p.ProviderID, p.LeadID, p.PurchaseDate, p.PricePaid, p.PaymentMethod, p.PaymentRef,
		p.Contact.ParentName, p.Contact.ParentEmail, p.Contact.ParentPhone,
		p.Lead.ChildAge, p.Lead.Diagnosis, p.Lead.Severity, p.Lead.Goals, p.Lead.Urgency,
		p.Lead.ServiceType, p.Lead.ZipCode, p.Lead.Schedule, p.Lead.SpecialRequests,
		p.Contacted, p.ContactedAt, p.ResponseReceived, p.ResponseAt,
		p.AppointmentSet, p.AppointmentAt, p.Converted, p.ConvertedAt,
	); err != nil {
		return fmt.Errorf("purchases: insert failed: %w", err)
	}
	return nil
}

// GetByID fetches a purchase.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Purchase, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE id = $1`
	var p Purchase
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.ProviderID, &p.LeadID, &p.PurchaseDate, &p.PricePaid, &p.PaymentMethod, &p.PaymentRef,
		&p.Contact.ParentName, &p.Contact.ParentEmail, &p.Contact.ParentPhone,
		&p.Lead.ChildAge, &p.Lead.Diagnosis, &p.Lead.Severity, &p.Lead.Goals, &p.Lead.Urgency,
		&p.Lead.ServiceType, &p.Lead.ZipCode, &p.Lead.Schedule, &p.Lead.SpecialRequests,
		&p.Contacted, &p.ContactedAt, &p.ResponseReceived, &p.ResponseAt,
		&p.AppointmentSet, &p.AppointmentAt, &p.Converted, &p.ConvertedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPurchaseNotFound
		}
		return nil, fmt.Errorf("purchases: select failed: %w", err)
	}
	return &p, nil
}

// Update persists funnel milestone changes.
func (r *PostgresRepository) Update(ctx context.Context, p *Purchase) error {
	query := `
		UPDATE purchases SET
			contacted = $2, contacted_at = $3,
			response_received = $4, response_at = $5,
			appointment_scheduled = $6, appointment_at = $7,
			converted = $8, converted_at = $9
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query,
		p.ID,
		p.Contacted, p.ContactedAt,
		p.ResponseReceived, p.ResponseAt,
		p.AppointmentSet, p.AppointmentAt,
		p.Converted, p.ConvertedAt,
	)
	if err != nil {
		return fmt.Errorf("purchases: update failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPurchaseNotFound
	}
	return nil
}

// Delete removes a purchase row.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM purchases WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("purchases: delete failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPurchaseNotFound
	}
	return nil
}

// CountAll returns the total number of purchases.
func (r *PostgresRepository) CountAll(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM purchases`).Scan(&n); err != nil {
		return 0, fmt.Errorf("purchases: count failed: %w", err)
	}
	return n, nil
}

// CountConverted returns how many purchases converted.
func (r *PostgresRepository) CountConverted(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM purchases WHERE converted`).Scan(&n); err != nil {
		return 0, fmt.Errorf("purchases: count converted failed: %w", err)
	}
	return n, nil
}
