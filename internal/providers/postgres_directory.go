package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// directoryDB is the pgxpool surface needed here, injectable for tests.
type directoryDB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresDirectory reads provider profiles from the relational database.
type PostgresDirectory struct {
	db directoryDB
}

// NewPostgresDirectory initializes a directory backed by pgxpool.
func NewPostgresDirectory(pool *pgxpool.Pool) *PostgresDirectory {
	if pool == nil {
		panic("providers: pgx pool required")
	}
	return &PostgresDirectory{db: pool}
}

// NewPostgresDirectoryWithDB allows injecting a mock database for testing.
func NewPostgresDirectoryWithDB(db directoryDB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

const profileColumns = `
	id, name, email, subscription_tier, specialties,
	lat, lng, service_radius_miles, experience_years, rating`

// FindBySpecialties returns providers whose specialty set overlaps the input.
func (d *PostgresDirectory) FindBySpecialties(ctx context.Context, specialties []string) ([]*Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM providers WHERE specialties && $1`
	rows, err := d.db.Query(ctx, query, specialties)
	if err != nil {
		return nil, fmt.Errorf("providers: specialty lookup failed: %w", err)
	}
	defer rows.Close()

	var out []*Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("providers: scan failed: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("providers: specialty lookup rows: %w", err)
	}
	return out, nil
}

// GetByID fetches a single profile.
func (d *PostgresDirectory) GetByID(ctx context.Context, id string) (*Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM providers WHERE id = $1`
	p, err := scanProfile(d.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProviderNotFound
		}
		return nil, fmt.Errorf("providers: select failed: %w", err)
	}
	return p, nil
}

func scanProfile(row pgx.Row) (*Profile, error) {
	var p Profile
	if err := row.Scan(
		&p.ID, &p.Name, &p.Email, &p.SubscriptionTier, &p.Specialties,
		&p.Location.Lat, &p.Location.Lng, &p.ServiceRadiusMi, &p.ExperienceYears, &p.Rating,
	); err != nil {
		return nil, err
	}
	return &p, nil
}
