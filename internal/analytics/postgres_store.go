package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// analyticsDB is the slice of pgxpool used by the store, injectable for tests.
type analyticsDB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresStore aggregates rollups with SQL over the leads and purchases
// tables. Aggregation runs on demand; callers cache the result.
type PostgresStore struct {
	db analyticsDB
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("analytics: pgx pool required")
	}
	return &PostgresStore{db: pool}
}

// NewPostgresStoreWithDB allows injecting a mock database for testing.
func NewPostgresStoreWithDB(db analyticsDB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Totals recomputes the streaming totals from the durable rows. The
// conversion rate is derived the same way the live recount derives it,
// converted purchases over all purchases.
func (s *PostgresStore) Totals(ctx context.Context) (Totals, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM leads),
			(SELECT COALESCE(AVG(final_price), 0) FROM leads),
			(SELECT COUNT(*) FROM purchases),
			(SELECT COALESCE(SUM(price_paid), 0) FROM purchases),
			(SELECT COUNT(*) FILTER (WHERE converted) FROM purchases)
	`
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return Totals{}, fmt.Errorf("analytics: totals query failed: %w", err)
	}
	defer rows.Close()

	var t Totals
	var converted int64
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return Totals{}, fmt.Errorf("analytics: totals rows failed: %w", err)
		}
		return Totals{}, fmt.Errorf("analytics: totals query returned no row")
	}
	if err := rows.Scan(&t.TotalLeads, &t.AvgLeadPrice, &t.LeadsSold, &t.TotalRevenue, &converted); err != nil {
		return Totals{}, fmt.Errorf("analytics: totals scan failed: %w", err)
	}
	if t.LeadsSold > 0 {
		t.ConversionRate = float64(converted) / float64(t.LeadsSold) * 100
	}
	return t, nil
}

func (s *PostgresStore) Trends(ctx context.Context, since time.Time) ([]TrendPoint, error) {
	query := `
		SELECT day, SUM(leads), SUM(sold), SUM(revenue)
		FROM (
			SELECT to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day,
				COUNT(*) AS leads, 0 AS sold, 0 AS revenue
			FROM leads WHERE created_at >= $1 GROUP BY 1
			UNION ALL
			SELECT to_char(purchase_date AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day,
				0 AS leads, COUNT(*) AS sold, COALESCE(SUM(price_paid), 0) AS revenue
			FROM purchases WHERE purchase_date >= $1 GROUP BY 1
		) daily
		GROUP BY day
		ORDER BY day
	`
	rows, err := s.db.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("analytics: trends query failed: %w", err)
	}
	defer rows.Close()

	var trends []TrendPoint
	for rows.Next() {
		var p TrendPoint
		if err := rows.Scan(&p.Day, &p.Leads, &p.Sold, &p.Revenue); err != nil {
			return nil, fmt.Errorf("analytics: trends scan failed: %w", err)
		}
		trends = append(trends, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("analytics: trends rows failed: %w", err)
	}
	return trends, nil
}

func (s *PostgresStore) Demographics(ctx context.Context) (Demographics, error) {
	query := `
		SELECT 'diagnosis' AS dim, diagnosis AS value, COUNT(*) FROM leads GROUP BY 2
		UNION ALL
		SELECT 'age_band' AS dim,
			CASE WHEN child_age < 5 THEN '0-4'
				WHEN child_age < 8 THEN '5-7'
				WHEN child_age < 13 THEN '8-12'
				ELSE '13+' END AS value,
			COUNT(*) FROM leads GROUP BY 2
		UNION ALL
		SELECT 'urgency' AS dim, urgency AS value, COUNT(*) FROM leads GROUP BY 2
	`
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return Demographics{}, fmt.Errorf("analytics: demographics query failed: %w", err)
	}
	defer rows.Close()

	demo := Demographics{
		ByDiagnosis: make(map[string]int64),
		ByAgeBand:   make(map[string]int64),
		ByUrgency:   make(map[string]int64),
	}
	for rows.Next() {
		var dim, value string
		var count int64
		if err := rows.Scan(&dim, &value, &count); err != nil {
			return Demographics{}, fmt.Errorf("analytics: demographics scan failed: %w", err)
		}
		switch dim {
		case "diagnosis":
			demo.ByDiagnosis[value] = count
		case "age_band":
			demo.ByAgeBand[value] = count
		case "urgency":
			demo.ByUrgency[value] = count
		}
	}
	if err := rows.Err(); err != nil {
		return Demographics{}, fmt.Errorf("analytics: demographics rows failed: %w", err)
	}
	return demo, nil
}

func (s *PostgresStore) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `
		SELECT provider_id, COUNT(*), COALESCE(SUM(price_paid), 0),
			COUNT(*) FILTER (WHERE converted)
		FROM purchases
		GROUP BY provider_id
		ORDER BY 2 DESC, 3 DESC, provider_id
		LIMIT $1
	`
	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("analytics: leaderboard query failed: %w", err)
	}
	defer rows.Close()

	var board []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.ProviderID, &e.Purchases, &e.Spend, &e.Conversions); err != nil {
			return nil, fmt.Errorf("analytics: leaderboard scan failed: %w", err)
		}
		board = append(board, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("analytics: leaderboard rows failed: %w", err)
	}
	return board, nil
}
