package analytics

import (
	"context"
	"time"
)

// TrendPoint is one day of marketplace activity.
type TrendPoint struct {
	Day     string `json:"day"` // YYYY-MM-DD
	Leads   int64  `json:"leads"`
	Sold    int64  `json:"sold"`
	Revenue int64  `json:"revenue"`
}

// Demographics breaks captured leads down by the dimensions providers
// filter on.
type Demographics struct {
	ByDiagnosis map[string]int64 `json:"by_diagnosis"`
	ByAgeBand   map[string]int64 `json:"by_age_band"`
	ByUrgency   map[string]int64 `json:"by_urgency"`
}

// LeaderboardEntry summarizes one provider's buying activity.
type LeaderboardEntry struct {
	ProviderID  string `json:"provider_id"`
	Purchases   int64  `json:"purchases"`
	Spend       int64  `json:"spend"`
	Conversions int64  `json:"conversions"`
}

// Rollup is the full analytics snapshot served to operators.
type Rollup struct {
	GeneratedAt  time.Time          `json:"generated_at"`
	Totals       Totals             `json:"totals"`
	Trends       []TrendPoint       `json:"trends"`
	Demographics Demographics       `json:"demographics"`
	Leaderboard  []LeaderboardEntry `json:"leaderboard"`
}

// Store aggregates rollup sections from persisted leads and purchases.
// Totals recomputes the streaming counters from the durable rows; it is
// the recovery source the counters are seeded from at startup.
type Store interface {
	Totals(ctx context.Context) (Totals, error)
	Trends(ctx context.Context, since time.Time) ([]TrendPoint, error)
	Demographics(ctx context.Context) (Demographics, error)
	Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error)
}

// AgeBand buckets a child age the way the demographics rollup reports it.
func AgeBand(age int) string {
	switch {
	case age < 5:
		return "0-4"
	case age < 8:
		return "5-7"
	case age < 13:
		return "8-12"
	default:
		return "13+"
	}
}
