package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
)

func TestPostgresStoreTotals(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	rows := pgxmock.NewRows([]string{"leads", "avg_price", "sold", "revenue", "converted"}).
		AddRow(int64(12), float64(48.5), int64(4), int64(210), int64(1))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM leads`).
		WillReturnRows(rows)

	store := NewPostgresStoreWithDB(mock)
	totals, err := store.Totals(context.Background())
	if err != nil {
		t.Fatalf("Totals() error = %v", err)
	}
	if totals.TotalLeads != 12 || totals.AvgLeadPrice != 48.5 {
		t.Errorf("lead totals = %d/%v", totals.TotalLeads, totals.AvgLeadPrice)
	}
	if totals.LeadsSold != 4 || totals.TotalRevenue != 210 {
		t.Errorf("sale totals = %d/%d", totals.LeadsSold, totals.TotalRevenue)
	}
	if totals.ConversionRate != 25 {
		t.Errorf("ConversionRate = %v, want 25", totals.ConversionRate)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresStoreLeaderboard(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	rows := pgxmock.NewRows([]string{"provider_id", "count", "spend", "conversions"}).
		AddRow("prov-a", int64(4), int64(220), int64(2)).
		AddRow("prov-b", int64(1), int64(60), int64(0))
	mock.ExpectQuery(`SELECT provider_id, COUNT\(\*\)`).
		WithArgs(5).
		WillReturnRows(rows)

	store := NewPostgresStoreWithDB(mock)
	board, err := store.Leaderboard(context.Background(), 5)
	if err != nil {
		t.Fatalf("Leaderboard() error = %v", err)
	}
	if len(board) != 2 {
		t.Fatalf("Leaderboard() returned %d entries, want 2", len(board))
	}
	if board[0].ProviderID != "prov-a" || board[0].Spend != 220 {
		t.Errorf("top entry = %+v", board[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresStoreTrends(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	since := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows([]string{"day", "leads", "sold", "revenue"}).
		AddRow("2026-03-01", int64(3), int64(1), int64(60))
	mock.ExpectQuery(`SELECT day, SUM\(leads\)`).
		WithArgs(since).
		WillReturnRows(rows)

	store := NewPostgresStoreWithDB(mock)
	trends, err := store.Trends(context.Background(), since)
	if err != nil {
		t.Fatalf("Trends() error = %v", err)
	}
	if len(trends) != 1 || trends[0].Revenue != 60 {
		t.Errorf("trends = %+v", trends)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresStoreDemographics(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	rows := pgxmock.NewRows([]string{"dim", "value", "count"}).
		AddRow("diagnosis", "autism", int64(5)).
		AddRow("age_band", "0-4", int64(3)).
		AddRow("urgency", "immediate", int64(2))
	mock.ExpectQuery(`SELECT 'diagnosis' AS dim`).
		WillReturnRows(rows)

	store := NewPostgresStoreWithDB(mock)
	demo, err := store.Demographics(context.Background())
	if err != nil {
		t.Fatalf("Demographics() error = %v", err)
	}
	if demo.ByDiagnosis["autism"] != 5 || demo.ByAgeBand["0-4"] != 3 || demo.ByUrgency["immediate"] != 2 {
		t.Errorf("demographics = %+v", demo)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
