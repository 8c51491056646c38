package analytics

import (
	"context"
	"sort"
	"time"

	"github.com/voicebridge/lead-marketplace/internal/leads"
	"github.com/voicebridge/lead-marketplace/internal/purchases"
)

// MemoryStore aggregates rollups by scanning the in-memory repositories.
// Used in development and tests where Postgres is not wired.
type MemoryStore struct {
	leads     *leads.InMemoryRepository
	purchases *purchases.InMemoryRepository
}

func NewMemoryStore(leadRepo *leads.InMemoryRepository, purchaseRepo *purchases.InMemoryRepository) *MemoryStore {
	return &MemoryStore{leads: leadRepo, purchases: purchaseRepo}
}

func (s *MemoryStore) Totals(ctx context.Context) (Totals, error) {
	allLeads, err := s.leads.List(ctx)
	if err != nil {
		return Totals{}, err
	}
	allPurchases, err := s.purchases.List(ctx)
	if err != nil {
		return Totals{}, err
	}

	var t Totals
	var priceSum float64
	for _, l := range allLeads {
		t.TotalLeads++
		priceSum += float64(l.Pricing.FinalPrice)
	}
	if t.TotalLeads > 0 {
		t.AvgLeadPrice = priceSum / float64(t.TotalLeads)
	}

	var converted int64
	for _, p := range allPurchases {
		t.LeadsSold++
		t.TotalRevenue += int64(p.PricePaid)
		if p.Converted {
			converted++
		}
	}
	if t.LeadsSold > 0 {
		t.ConversionRate = float64(converted) / float64(t.LeadsSold) * 100
	}
	return t, nil
}

func (s *MemoryStore) Trends(ctx context.Context, since time.Time) ([]TrendPoint, error) {
	allLeads, err := s.leads.List(ctx)
	if err != nil {
		return nil, err
	}
	allPurchases, err := s.purchases.List(ctx)
	if err != nil {
		return nil, err
	}

	byDay := make(map[string]*TrendPoint)
	point := func(t time.Time) *TrendPoint {
		day := t.UTC().Format("2006-01-02")
		p, ok := byDay[day]
		if !ok {
			p = &TrendPoint{Day: day}
			byDay[day] = p
		}
		return p
	}

	for _, l := range allLeads {
		if l.CreatedAt.Before(since) {
			continue
		}
		point(l.CreatedAt).Leads++
	}
	for _, p := range allPurchases {
		if p.PurchaseDate.Before(since) {
			continue
		}
		pt := point(p.PurchaseDate)
		pt.Sold++
		pt.Revenue += int64(p.PricePaid)
	}

	trends := make([]TrendPoint, 0, len(byDay))
	for _, p := range byDay {
		trends = append(trends, *p)
	}
	sort.Slice(trends, func(i, j int) bool { return trends[i].Day < trends[j].Day })
	return trends, nil
}

func (s *MemoryStore) Demographics(ctx context.Context) (Demographics, error) {
	allLeads, err := s.leads.List(ctx)
	if err != nil {
		return Demographics{}, err
	}

	demo := Demographics{
		ByDiagnosis: make(map[string]int64),
		ByAgeBand:   make(map[string]int64),
		ByUrgency:   make(map[string]int64),
	}
	for _, l := range allLeads {
		demo.ByDiagnosis[l.Diagnosis]++
		demo.ByAgeBand[AgeBand(l.ChildAge)]++
		demo.ByUrgency[l.Urgency]++
	}
	return demo, nil
}

func (s *MemoryStore) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	allPurchases, err := s.purchases.List(ctx)
	if err != nil {
		return nil, err
	}

	byProvider := make(map[string]*LeaderboardEntry)
	for _, p := range allPurchases {
		entry, ok := byProvider[p.ProviderID]
		if !ok {
			entry = &LeaderboardEntry{ProviderID: p.ProviderID}
			byProvider[p.ProviderID] = entry
		}
		entry.Purchases++
		entry.Spend += int64(p.PricePaid)
		if p.Converted {
			entry.Conversions++
		}
	}

	board := make([]LeaderboardEntry, 0, len(byProvider))
	for _, entry := range byProvider {
		board = append(board, *entry)
	}
	sort.Slice(board, func(i, j int) bool {
		if board[i].Purchases != board[j].Purchases {
			return board[i].Purchases > board[j].Purchases
		}
		if board[i].Spend != board[j].Spend {
			return board[i].Spend > board[j].Spend
		}
		return board[i].ProviderID < board[j].ProviderID
	})
	if limit > 0 && len(board) > limit {
		board = board[:limit]
	}
	return board, nil
}
