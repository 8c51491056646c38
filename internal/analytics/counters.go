// Package analytics maintains marketplace revenue and funnel statistics.
// Streaming totals are updated synchronously inside purchase transactions;
// richer rollups are aggregated on demand and cached.
package analytics

import "sync"

// Totals is the streaming view of marketplace activity. ActiveLeads is not
// streamed; it is filled in from the active set when a rollup is assembled.
type Totals struct {
	TotalLeads     int64   `json:"total_leads"`
	ActiveLeads    int64   `json:"active_leads"`
	LeadsSold      int64   `json:"leads_sold"`
	TotalRevenue   int64   `json:"total_revenue"`
	AvgLeadPrice   float64 `json:"avg_lead_price"`
	ConversionRate float64 `json:"conversion_rate"`
}

// Counters accumulates totals across goroutines. Sale counters are bumped
// inside the per-lead purchase critical section so totals never drift from
// the purchase records.
type Counters struct {
	mu     sync.Mutex
	totals Totals
}

func NewCounters() *Counters {
	return &Counters{}
}

// RecordCapture notes a newly captured lead at its capture-time price.
// The average lead price is maintained as an incremental mean.
func (c *Counters) RecordCapture(price int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totals.TotalLeads++
	c.totals.AvgLeadPrice += (float64(price) - c.totals.AvgLeadPrice) / float64(c.totals.TotalLeads)
}

// RecordSale notes one completed purchase at the price actually charged.
func (c *Counters) RecordSale(price int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totals.LeadsSold++
	c.totals.TotalRevenue += int64(price)
}

// SetConversionRate overwrites the funnel conversion rate. Recomputed from
// purchase counts whenever a purchase reaches the converted milestone.
func (c *Counters) SetConversionRate(rate float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totals.ConversionRate = rate
}

// Restore replaces the totals wholesale. Called once at startup to seed
// the counters from the durable lead and purchase rows, so a restart does
// not zero totals that the database still remembers.
func (c *Counters) Restore(t Totals) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totals = t
}

// Snapshot returns a copy of the current totals.
func (c *Counters) Snapshot() Totals {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totals
}
