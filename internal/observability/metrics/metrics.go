package metrics

import "github.com/prometheus/client_golang/prometheus"

// MarketplaceMetrics exposes counters/histograms for the lead marketplace.
type MarketplaceMetrics struct {
	capturesTotal   *prometheus.CounterVec
	purchasesTotal  *prometheus.CounterVec
	revenueTotal    prometheus.Counter
	milestonesTotal *prometheus.CounterVec
	purchaseLatency prometheus.Histogram
}

func NewMarketplaceMetrics(reg prometheus.Registerer) *MarketplaceMetrics {
	m := &MarketplaceMetrics{
		capturesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voicebridge",
			Subsystem: "marketplace",
			Name:      "lead_captures_total",
			Help:      "Total leads captured from app usage signals",
		}, []string{"diagnosis"}),
		purchasesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voicebridge",
			Subsystem: "marketplace",
			Name:      "purchases_total",
			Help:      "Total purchase attempts by outcome",
		}, []string{"status"}),
		revenueTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voicebridge",
			Subsystem: "marketplace",
			Name:      "revenue_dollars_total",
			Help:      "Total revenue from completed purchases",
		}),
		milestonesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voicebridge",
			Subsystem: "marketplace",
			Name:      "conversion_milestones_total",
			Help:      "Total funnel milestones recorded",
		}, []string{"milestone"}),
		purchaseLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "voicebridge",
			Subsystem: "marketplace",
			Name:      "purchase_latency_seconds",
			Help:      "Latency of purchase processing including payment",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.capturesTotal, m.purchasesTotal, m.revenueTotal, m.milestonesTotal, m.purchaseLatency)
	return m
}

func (m *MarketplaceMetrics) ObserveCapture(diagnosis string) {
	if m == nil {
		return
	}
	m.capturesTotal.WithLabelValues(diagnosis).Inc()
}

func (m *MarketplaceMetrics) ObservePurchase(status string, priceDollars int) {
	if m == nil {
		return
	}
	m.purchasesTotal.WithLabelValues(status).Inc()
	if status == "completed" {
		m.revenueTotal.Add(float64(priceDollars))
	}
}

func (m *MarketplaceMetrics) ObserveMilestone(milestone string) {
	if m == nil {
		return
	}
	m.milestonesTotal.WithLabelValues(milestone).Inc()
}

func (m *MarketplaceMetrics) ObservePurchaseLatency(seconds float64) {
	if m == nil {
		return
	}
	m.purchaseLatency.Observe(seconds)
}
