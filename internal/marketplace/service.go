// Package marketplace owns the lead sale lifecycle: capture, browse,
// purchase, conversion tracking, and the analytics rollup. Purchase
// admission is serialized per lead so the three-buyer cap holds under
// concurrent attempts.
package marketplace

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/voicebridge/lead-marketplace/internal/analytics"
	"github.com/voicebridge/lead-marketplace/internal/leads"
	"github.com/voicebridge/lead-marketplace/internal/matching"
	"github.com/voicebridge/lead-marketplace/internal/notify"
	"github.com/voicebridge/lead-marketplace/internal/observability/metrics"
	"github.com/voicebridge/lead-marketplace/internal/payments"
	"github.com/voicebridge/lead-marketplace/internal/pricing"
	"github.com/voicebridge/lead-marketplace/internal/providers"
	"github.com/voicebridge/lead-marketplace/internal/purchases"
	"github.com/voicebridge/lead-marketplace/pkg/logging"
)

const (
	trendWindow      = 30 * 24 * time.Hour
	leaderboardLimit = 10
)

// Config wires the service's collaborators. Leads, Purchases, Directory and
// Gateway are required; the rest default to no-ops or sane fallbacks.
type Config struct {
	Leads     leads.Repository
	Purchases purchases.Repository
	Directory providers.Directory
	Gateway   payments.Gateway

	Publisher *notify.Publisher
	Counters  *analytics.Counters
	Store     analytics.Store
	Cache     *analytics.SnapshotCache
	Metrics   *metrics.MarketplaceMetrics
	Logger    *logging.Logger

	LeadTTL     time.Duration
	MatchedTopN int
	Now         func() time.Time
}

// Service implements the marketplace engine.
type Service struct {
	leads     leads.Repository
	purchases purchases.Repository
	directory providers.Directory
	gateway   payments.Gateway

	publisher *notify.Publisher
	counters  *analytics.Counters
	store     analytics.Store
	cache     *analytics.SnapshotCache
	metrics   *metrics.MarketplaceMetrics
	logger    *logging.Logger

	leadTTL     time.Duration
	matchedTopN int
	now         func() time.Time

	// one mutex per lead id; admission checks and purchasedBy appends
	// run under it
	leadLocks sync.Map
}

func NewService(cfg Config) *Service {
	if cfg.Leads == nil {
		panic("marketplace: lead repository required")
	}
	if cfg.Purchases == nil {
		panic("marketplace: purchase repository required")
	}
	if cfg.Directory == nil {
		panic("marketplace: provider directory required")
	}
	if cfg.Gateway == nil {
		panic("marketplace: payment gateway required")
	}
	if cfg.Counters == nil {
		cfg.Counters = analytics.NewCounters()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.LeadTTL <= 0 {
		cfg.LeadTTL = leads.DefaultTTL
	}
	if cfg.MatchedTopN <= 0 {
		cfg.MatchedTopN = matching.DefaultTopN
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		leads:       cfg.Leads,
		purchases:   cfg.Purchases,
		directory:   cfg.Directory,
		gateway:     cfg.Gateway,
		publisher:   cfg.Publisher,
		counters:    cfg.Counters,
		store:       cfg.Store,
		cache:       cfg.Cache,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
		leadTTL:     cfg.LeadTTL,
		matchedTopN: cfg.MatchedTopN,
		now:         cfg.Now,
	}
}

// CaptureLead turns a usage signal into a scored, priced, matched lead.
// Validation runs before any scoring; a failed capture has no side effects.
func (s *Service) CaptureLead(ctx context.Context, req *leads.CaptureRequest) (*leads.Lead, error) {
	if req == nil {
		return nil, leads.ErrValidation
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	score := leads.Score(req)
	urgency := leads.UrgencyFromDuration(req.UsageDurationDays)

	lead := &leads.Lead{
		ID:     uuid.NewString(),
		UserID: req.UserID,
		Source: req.Source,
		Contact: leads.Contact{
			ParentName:  req.ParentName,
			ParentEmail: req.ParentEmail,
			ParentPhone: req.ParentPhone,
		},
		ChildAge:  req.ChildAge,
		Diagnosis: req.Diagnosis,
		Severity:  leads.SeverityFromEngagement(req.AppEngagement),
		Goals:     append([]string(nil), req.Goals...),

		Urgency:         urgency,
		ServiceType:     req.ServiceType,
		ZipCode:         req.ZipCode,
		Location:        req.Location,
		Schedule:        req.Schedule,
		MonthlyBudget:   req.MonthlyBudget,
		SpecialRequests: req.SpecialRequests,

		UsageDurationDays: req.UsageDurationDays,
		AppEngagement:     req.AppEngagement,

		LeadScore:             score,
		ConversionProbability: leads.ConversionProbability(score, req.UsageDurationDays),
		UrgencyScore:          leads.UrgencyScore(urgency),
		BudgetScore:           leads.BudgetScore(req.MonthlyBudget),
		LocationScore:         leads.LocationScore(req),
		QualityIndicators:     leads.QualityIndicators(req),

		Status:  leads.StatusActive,
		Pricing: pricing.ForCapture(score, req.UsageDurationDays, req.AppEngagement),

		CreatedAt: now,
		ExpiresAt: now.Add(s.leadTTL),
	}

	lead.MatchedProviders = s.matchProviders(ctx, lead)

	if err := s.leads.Create(ctx, lead); err != nil {
		return nil, fmt.Errorf("marketplace: failed to persist lead: %w", err)
	}

	s.counters.RecordCapture(lead.Pricing.FinalPrice)
	s.metrics.ObserveCapture(lead.Diagnosis)
	s.logger.Info("lead captured",
		"lead_id", lead.ID,
		"diagnosis", lead.Diagnosis,
		"lead_score", lead.LeadScore,
		"final_price", lead.Pricing.FinalPrice,
		"matched_providers", len(lead.MatchedProviders),
	)
	return lead, nil
}

// matchProviders runs capture-time matching. A directory failure degrades
// to an unmatched lead rather than failing the capture.
func (s *Service) matchProviders(ctx context.Context, lead *leads.Lead) []string {
	specialties := matching.SpecialtiesFor(lead.Diagnosis)
	candidates, err := s.directory.FindBySpecialties(ctx, specialties)
	if err != nil {
		s.logger.Warn("provider matching failed", "lead_id", lead.ID, "error", err)
		return nil
	}
	return matching.RankCandidates(lead, candidates, s.matchedTopN)
}

// AvailableLeads returns the filtered, ranked browse view for a provider.
// Browsing is a snapshot scan and takes no locks.
func (s *Service) AvailableLeads(ctx context.Context, providerID string, f matching.Filters) (*matching.BrowseResult, error) {
	provider, err := s.directory.GetByID(ctx, providerID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	active, err := s.leads.ListActive(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("marketplace: failed to list active leads: %w", err)
	}

	result := matching.RankForProvider(provider, active, f, now)
	for _, ranked := range result.Leads {
		if err := s.leads.IncrementViews(ctx, ranked.Lead.ID); err != nil {
			s.logger.Warn("failed to bump lead views", "lead_id", ranked.Lead.ID, "error", err)
		}
	}
	return result, nil
}

// PurchaseResult is the structured outcome of a purchase attempt. Business
// failures are reported here rather than thrown; the accompanying error
// carries the kind for transport mapping.
type PurchaseResult struct {
	Success    bool                    `json:"success"`
	PurchaseID string                  `json:"purchase_id,omitempty"`
	Contact    *leads.Contact          `json:"contact_info,omitempty"`
	Lead       *purchases.LeadSnapshot `json:"lead_details,omitempty"`
	Price      int                     `json:"price"`
	Error      string                  `json:"error,omitempty"`
}

func failedPurchase(price int, err error) (*PurchaseResult, error) {
	return &PurchaseResult{Success: false, Price: price, Error: purchaseErrorMessage(err)}, err
}

func purchaseErrorMessage(err error) string {
	switch {
	case errors.Is(err, leads.ErrLeadNotFound):
		return "Lead not found"
	case errors.Is(err, leads.ErrLeadUnavailable):
		return "Lead no longer available"
	case errors.Is(err, leads.ErrAlreadyPurchased):
		return "Lead already purchased"
	case errors.Is(err, payments.ErrPaymentDeclined):
		return "Payment declined"
	default:
		return "Purchase failed"
	}
}

// PurchaseLead sells a lead to a provider. The payment is awaited before the
// per-lead lock is taken; preconditions are re-verified post-lock and the
// charge refunded if the admission race was lost. No mutation survives a
// failed payment.
func (s *Service) PurchaseLead(ctx context.Context, providerID, leadID, paymentMethod string) (*PurchaseResult, error) {
	started := s.now()

	lead, err := s.leads.GetByID(ctx, leadID)
	if err != nil {
		s.metrics.ObservePurchase("not_found", 0)
		return failedPurchase(0, err)
	}
	provider, err := s.directory.GetByID(ctx, providerID)
	if err != nil {
		s.metrics.ObservePurchase("provider_not_found", 0)
		return failedPurchase(0, err)
	}

	// Pre-payment admission check. First failing precondition returns
	// immediately with no mutation.
	if err := lead.Purchasable(providerID, s.now()); err != nil {
		s.metrics.ObservePurchase(purchaseFailureStatus(err), 0)
		return failedPurchase(0, err)
	}

	price := pricing.ForPurchase(lead.Pricing.FinalPrice, provider.SubscriptionTier)

	paymentRef, err := s.gateway.Charge(ctx, providerID, int64(price)*100, paymentMethod)
	if err != nil {
		s.metrics.ObservePurchase("payment_failed", 0)
		if errors.Is(err, payments.ErrPaymentDeclined) {
			return failedPurchase(price, err)
		}
		return failedPurchase(price, fmt.Errorf("%w: %s", payments.ErrPaymentDeclined, err))
	}

	lock := s.lockFor(leadID)
	lock.Lock()
	defer lock.Unlock()

	// Re-verify under the lock: another purchaser may have been admitted
	// while the payment was in flight.
	lead, err = s.leads.GetByID(ctx, leadID)
	if err == nil {
		err = lead.Purchasable(providerID, s.now())
	}
	if err != nil {
		s.refund(paymentRef, leadID, providerID)
		s.metrics.ObservePurchase(purchaseFailureStatus(err), 0)
		return failedPurchase(0, err)
	}

	now := s.now()
	lead.PurchasedBy = append(lead.PurchasedBy, providerID)
	if len(lead.PurchasedBy) >= leads.MaxPurchasers {
		lead.Status = leads.StatusPurchased
	}

	purchase := &purchases.Purchase{
		ID:            uuid.NewString(),
		ProviderID:    providerID,
		LeadID:        leadID,
		PurchaseDate:  now,
		PricePaid:     price,
		PaymentMethod: paymentMethod,
		PaymentRef:    paymentRef,
		Contact:       lead.Contact,
		Lead:          purchases.SnapshotFromLead(lead),
	}

	if err := s.purchases.Create(ctx, purchase); err != nil {
		s.refund(paymentRef, leadID, providerID)
		s.metrics.ObservePurchase("storage_error", 0)
		return failedPurchase(0, fmt.Errorf("marketplace: failed to record purchase: %w", err))
	}
	if err := s.leads.Update(ctx, lead); err != nil {
		s.refund(paymentRef, leadID, providerID)
		s.discardPurchase(purchase.ID, leadID)
		s.metrics.ObservePurchase("storage_error", 0)
		return failedPurchase(0, fmt.Errorf("marketplace: failed to update lead: %w", err))
	}

	// Counters move inside the critical section so totals track the
	// purchase records exactly.
	s.counters.RecordSale(price)
	s.metrics.ObservePurchase("completed", price)
	s.metrics.ObservePurchaseLatency(s.now().Sub(started).Seconds())

	s.notifyParent(lead, purchase, provider)

	s.logger.Info("lead purchased",
		"lead_id", leadID,
		"provider_id", providerID,
		"purchase_id", purchase.ID,
		"price", price,
		"purchasers", len(lead.PurchasedBy),
	)

	return &PurchaseResult{
		Success:    true,
		PurchaseID: purchase.ID,
		Contact:    &purchase.Contact,
		Lead:       &purchase.Lead,
		Price:      price,
	}, nil
}

func purchaseFailureStatus(err error) string {
	switch {
	case errors.Is(err, leads.ErrAlreadyPurchased):
		return "already_purchased"
	case errors.Is(err, leads.ErrLeadUnavailable):
		return "unavailable"
	case errors.Is(err, leads.ErrLeadNotFound):
		return "not_found"
	default:
		return "error"
	}
}

// refund is best effort compensation for a charge that lost the admission
// race or could not be recorded.
func (s *Service) refund(paymentRef, leadID, providerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.gateway.Refund(ctx, paymentRef); err != nil {
		s.logger.Error("refund failed, needs manual review",
			"payment_ref", paymentRef,
			"lead_id", leadID,
			"provider_id", providerID,
			"error", err,
		)
	}
}

// discardPurchase removes a purchase record whose paired lead update never
// landed. Leaving it behind would hand out the contact snapshot and skew
// the conversion counts for a sale that was rolled back.
func (s *Service) discardPurchase(purchaseID, leadID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.purchases.Delete(ctx, purchaseID); err != nil {
		s.logger.Error("purchase rollback failed, needs manual review",
			"purchase_id", purchaseID,
			"lead_id", leadID,
			"error", err,
		)
	}
}

// notifyParent queues the parent-contact email. Fire and forget: it must
// never block or fail the purchase.
func (s *Service) notifyParent(lead *leads.Lead, purchase *purchases.Purchase, provider *providers.Profile) {
	if s.publisher == nil {
		return
	}
	notice := notify.ParentContactNotice{
		LeadID:        lead.ID,
		PurchaseID:    purchase.ID,
		ParentEmail:   lead.Contact.ParentEmail,
		ParentName:    lead.Contact.ParentName,
		ChildAge:      lead.ChildAge,
		ProviderName:  provider.Name,
		ProviderEmail: provider.Email,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.publisher.PublishParentContact(ctx, notice); err != nil {
			s.logger.Warn("parent notification failed", "lead_id", notice.LeadID, "error", err)
		}
	}()
}

// TrackConversion advances a purchase's funnel. Milestones are first-write
// wins; a repeat call is a no-op. Reaching converted triggers a full
// conversion-rate recount over all purchases.
func (s *Service) TrackConversion(ctx context.Context, purchaseID string, milestone purchases.Milestone) error {
	if !purchases.ValidMilestone(milestone) {
		return purchases.ErrUnknownMilestone
	}

	purchase, err := s.purchases.GetByID(ctx, purchaseID)
	if err != nil {
		return err
	}

	if !purchase.ApplyMilestone(milestone, s.now()) {
		return nil
	}
	if err := s.purchases.Update(ctx, purchase); err != nil {
		return fmt.Errorf("marketplace: failed to update purchase: %w", err)
	}
	s.metrics.ObserveMilestone(string(milestone))

	if milestone == purchases.MilestoneConverted {
		s.markLeadConverted(ctx, purchase.LeadID)
		if err := s.recountConversionRate(ctx); err != nil {
			s.logger.Warn("conversion rate recount failed", "error", err)
		}
	}
	return nil
}

func (s *Service) markLeadConverted(ctx context.Context, leadID string) {
	lock := s.lockFor(leadID)
	lock.Lock()
	defer lock.Unlock()

	lead, err := s.leads.GetByID(ctx, leadID)
	if err != nil {
		s.logger.Warn("converted lead not found", "lead_id", leadID, "error", err)
		return
	}
	if lead.Status == leads.StatusConverted {
		return
	}
	lead.Status = leads.StatusConverted
	if err := s.leads.Update(ctx, lead); err != nil {
		s.logger.Warn("failed to mark lead converted", "lead_id", leadID, "error", err)
	}
}

// recountConversionRate recomputes the rate over the full purchase set.
// A full recount avoids the drift an incremental update accumulates.
func (s *Service) recountConversionRate(ctx context.Context) error {
	total, err := s.purchases.CountAll(ctx)
	if err != nil {
		return err
	}
	if total == 0 {
		s.counters.SetConversionRate(0)
		return nil
	}
	converted, err := s.purchases.CountConverted(ctx)
	if err != nil {
		return err
	}
	s.counters.SetConversionRate(float64(converted) / float64(total) * 100)
	return nil
}

// Analytics assembles the rollup snapshot, served from cache when fresh.
func (s *Service) Analytics(ctx context.Context) (*analytics.Rollup, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx); err == nil {
			return cached, nil
		} else if !errors.Is(err, analytics.ErrCacheMiss) {
			s.logger.Warn("analytics cache read failed", "error", err)
		}
	}

	now := s.now()
	totals := s.counters.Snapshot()

	active, err := s.leads.ListActive(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("marketplace: failed to count active leads: %w", err)
	}
	totals.ActiveLeads = int64(len(active))

	rollup := &analytics.Rollup{
		GeneratedAt: now,
		Totals:      totals,
	}

	if s.store != nil {
		trends, err := s.store.Trends(ctx, now.Add(-trendWindow))
		if err != nil {
			return nil, err
		}
		demo, err := s.store.Demographics(ctx)
		if err != nil {
			return nil, err
		}
		board, err := s.store.Leaderboard(ctx, leaderboardLimit)
		if err != nil {
			return nil, err
		}
		rollup.Trends = trends
		rollup.Demographics = demo
		rollup.Leaderboard = board
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, rollup); err != nil {
			s.logger.Warn("analytics cache write failed", "error", err)
		}
	}
	return rollup, nil
}

// GetLead returns a lead by id, evaluating expiry lazily.
func (s *Service) GetLead(ctx context.Context, leadID string) (*leads.Lead, error) {
	lead, err := s.leads.GetByID(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if lead.Status == leads.StatusActive && lead.Expired(s.now()) {
		lead.Status = leads.StatusExpired
	}
	return lead, nil
}

// GetPurchase returns a purchase by id.
func (s *Service) GetPurchase(ctx context.Context, purchaseID string) (*purchases.Purchase, error) {
	return s.purchases.GetByID(ctx, purchaseID)
}

func (s *Service) lockFor(leadID string) *sync.Mutex {
	actual, _ := s.leadLocks.LoadOrStore(leadID, &sync.Mutex{})
	return actual.(*sync.Mutex)
}
