package leads

import (
	"math"
	"strings"
	"time"

	"github.com/voicebridge/lead-marketplace/internal/geo"
)

// Status is the marketplace lifecycle state of a lead.
type Status string

const (
	StatusNew       Status = "new"
	StatusActive    Status = "active"
	StatusPurchased Status = "purchased"
	StatusConverted Status = "converted"
	StatusExpired   Status = "expired"
)

// MaxPurchasers is the hard cap on concurrent buyers per lead.
const MaxPurchasers = 3

// DefaultTTL is how long a lead stays purchasable after capture.
const DefaultTTL = 7 * 24 * time.Hour

// Contact is the parent contact information revealed only at purchase time.
type Contact struct {
	ParentName  string `json:"parent_name"`
	ParentEmail string `json:"parent_email"`
	ParentPhone string `json:"parent_phone"`
}

// Pricing captures the capture-time price decomposition.
type Pricing struct {
	BasePrice            int     `json:"base_price"`
	QualityMultiplier    float64 `json:"quality_multiplier"`
	UrgencyMultiplier    float64 `json:"urgency_multiplier"`
	EngagementMultiplier float64 `json:"engagement_multiplier"`
	FinalPrice           int     `json:"final_price"`
}

// Engagement tracks post-capture outreach metrics on the lead itself.
type Engagement struct {
	ContactAttempts int `json:"contact_attempts"`
	EmailOpens      int `json:"email_opens"`
	EmailClicks     int `json:"email_clicks"`
}

// Lead is a scored, priced inquiry derived from AAC app usage.
type Lead struct {
	ID      string  `json:"id"`
	UserID  string  `json:"user_id"`
	Source  string  `json:"source"`
	Contact Contact `json:"contact"`

	ChildAge  int      `json:"child_age"`
	Diagnosis string   `json:"diagnosis"`
	Severity  string   `json:"severity"`
	Goals     []string `json:"goals,omitempty"`

	Urgency         string    `json:"urgency"`
	ServiceType     string    `json:"service_type"`
	ZipCode         string    `json:"zip_code"`
	Location        geo.Point `json:"location"`
	Schedule        string    `json:"schedule,omitempty"`
	MonthlyBudget   int       `json:"monthly_budget,omitempty"`
	SpecialRequests string    `json:"special_requests,omitempty"`

	UsageDurationDays int     `json:"usage_duration_days"`
	AppEngagement     float64 `json:"app_engagement"`

	LeadScore             int      `json:"lead_score"`
	ConversionProbability float64  `json:"conversion_probability"`
	UrgencyScore          int      `json:"urgency_score"`
	BudgetScore           int      `json:"budget_score"`
	LocationScore         int      `json:"location_score"`
	QualityIndicators     []string `json:"quality_indicators,omitempty"`

	Status              Status   `json:"status"`
	Pricing             Pricing  `json:"pricing"`
	MatchedProviders    []string `json:"matched_providers,omitempty"`
	InterestedProviders []string `json:"interested_providers,omitempty"`
	PurchasedBy         []string `json:"purchased_by,omitempty"`
	Views               int      `json:"views"`

	Engagement Engagement `json:"engagement"`

	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the lead is past its expiry, regardless of the
// stored status field. Expiry is evaluated lazily at read time.
func (l *Lead) Expired(now time.Time) bool {
	return !l.ExpiresAt.IsZero() && now.After(l.ExpiresAt)
}

// PurchasedByProvider reports whether the provider already bought this lead.
func (l *Lead) PurchasedByProvider(providerID string) bool {
	for _, id := range l.PurchasedBy {
		if id == providerID {
			return true
		}
	}
	return false
}

// Purchasable reports whether a purchase by the given provider may proceed.
// Unavailability (inactive, expired, capped) is distinguished from a
// duplicate buyer so callers can map the two error kinds.
func (l *Lead) Purchasable(providerID string, now time.Time) error {
	if l.Status != StatusActive || l.Expired(now) || len(l.PurchasedBy) >= MaxPurchasers {
		return ErrLeadUnavailable
	}
	if l.PurchasedByProvider(providerID) {
		return ErrAlreadyPurchased
	}
	return nil
}

// CaptureRequest is the usage signal emitted by the AAC app.
type CaptureRequest struct {
	UserID            string    `json:"user_id"`
	ParentName        string    `json:"parent_name"`
	ParentEmail       string    `json:"parent_email"`
	ParentPhone       string    `json:"parent_phone"`
	ChildAge          int       `json:"child_age"`
	Diagnosis         string    `json:"diagnosis"`
	UsageDurationDays int       `json:"usage_duration_days"`
	AppEngagement     float64   `json:"app_engagement"`
	Location          geo.Point `json:"location"`
	ZipCode           string    `json:"zip_code"`
	ServiceType       string    `json:"service_type"`
	Schedule          string    `json:"schedule"`
	MonthlyBudget     int       `json:"monthly_budget"`
	SpecialRequests   string    `json:"special_requests"`
	Goals             []string  `json:"goals"`
	Source            string    `json:"source"`
}

// Validate checks the capture request before any scoring happens.
func (r *CaptureRequest) Validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return ErrMissingUserID
	}
	if !strings.Contains(r.ParentEmail, "@") {
		return ErrInvalidEmail
	}
	if r.ChildAge <= 0 || r.ChildAge > 17 {
		return ErrInvalidChildAge
	}
	if strings.TrimSpace(r.Diagnosis) == "" {
		return ErrMissingDiagnosis
	}
	if r.UsageDurationDays < 0 {
		return ErrInvalidUsage
	}
	if math.IsNaN(r.AppEngagement) || r.AppEngagement < 0 || r.AppEngagement > 100 {
		return ErrInvalidEngagement
	}
	if math.IsNaN(r.Location.Lat) || math.IsNaN(r.Location.Lng) ||
		r.Location.Lat < -90 || r.Location.Lat > 90 ||
		r.Location.Lng < -180 || r.Location.Lng > 180 {
		return ErrInvalidLocation
	}
	return nil
}
