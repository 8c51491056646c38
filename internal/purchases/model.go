package purchases

import (
	"time"

	"github.com/voicebridge/lead-marketplace/internal/leads"
)

// Milestone is a funnel stage a purchased lead can reach. The funnel is
// monotonic: milestones are set once and never regress.
type Milestone string

const (
	MilestoneContacted   Milestone = "contacted"
	MilestoneResponse    Milestone = "response"
	MilestoneAppointment Milestone = "appointment"
	MilestoneConverted   Milestone = "converted"
)

// ValidMilestone reports whether m names a known funnel stage.
func ValidMilestone(m Milestone) bool {
	switch m {
	case MilestoneContacted, MilestoneResponse, MilestoneAppointment, MilestoneConverted:
		return true
	}
	return false
}

// LeadSnapshot freezes the lead details a buyer paid for. It is taken at
// purchase time and never updated, even if the lead mutates afterward.
type LeadSnapshot struct {
	ChildAge        int      `json:"child_age"`
	Diagnosis       string   `json:"diagnosis"`
	Severity        string   `json:"severity"`
	Goals           []string `json:"goals,omitempty"`
	Urgency         string   `json:"urgency"`
	ServiceType     string   `json:"service_type"`
	ZipCode         string   `json:"zip_code"`
	Schedule        string   `json:"schedule,omitempty"`
	SpecialRequests string   `json:"special_requests,omitempty"`
}

// Purchase records one provider buying one lead.
type Purchase struct {
	ID            string    `json:"id"`
	ProviderID    string    `json:"provider_id"`
	LeadID        string    `json:"lead_id"`
	PurchaseDate  time.Time `json:"purchase_date"`
	PricePaid     int       `json:"price_paid"`
	PaymentMethod string    `json:"payment_method"`
	PaymentRef    string    `json:"payment_ref,omitempty"`

	Contact leads.Contact `json:"contact"`
	Lead    LeadSnapshot  `json:"lead"`

	Contacted        bool       `json:"contacted"`
	ContactedAt      *time.Time `json:"contacted_at,omitempty"`
	ResponseReceived bool       `json:"response_received"`
	ResponseAt       *time.Time `json:"response_at,omitempty"`
	AppointmentSet   bool       `json:"appointment_scheduled"`
	AppointmentAt    *time.Time `json:"appointment_at,omitempty"`
	Converted        bool       `json:"converted"`
	ConvertedAt      *time.Time `json:"converted_at,omitempty"`
}

// ApplyMilestone sets the milestone's flag and timestamp if not already set.
// Returns true when state changed; a repeated call is a no-op and the first
// timestamp wins.
func (p *Purchase) ApplyMilestone(m Milestone, now time.Time) bool {
	switch m {
	case MilestoneContacted:
		if p.Contacted {
			return false
		}
		p.Contacted = true
		p.ContactedAt = &now
	case MilestoneResponse:
		if p.ResponseReceived {
			return false
		}
		p.ResponseReceived = true
		p.ResponseAt = &now
	case MilestoneAppointment:
		if p.AppointmentSet {
			return false
		}
		p.AppointmentSet = true
		p.AppointmentAt = &now
	case MilestoneConverted:
		if p.Converted {
			return false
		}
		p.Converted = true
		p.ConvertedAt = &now
	default:
		return false
	}
	return true
}

// SnapshotFromLead copies the purchasable details out of a live lead.
func SnapshotFromLead(l *leads.Lead) LeadSnapshot {
	return LeadSnapshot{
		ChildAge:        l.ChildAge,
		Diagnosis:       l.Diagnosis,
		Severity:        l.Severity,
		Goals:           append([]string(nil), l.Goals...),
		Urgency:         l.Urgency,
		ServiceType:     l.ServiceType,
		ZipCode:         l.ZipCode,
		Schedule:        l.Schedule,
		SpecialRequests: l.SpecialRequests,
	}
}
