// Package providers exposes the therapist-directory contract the marketplace
// consumes. Only lookup and profile fetch are defined here; the directory
// owns its own storage.
package providers

import (
	"context"
	"errors"

	"github.com/voicebridge/lead-marketplace/internal/geo"
)

// ErrProviderNotFound is returned when a provider id is unknown.
var ErrProviderNotFound = errors.New("provider not found")

// Profile is the directory's view of a provider relevant to matching,
// ranking and purchase pricing.
type Profile struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	SubscriptionTier string    `json:"subscription_tier"`
	Specialties      []string  `json:"specialties"`
	Location         geo.Point `json:"location"`
	ServiceRadiusMi  float64   `json:"service_radius_miles"`
	ExperienceYears  int       `json:"experience_years"`
	Rating           float64   `json:"rating"`
}

// HasAnySpecialty reports whether the provider covers at least one of the
// given specialties.
func (p *Profile) HasAnySpecialty(specialties []string) bool {
	for _, want := range specialties {
		for _, have := range p.Specialties {
			if have == want {
				return true
			}
		}
	}
	return false
}

// Covers reports whether the point falls inside the provider's service area.
func (p *Profile) Covers(point geo.Point) bool {
	if p.ServiceRadiusMi <= 0 {
		return false
	}
	return geo.DistanceMiles(p.Location, point) <= p.ServiceRadiusMi
}

// Directory is the provider-directory collaborator.
type Directory interface {
	// FindBySpecialties returns providers covering at least one of the
	// given specialties. Service-area filtering is the caller's concern.
	FindBySpecialties(ctx context.Context, specialties []string) ([]*Profile, error)
	GetByID(ctx context.Context, id string) (*Profile, error)
}
