package matching

import (
	"sort"
	"time"

	"github.com/voicebridge/lead-marketplace/internal/geo"
	"github.com/voicebridge/lead-marketplace/internal/leads"
	"github.com/voicebridge/lead-marketplace/internal/providers"
)

// Assumed economics behind the ROI estimate shown to browsing providers.
const (
	avgSessionValue  = 150
	expectedSessions = 20
)

// GeoFilter restricts browsing to leads within radius miles of a center.
type GeoFilter struct {
	Center      geo.Point
	RadiusMiles float64
}

// AgeFilter restricts browsing to a child age band, inclusive.
type AgeFilter struct {
	Min int
	Max int
}

// Filters are conjunctive browse predicates. Zero values mean "no filter".
type Filters struct {
	MaxPrice  int
	Geo       *GeoFilter
	Age       *AgeFilter
	Diagnoses []string
	Urgencies []string
}

func (f *Filters) matches(lead *leads.Lead) bool {
	if f.MaxPrice > 0 && lead.Pricing.FinalPrice > f.MaxPrice {
		return false
	}
	if f.Geo != nil && geo.DistanceMiles(f.Geo.Center, lead.Location) > f.Geo.RadiusMiles {
		return false
	}
	if f.Age != nil && (lead.ChildAge < f.Age.Min || lead.ChildAge > f.Age.Max) {
		return false
	}
	if len(f.Diagnoses) > 0 && !containsString(f.Diagnoses, lead.Diagnosis) {
		return false
	}
	if len(f.Urgencies) > 0 && !containsString(f.Urgencies, lead.Urgency) {
		return false
	}
	return true
}

// RankedLead is a browse result: a lead paired with the per-provider match
// score and ROI estimate it was ranked by.
type RankedLead struct {
	Lead          *leads.Lead
	MatchScore    int
	EstimatedROI  float64
	DistanceMiles float64
}

// BrowseResult is the outcome of filtering and ranking for one provider.
type BrowseResult struct {
	Leads          []*RankedLead
	TotalAvailable int
	AvgPrice       float64
}

// MatchScore rates provider/lead compatibility in [0,100].
func MatchScore(provider *providers.Profile, lead *leads.Lead) int {
	score := 50

	if provider.HasAnySpecialty(SpecialtiesFor(lead.Diagnosis)) {
		score += 30
	}

	distance := geo.DistanceMiles(provider.Location, lead.Location)
	switch {
	case distance <= 10:
		score += 20
	case distance <= 25:
		score += 10
	}

	if lead.ChildAge < 5 && provider.ExperienceYears > 5 {
		score += 15
	}

	if score > 100 {
		score = 100
	}
	return score
}

// EstimatedROI projects the percentage return on buying a lead, using the
// assumed session economics above.
func EstimatedROI(lead *leads.Lead) float64 {
	price := float64(lead.Pricing.FinalPrice)
	if price <= 0 {
		return 0
	}
	expectedRevenue := avgSessionValue * expectedSessions * lead.ConversionProbability
	return (expectedRevenue - price) / price * 100
}

// RankForProvider filters the candidate leads for a browsing provider and
// ranks survivors by 0.6*matchScore + 0.4*estimatedROI descending. The
// input set should already be restricted to active leads; expiry and
// already-purchased checks are applied here as well.
func RankForProvider(provider *providers.Profile, candidates []*leads.Lead, f Filters, now time.Time) *BrowseResult {
	var ranked []*RankedLead
	var priceSum int

	for _, lead := range candidates {
		if lead.Status != leads.StatusActive || lead.Expired(now) || lead.PurchasedByProvider(provider.ID) {
			continue
		}
		if !f.matches(lead) {
			continue
		}
		ranked = append(ranked, &RankedLead{
			Lead:          lead,
			MatchScore:    MatchScore(provider, lead),
			EstimatedROI:  EstimatedROI(lead),
			DistanceMiles: geo.DistanceMiles(provider.Location, lead.Location),
		})
		priceSum += lead.Pricing.FinalPrice
	}

	sort.Slice(ranked, func(i, j int) bool {
		return rankWeight(ranked[i]) > rankWeight(ranked[j])
	})

	result := &BrowseResult{
		Leads:          ranked,
		TotalAvailable: len(ranked),
	}
	if len(ranked) > 0 {
		result.AvgPrice = float64(priceSum) / float64(len(ranked))
	}
	return result
}

func rankWeight(r *RankedLead) float64 {
	return 0.6*float64(r.MatchScore) + 0.4*r.EstimatedROI
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
