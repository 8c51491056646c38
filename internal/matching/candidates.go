package matching

import (
	"sort"

	"github.com/voicebridge/lead-marketplace/internal/geo"
	"github.com/voicebridge/lead-marketplace/internal/leads"
	"github.com/voicebridge/lead-marketplace/internal/providers"
)

// DefaultTopN is how many matched providers a new lead keeps.
const DefaultTopN = 10

// RankCandidates selects the providers qualified for a freshly captured
// lead: specialty overlap plus service-area coverage, ranked by rating
// descending with distance as the tiebreaker. Returns at most topN ids.
func RankCandidates(lead *leads.Lead, candidates []*providers.Profile, topN int) []string {
	if topN <= 0 {
		topN = DefaultTopN
	}
	specialties := SpecialtiesFor(lead.Diagnosis)

	type ranked struct {
		id       string
		rating   float64
		distance float64
	}
	var qualified []ranked
	for _, p := range candidates {
		if !p.HasAnySpecialty(specialties) || !p.Covers(lead.Location) {
			continue
		}
		qualified = append(qualified, ranked{
			id:       p.ID,
			rating:   p.Rating,
			distance: geo.DistanceMiles(p.Location, lead.Location),
		})
	}

	sort.Slice(qualified, func(i, j int) bool {
		if qualified[i].rating != qualified[j].rating {
			return qualified[i].rating > qualified[j].rating
		}
		return qualified[i].distance < qualified[j].distance
	})

	if len(qualified) > topN {
		qualified = qualified[:topN]
	}
	out := make([]string, len(qualified))
	for i, q := range qualified {
		out[i] = q.id
	}
	return out
}
