package leads

import "strings"

// Scoring converts a usage signal into the lead quality numbers the
// marketplace prices and ranks on. All inputs are validated upstream;
// the arithmetic here assumes well-formed values.

const baseScore = 50

// complexDiagnoses get a flat scoring bonus: families managing these
// conditions convert to long-term therapy engagements far more often.
var complexDiagnoses = map[string]bool{
	"autism":         true,
	"apraxia":        true,
	"cerebral_palsy": true,
}

// Score computes the lead score for a capture request, clamped to [0,100].
func Score(r *CaptureRequest) int {
	score := baseScore

	switch {
	case r.UsageDurationDays > 30:
		score += 20
	case r.UsageDurationDays > 7:
		score += 15
	case r.UsageDurationDays > 1:
		score += 10
	}

	switch {
	case r.AppEngagement > 80:
		score += 25
	case r.AppEngagement > 60:
		score += 20
	case r.AppEngagement > 40:
		score += 15
	}

	switch {
	case r.ChildAge < 5:
		score += 15
	case r.ChildAge < 8:
		score += 10
	}

	if complexDiagnoses[r.Diagnosis] {
		score += 20
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

// SeverityFromEngagement derives an estimated severity tier from how heavily
// the child relies on the AAC app.
func SeverityFromEngagement(engagement float64) string {
	switch {
	case engagement > 80:
		return "severe"
	case engagement > 60:
		return "moderate"
	case engagement > 40:
		return "mild"
	default:
		return "unknown"
	}
}

// UrgencyFromDuration derives how soon the family is likely to seek therapy.
func UrgencyFromDuration(days int) string {
	switch {
	case days > 30:
		return "immediate"
	case days > 14:
		return "within_week"
	case days > 7:
		return "within_month"
	default:
		return "exploring"
	}
}

// ConversionProbability estimates the chance a purchased lead converts to an
// actual therapy engagement, in [0,1].
func ConversionProbability(leadScore int, usageDays int) float64 {
	p := float64(leadScore) / 100 * 0.6
	switch {
	case usageDays > 14:
		p += 0.3
	case usageDays > 7:
		p += 0.2
	}
	if p > 1 {
		p = 1
	}
	return p
}

// UrgencyScore maps the urgency tier to a 0-100 score.
func UrgencyScore(urgency string) int {
	switch urgency {
	case "immediate":
		return 90
	case "within_week":
		return 70
	case "within_month":
		return 50
	default:
		return 30
	}
}

// BudgetScore rates the family's stated monthly therapy budget. Zero means
// undisclosed and scores neutral.
func BudgetScore(monthlyBudget int) int {
	switch {
	case monthlyBudget >= 600:
		return 80
	case monthlyBudget >= 300:
		return 60
	case monthlyBudget > 0:
		return 40
	default:
		return 50
	}
}

// LocationScore rates how precisely we can place the family. Coordinates
// beat a bare zip code; neither scores zero.
func LocationScore(r *CaptureRequest) int {
	switch {
	case r.Location.Lat != 0 || r.Location.Lng != 0:
		return 80
	case strings.TrimSpace(r.ZipCode) != "":
		return 50
	default:
		return 20
	}
}

// QualityIndicators labels the signal strengths present in a capture.
func QualityIndicators(r *CaptureRequest) []string {
	var out []string
	if r.UsageDurationDays > 30 {
		out = append(out, "long_term_user")
	}
	if r.AppEngagement > 80 {
		out = append(out, "high_engagement")
	}
	if r.ChildAge < 5 {
		out = append(out, "early_intervention_age")
	}
	if complexDiagnoses[r.Diagnosis] {
		out = append(out, "complex_diagnosis")
	}
	return out
}
