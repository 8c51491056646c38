package matching

// diagnosisSpecialties maps an AAC-usage diagnosis to the provider
// specialties qualified to treat it. This table is the matching contract:
// a provider qualifies for a lead when its specialty set intersects the
// lead's diagnosis set.
var diagnosisSpecialties = map[string][]string{
	"autism":         {"Autism Spectrum Disorders", "AAC", "Social Communication"},
	"apraxia":        {"Childhood Apraxia of Speech", "Motor Speech Disorders", "AAC"},
	"cerebral_palsy": {"AAC", "Motor Speech Disorders", "Dysarthria"},
	"down_syndrome":  {"Early Intervention", "AAC", "Language Disorders"},
	"speech_delay":   {"Early Intervention", "Language Disorders", "Articulation"},
	"hearing_loss":   {"Aural Rehabilitation", "AAC", "Language Disorders"},
	"stuttering":     {"Fluency", "Social Communication"},
}

// defaultSpecialties covers diagnoses not in the table; general pediatric
// speech-language pathology is always an acceptable match.
var defaultSpecialties = []string{"Pediatric Speech-Language Pathology", "Language Disorders"}

// SpecialtiesFor returns the specialty set qualified for a diagnosis.
func SpecialtiesFor(diagnosis string) []string {
	if s, ok := diagnosisSpecialties[diagnosis]; ok {
		return append([]string(nil), s...)
	}
	return append([]string(nil), defaultSpecialties...)
}
