package scoring

import (
	"github.com/aida/autonomy/internal/decision"
)

// Tables holds the tunable scoring data: per-type dimension weights, keyword
// buckets, field lists, and the reliable-source list. All of it is explicit
// configuration rather than inline literals.
type Tables struct {
	// Weights maps decision type → dimension → weight. Dimensions absent
	// from a decision contribute to neither numerator nor denominator.
	Weights map[decision.Type]map[string]float64 `yaml:"weights"`

	// Completeness field lists. Required fields share 0.5 of the score,
	// important fields 0.3, optional fields 0.1; a rich UTM set adds the
	// remaining bonus.
	RequiredFields  []string `yaml:"required_fields"`
	ImportantFields []string `yaml:"important_fields"`
	OptionalFields  []string `yaml:"optional_fields"`

	// Intent keyword buckets searched across utm_campaign/term/content.
	HighIntentKeywords   []string `yaml:"high_intent_keywords"`
	MediumIntentKeywords []string `yaml:"medium_intent_keywords"`

	// Urgency signals.
	UrgentSources  []string `yaml:"urgent_sources"`
	UrgentKeywords []string `yaml:"urgent_keywords"`

	// Sources whose presence raises confidence.
	ReliableSources []string `yaml:"reliable_sources"`

	// Demographic/firmographic lexical markers.
	FreeEmailProviders []string `yaml:"free_email_providers"`
	IndustryIndicators []string `yaml:"industry_indicators"`
	SizeIndicators     []string `yaml:"size_indicators"`

	// HistoricalBlend is the fixed weight at which historical-pattern
	// confidence is blended into the confidence estimate.
	HistoricalBlend float64 `yaml:"historical_blend"`
}

// DefaultTables returns the recommended scoring tables.
func DefaultTables() *Tables {
	return &Tables{
		Weights: map[decision.Type]map[string]float64{
			decision.TypeLeadQualification: {
				DimAISemantic:     0.25,
				DimCompleteness:   0.15,
				DimSourceQuality:  0.15,
				DimDemographicFit: 0.15,
				DimIntent:         0.15,
				DimFirmographic:   0.10,
				DimUrgency:        0.05,
			},
			decision.TypeDealProgression: {
				DimReadiness:    0.35,
				DimHistorical:   0.25,
				DimCompleteness: 0.20,
				DimUrgency:      0.10,
				DimAISemantic:   0.10,
			},
			decision.TypeCommunicationSend: {
				DimContentQuality: 0.35,
				DimTiming:         0.20,
				DimPersonal:       0.20,
				DimCompleteness:   0.15,
				DimHistorical:     0.10,
			},
			decision.TypeValueUpdate: {
				DimCompleteness: 0.40,
				DimHistorical:   0.35,
				DimUrgency:      0.25,
			},
		},
		RequiredFields:  []string{"email"},
		ImportantFields: []string{"first_name", "last_name", "company"},
		OptionalFields:  []string{"phone", "campaign", "utm_params"},

		HighIntentKeywords:   []string{"buy", "purchase", "demo", "trial", "pricing", "quote"},
		MediumIntentKeywords: []string{"learn", "guide", "how", "solution", "product"},

		UrgentSources:  []string{"phone", "chat", "demo_request", "contact_sales"},
		UrgentKeywords: []string{"urgent", "immediate", "now", "today", "asap"},

		ReliableSources: []string{"hubspot", "salesforce", "calendly", "demo_request"},

		FreeEmailProviders: []string{"gmail.com", "yahoo.com", "hotmail.com", "outlook.com"},
		IndustryIndicators: []string{"tech", "software", "digital", "data", "analytics", "ai"},
		SizeIndicators:     []string{"inc", "corp", "ltd", "llc", "group", "international"},

		HistoricalBlend: 0.3,
	}
}

// WeightsFor returns the weight table for a decision type, or nil when the
// type has no table.
func (t *Tables) WeightsFor(dt decision.Type) map[string]float64 {
	return t.Weights[dt]
}
