// Package scoring computes the multi-dimensional scores, the weighted
// composite, and the confidence estimate that feed the autonomy engine.
//
// Every scorer produces a Score value rather than raising: external
// dependencies (the scoring oracle, the pattern store) that fail are
// substituted with a neutral value and flagged as unavailable so the
// confidence stage can account for them explicitly.
package scoring

// Score is one normalized signal in [0,1] from a decision context.
// OK is false when the scorer's external dependency was unavailable and the
// value is a substituted neutral default.
type Score struct {
	Value float64
	OK    bool
}

// Ok wraps a clamped value as an available score.
func Ok(v float64) Score {
	return Score{Value: Clamp01(v), OK: true}
}

// Unavailable returns the neutral substitute for a failed external scorer.
func Unavailable() Score {
	return Score{Value: 0.5, OK: false}
}

// Clamp01 bounds v to [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Clamp bounds v to [lo,hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Dimension names shared between the scorers, the weight tables, and the
// decision executor.
const (
	DimAISemantic     = "ai_semantic"
	DimCompleteness   = "data_completeness"
	DimSourceQuality  = "source_quality"
	DimDemographicFit = "demographic_fit"
	DimIntent         = "behavioral_intent"
	DimFirmographic   = "firmographic"
	DimUrgency        = "urgency"
	DimHistorical     = "historical_pattern"
	DimReadiness      = "progression_readiness"
	DimContentQuality = "content_quality"
	DimTiming         = "timing_appropriateness"
	DimPersonal       = "personalization"
)
