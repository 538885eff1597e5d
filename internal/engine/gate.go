package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/aida/autonomy/internal/autonomy"
	"github.com/aida/autonomy/internal/decision"
)

// Gate check names, reported in deny reasons and metrics labels.
const (
	CheckLevel         = "level"
	CheckConfidence    = "confidence"
	CheckCustomRule    = "custom_rule"
	CheckBusinessHours = "business_hours"
	CheckValueLimit    = "value_limit"
)

// Automated execution is restricted to this wall-clock window when a config
// demands business hours.
const (
	businessHoursStart = 9
	businessHoursEnd   = 17
)

// GateResult is the verdict of one policy-gate evaluation. Each check is
// recorded individually; Permitted is the conjunction of the hard checks.
type GateResult struct {
	LevelPermitted    bool `json:"level_permitted"`
	ConfidenceMet     bool `json:"confidence_met"`
	CustomRulesPassed bool `json:"custom_rules_passed"`
	TimeAllowed       bool `json:"time_allowed"`
	ValueWithinLimit  bool `json:"value_within_limit"`

	Permitted bool `json:"permitted"`

	// FailedCheck names the first failing check category; empty on permit.
	FailedCheck string `json:"failed_check,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// EvaluateGate runs the autonomy policy gate: a pure evaluation with no
// persisted state. Checks run in a fixed order and the first failure names
// the deny reason. The value-limit check is advisory here; only the
// value-update executor enforces it.
func EvaluateGate(
	cfg *autonomy.Config,
	dt decision.Type,
	level decision.AutonomyLevel,
	confidence float64,
	dc *decision.Context,
	now time.Time,
) GateResult {
	r := GateResult{
		LevelPermitted:    level >= cfg.Level,
		ConfidenceMet:     confidence >= cfg.ConfidenceThreshold,
		CustomRulesPassed: true,
		TimeAllowed:       true,
		ValueWithinLimit:  true,
	}

	if min := cfg.MinConfidenceFor(dt); min > 0 && confidence < min {
		r.CustomRulesPassed = false
	}

	if cfg.TimeRestrictions.BusinessHoursOnly {
		hour := now.Hour()
		r.TimeAllowed = hour >= businessHoursStart && hour <= businessHoursEnd
	}

	if limit := cfg.ValueLimits.MaxDealValue; limit > 0 {
		if v, ok := dc.Float("value"); ok && v > limit {
			r.ValueWithinLimit = false
			slog.Warn("value limit exceeded",
				"decision_type", dt,
				"subject_id", cfg.SubjectID,
				"value", v,
				"limit", limit)
		}
	}

	switch {
	case !r.LevelPermitted:
		r.FailedCheck = CheckLevel
		r.Reason = fmt.Sprintf("autonomy level %d below required minimum %d", level, cfg.Level)
	case !r.ConfidenceMet:
		r.FailedCheck = CheckConfidence
		r.Reason = fmt.Sprintf("confidence %.2f below threshold %.2f", confidence, cfg.ConfidenceThreshold)
	case !r.CustomRulesPassed:
		r.FailedCheck = CheckCustomRule
		r.Reason = fmt.Sprintf("confidence %.2f below custom minimum %.2f for %s",
			confidence, cfg.MinConfidenceFor(dt), dt)
	case !r.TimeAllowed:
		r.FailedCheck = CheckBusinessHours
		r.Reason = fmt.Sprintf("hour %d outside business hours [%d,%d]",
			now.Hour(), businessHoursStart, businessHoursEnd)
	default:
		r.Permitted = true
	}

	return r
}
