// Package autonomy holds the per-subject autonomy configuration: the level,
// confidence threshold, custom rules, and restrictions the policy gate reads
// on every decision.
//
// One config is active per (subject, process) pair, last write wins. The
// ConfigCache loads from the store on first use and caches per pair; cached
// entries are invalidated when a config is updated.
package autonomy

import (
	"fmt"
	"time"

	"github.com/aida/autonomy/internal/decision"
)

// CustomRules are process-specific overrides layered on top of the base
// thresholds. Currently a per-decision-type minimum confidence.
type CustomRules map[string]RuleSet

// RuleSet is the override set for one decision type.
type RuleSet struct {
	MinConfidence float64 `json:"min_confidence,omitempty"`
}

// TimeRestrictions constrain when automated execution is allowed.
type TimeRestrictions struct {
	BusinessHoursOnly bool `json:"business_hours_only"`
}

// ValueLimits bound the transaction values automation may touch. The limit
// is advisory for most decision types (violations are logged); the
// value-update type enforces it.
type ValueLimits struct {
	MaxDealValue float64 `json:"max_deal_value,omitempty"`
}

// Config is the autonomy configuration for one (subject, process) pair.
type Config struct {
	SubjectID           string                 `json:"subject_id"`
	Process             string                 `json:"process"`
	Level               decision.AutonomyLevel `json:"level"`
	ConfidenceThreshold float64                `json:"confidence_threshold"`
	CustomRules         CustomRules            `json:"custom_rules,omitempty"`
	TimeRestrictions    TimeRestrictions       `json:"time_restrictions"`
	ValueLimits         ValueLimits            `json:"value_limits"`
	CreatedAt           time.Time              `json:"created_at,omitempty"`
	UpdatedAt           time.Time              `json:"updated_at,omitempty"`
}

// DefaultConfig returns the conservative defaults applied when a pair has no
// stored config: draft-only autonomy with a high confidence bar.
func DefaultConfig(subjectID, process string) *Config {
	return &Config{
		SubjectID:           subjectID,
		Process:             process,
		Level:               decision.LevelDraft,
		ConfidenceThreshold: 0.8,
	}
}

// Validate checks the config against the autonomy business rules. Invalid
// configs are rejected atomically; nothing partial is ever persisted.
func (c *Config) Validate() error {
	if !c.Level.Valid() {
		return fmt.Errorf("invalid autonomy level: %d", c.Level)
	}
	if c.ConfidenceThreshold < 0.1 || c.ConfidenceThreshold > 1.0 {
		return fmt.Errorf("invalid confidence threshold: %.2f", c.ConfidenceThreshold)
	}
	if c.Level >= decision.LevelDelegated && c.ConfidenceThreshold < 0.7 {
		return fmt.Errorf("autonomy level %d requires confidence threshold >= 0.7, got %.2f",
			c.Level, c.ConfidenceThreshold)
	}
	if c.Level == decision.LevelAutonomous && c.ConfidenceThreshold < 0.8 {
		return fmt.Errorf("L5 autonomy requires confidence threshold >= 0.8, got %.2f",
			c.ConfidenceThreshold)
	}
	if c.ValueLimits.MaxDealValue < 0 {
		return fmt.Errorf("max deal value must not be negative, got %.2f", c.ValueLimits.MaxDealValue)
	}
	for dt, rules := range c.CustomRules {
		if rules.MinConfidence < 0 || rules.MinConfidence > 1 {
			return fmt.Errorf("custom rule for %s: min_confidence must be in [0,1], got %.2f",
				dt, rules.MinConfidence)
		}
	}
	return nil
}

// MinConfidenceFor returns the custom-rule confidence floor for a decision
// type, or 0 when no rule applies.
func (c *Config) MinConfidenceFor(dt decision.Type) float64 {
	if c.CustomRules == nil {
		return 0
	}
	return c.CustomRules[string(dt)].MinConfidence
}
