// Package decision defines the shared types of the autonomy engine: the
// immutable decision context, the decision record returned to callers, and
// the enumerations used across scoring, gating, and execution.
package decision

import (
	"time"
)

// Type identifies the kind of autonomous decision being made.
type Type string

const (
	TypeLeadQualification Type = "lead_qualification"
	TypeDealProgression   Type = "deal_progression"
	TypeCommunicationSend Type = "communication_send"
	TypeValueUpdate       Type = "value_update"
)

// Status describes the terminal state of a decision request.
type Status string

const (
	StatusExecuted       Status = "executed"
	StatusBlocked        Status = "blocked"
	StatusNotImplemented Status = "not_implemented"
	StatusError          Status = "error"
)

// EscalateToHuman is the universal safe-fallback outcome. Any denial,
// unrecognized type, or internal fault resolves to it.
const EscalateToHuman = "escalate_to_human"

// AutonomyLevel controls how much human oversight a decision requires.
// Higher levels relax the thresholds required to auto-execute.
type AutonomyLevel int

const (
	LevelDraft      AutonomyLevel = 1 // draft-only, human executes
	LevelAssisted   AutonomyLevel = 2 // system performs with human approval
	LevelSupervised AutonomyLevel = 3 // system acts with human oversight
	LevelDelegated  AutonomyLevel = 4 // system operates within defined boundaries
	LevelAutonomous AutonomyLevel = 5 // full automation, human-on-the-loop
)

// Valid reports whether l is one of the five defined levels.
func (l AutonomyLevel) Valid() bool {
	return l >= LevelDraft && l <= LevelAutonomous
}

// ConfidenceBand is the discretized reporting band for a continuous
// confidence value. Decisions always use the continuous value; bands exist
// purely for display and audit readability.
type ConfidenceBand string

const (
	BandVeryLow  ConfidenceBand = "very_low"
	BandLow      ConfidenceBand = "low"
	BandMedium   ConfidenceBand = "medium"
	BandHigh     ConfidenceBand = "high"
	BandVeryHigh ConfidenceBand = "very_high"
)

// BandFor maps a confidence value onto its reporting band.
func BandFor(confidence float64) ConfidenceBand {
	switch {
	case confidence < 0.3:
		return BandVeryLow
	case confidence < 0.5:
		return BandLow
	case confidence < 0.7:
		return BandMedium
	case confidence <= 0.9:
		return BandHigh
	default:
		return BandVeryHigh
	}
}

// Context is the immutable input bundle describing the subject and situation
// being decided upon. It is built once per decision and never mutated; the
// engine does not retain a reference after the decision returns.
type Context struct {
	id        string
	userID    string
	timestamp time.Time
	attrs     map[string]any
}

// NewContext builds a decision context from a subject id and its attributes.
// The attribute map is copied so later caller mutations cannot leak in.
func NewContext(id string, userID string, ts time.Time, attrs map[string]any) *Context {
	cp := make(map[string]any, len(attrs))
	for k, v := range attrs {
		cp[k] = v
	}
	return &Context{id: id, userID: userID, timestamp: ts, attrs: cp}
}

// ID returns the subject id the decision concerns.
func (c *Context) ID() string { return c.id }

// UserID returns the requesting user, if any.
func (c *Context) UserID() string { return c.userID }

// Timestamp returns the wall-clock instant the context was captured.
func (c *Context) Timestamp() time.Time { return c.timestamp }

// Get returns a raw attribute value.
func (c *Context) Get(key string) (any, bool) {
	v, ok := c.attrs[key]
	return v, ok
}

// String returns the attribute as a string, or "" if absent or untyped.
func (c *Context) String(key string) string {
	if v, ok := c.attrs[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Float returns the attribute as a float64. Integer attributes are widened.
func (c *Context) Float(key string) (float64, bool) {
	switch v := c.attrs[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// Int returns the attribute as an int.
func (c *Context) Int(key string) (int, bool) {
	switch v := c.attrs[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

// StringMap returns the attribute as a map[string]string. JSON-decoded
// map[string]any values are converted, dropping non-string entries.
func (c *Context) StringMap(key string) map[string]string {
	switch v := c.attrs[key].(type) {
	case map[string]string:
		return v
	case map[string]any:
		out := make(map[string]string, len(v))
		for k, raw := range v {
			if s, ok := raw.(string); ok {
				out[k] = s
			}
		}
		return out
	}
	return nil
}

// Has reports whether a non-nil, non-empty attribute is present.
func (c *Context) Has(key string) bool {
	v, ok := c.attrs[key]
	if !ok || v == nil {
		return false
	}
	if s, isStr := v.(string); isStr {
		return s != ""
	}
	return true
}

// Keys returns the attribute names present on the context.
func (c *Context) Keys() []string {
	keys := make([]string, 0, len(c.attrs))
	for k := range c.attrs {
		keys = append(keys, k)
	}
	return keys
}

// Decision is the output record of one decision request. It is created once
// and never mutated after the engine returns it.
type Decision struct {
	ID                 string             `json:"id"`
	Type               Type               `json:"decision_type"`
	Status             Status             `json:"status"`
	Decision           string             `json:"decision"`
	Reason             string             `json:"reason"`
	Confidence         float64            `json:"confidence"`
	ConfidenceBand     ConfidenceBand     `json:"confidence_band"`
	CompositeScore     float64            `json:"composite_score"`
	Scores             map[string]float64 `json:"scores_breakdown,omitempty"`
	RiskFactors        []string           `json:"risk_factors,omitempty"`
	NextActions        []string           `json:"next_actions,omitempty"`
	RequiresEscalation bool               `json:"requires_escalation"`
	AutonomyLevel      AutonomyLevel      `json:"autonomy_level"`
	ContextID          string             `json:"context_id"`
	DecidedAt          time.Time          `json:"decided_at"`

	// Type-specific extras, e.g. from_stage/to_stage for progressions or
	// content_score for communications.
	Details map[string]any `json:"details,omitempty"`
}
