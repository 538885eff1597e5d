package engine

import (
	"github.com/aida/autonomy/internal/decision"
)

// Named risk factors attached to decisions. The names travel into audit
// entries and escalation events, so they stay stable.
const (
	RiskHighValue   = "high_value_transaction"
	RiskHighUrgency = "high_urgency_request"
	RiskStaleDeal   = "stale_deal_progression"
	RiskBulkSend    = "bulk_communication"
)

// RiskThresholds are the trip points for risk-factor detection.
type RiskThresholds struct {
	HighValue      float64 `yaml:"high_value"`
	StaleDays      int     `yaml:"stale_days"`
	BulkRecipients int     `yaml:"bulk_recipients"`
}

// DefaultRiskThresholds returns the standard trip points.
func DefaultRiskThresholds() RiskThresholds {
	return RiskThresholds{
		HighValue:      50_000,
		StaleDays:      90,
		BulkRecipients: 100,
	}
}

// Assess inspects the context and returns the named risk factors present.
// General factors apply to every decision type; staleness and bulk-recipient
// checks only apply to progressions and communications respectively.
func (t RiskThresholds) Assess(dt decision.Type, dc *decision.Context) []string {
	var risks []string

	if v, ok := dc.Float("value"); ok && v > t.HighValue {
		risks = append(risks, RiskHighValue)
	}
	if dc.String("urgency") == "high" {
		risks = append(risks, RiskHighUrgency)
	}

	if dt == decision.TypeDealProgression {
		if age, ok := dc.Int("deal_age_days"); ok && age > t.StaleDays {
			risks = append(risks, RiskStaleDeal)
		}
	}
	if dt == decision.TypeCommunicationSend {
		if n, ok := dc.Int("recipient_count"); ok && n > t.BulkRecipients {
			risks = append(risks, RiskBulkSend)
		}
	}

	return risks
}

// RiskPenalty converts a risk-factor count into a confidence penalty,
// capped at 0.3.
func RiskPenalty(count int) float64 {
	penalty := float64(count) * 0.1
	if penalty > 0.3 {
		penalty = 0.3
	}
	return penalty
}
