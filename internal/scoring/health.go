package scoring

// HealthCategory classifies a composite score on the customer-health scale.
// Derived on demand from the composite score, never stored.
type HealthCategory string

const (
	HealthExcellent HealthCategory = "excellent" // 90-100
	HealthGood      HealthCategory = "good"      // 70-89
	HealthFair      HealthCategory = "fair"      // 50-69
	HealthPoor      HealthCategory = "poor"      // 30-49
	HealthCritical  HealthCategory = "critical"  // 0-29
)

// RetentionRisk classifies churn probability.
type RetentionRisk string

const (
	RetentionLow      RetentionRisk = "low"      // < 20% churn probability
	RetentionMedium   RetentionRisk = "medium"   // 20-50%
	RetentionHigh     RetentionRisk = "high"     // 50-80%
	RetentionCritical RetentionRisk = "critical" // > 80%
)

// HealthFor maps a [0,1] composite score onto its health category.
func HealthFor(composite float64) HealthCategory {
	switch scaled := Rescale(composite); {
	case scaled >= 90:
		return HealthExcellent
	case scaled >= 70:
		return HealthGood
	case scaled >= 50:
		return HealthFair
	case scaled >= 30:
		return HealthPoor
	default:
		return HealthCritical
	}
}

// ChurnProbability derives churn likelihood from a composite health score.
func ChurnProbability(composite float64) float64 {
	return Clamp01(1 - composite)
}

// RetentionRiskFor maps a [0,1] composite score onto a retention risk level.
func RetentionRiskFor(composite float64) RetentionRisk {
	switch churn := ChurnProbability(composite); {
	case churn > 0.8:
		return RetentionCritical
	case churn > 0.5:
		return RetentionHigh
	case churn >= 0.2:
		return RetentionMedium
	default:
		return RetentionLow
	}
}
