package attribution

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategorizeDirectMapping(t *testing.T) {
	svc := NewService(nil)

	info := svc.Categorize("demo_request", nil)
	assert.Equal(t, "event", info.Category)
	assert.Equal(t, "demo", info.Subcategory)

	info = svc.Categorize("REFERRAL", nil)
	assert.Equal(t, "referral", info.Category)
}

func TestCategorizeUTMFallback(t *testing.T) {
	svc := NewService(nil)

	info := svc.Categorize("some_landing_page", map[string]string{"utm_medium": "cpc"})
	assert.Equal(t, "paid", info.Category)
	assert.Equal(t, "search", info.Subcategory)

	info = svc.Categorize("some_landing_page", map[string]string{
		"utm_medium": "social",
		"utm_source": "linkedin",
	})
	assert.Equal(t, "paid", info.Category)
	assert.Equal(t, "social", info.Subcategory)

	info = svc.Categorize("some_landing_page", map[string]string{
		"utm_medium": "social",
		"utm_source": "mastodon",
	})
	assert.Equal(t, "social", info.Category)
}

func TestCategorizeUnknown(t *testing.T) {
	svc := NewService(nil)

	info := svc.Categorize("carrier_pigeon", nil)
	assert.Equal(t, "unknown", info.Category)
	assert.Equal(t, "carrier_pigeon", info.Subcategory)
}

func TestQualityScoreBonuses(t *testing.T) {
	svc := NewService(nil)

	bare := svc.QualityScore(LeadFields{Source: "email"})
	assert.InDelta(t, 0.6, bare, 1e-9)

	rich := svc.QualityScore(LeadFields{
		Source:    "email",
		FirstName: "Jane",
		LastName:  "Doe",
		Company:   "Acme Corp",
		Phone:     "+15550100",
		UTM:       map[string]string{"utm_campaign": "spring", "utm_term": "crm"},
	})
	// 0.6 base + 4×0.1 contact bonuses + 2×0.05 campaign bonuses
	assert.InDelta(t, 1.0, rich, 1e-9)
}

func TestQualityScoreClampedAtOne(t *testing.T) {
	svc := NewService(nil)

	got := svc.QualityScore(LeadFields{
		Source:    "referral",
		FirstName: "Jane",
		LastName:  "Doe",
		Company:   "Acme Corp",
		Phone:     "+15550100",
		UTM:       map[string]string{"utm_campaign": "spring", "utm_term": "crm"},
	})
	assert.Equal(t, 1.0, got)
}
