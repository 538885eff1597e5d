// Package attribution categorizes lead sources and scores their quality.
//
// Category mappings and base quality scores are explicit configuration data
// rather than inline literals, so operators can tune them without code
// changes. Tables map 1:1 to the attribution section of the YAML config.
package attribution

import (
	"strings"
)

// SourceInfo is the categorization result for one source string.
type SourceInfo struct {
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
}

// Tables holds the tunable attribution data: direct source mappings,
// UTM-medium fallbacks, and per-category base quality scores.
type Tables struct {
	Sources    map[string]SourceInfo `yaml:"sources"`
	BaseScores map[string]float64    `yaml:"base_scores"`

	// UnknownScore is used when a category has no base score entry.
	UnknownScore float64 `yaml:"unknown_score"`
}

// DefaultTables returns the recommended attribution tables.
func DefaultTables() *Tables {
	return &Tables{
		Sources: map[string]SourceInfo{
			// Paid channels
			"google_ads":  {Category: "paid", Subcategory: "search"},
			"facebook":    {Category: "paid", Subcategory: "social"},
			"linkedin":    {Category: "paid", Subcategory: "social"},
			"bing_ads":    {Category: "paid", Subcategory: "search"},
			"twitter_ads": {Category: "paid", Subcategory: "social"},

			// Organic search
			"google": {Category: "organic", Subcategory: "search"},
			"bing":   {Category: "organic", Subcategory: "search"},
			"yahoo":  {Category: "organic", Subcategory: "search"},

			// Social
			"twitter":   {Category: "social", Subcategory: "organic"},
			"instagram": {Category: "social", Subcategory: "organic"},
			"tiktok":    {Category: "social", Subcategory: "organic"},

			// Email
			"email":      {Category: "email", Subcategory: "campaign"},
			"newsletter": {Category: "email", Subcategory: "newsletter"},

			// Referral
			"referral":  {Category: "referral", Subcategory: "partner"},
			"affiliate": {Category: "referral", Subcategory: "affiliate"},

			// Direct
			"direct":  {Category: "direct", Subcategory: "direct"},
			"website": {Category: "direct", Subcategory: "website"},

			// Content
			"blog":  {Category: "content", Subcategory: "blog"},
			"ebook": {Category: "content", Subcategory: "download"},

			// Events
			"event":     {Category: "event", Subcategory: "conference"},
			"tradeshow": {Category: "event", Subcategory: "tradeshow"},
			"webinar":   {Category: "event", Subcategory: "webinar"},

			// High-intent forms
			"demo_request":  {Category: "event", Subcategory: "demo"},
			"hubspot":       {Category: "form", Subcategory: "cms"},
			"typeform":      {Category: "form", Subcategory: "survey"},
			"calendly":      {Category: "form", Subcategory: "booking"},
			"webflow":       {Category: "form", Subcategory: "website"},
			"contact_sales": {Category: "form", Subcategory: "sales"},
		},
		BaseScores: map[string]float64{
			"paid":     0.7,
			"organic":  0.8,
			"referral": 0.9,
			"email":    0.6,
			"social":   0.5,
			"direct":   0.8,
			"content":  0.7,
			"event":    0.9,
			"form":     0.6,
			"unknown":  0.3,
		},
		UnknownScore: 0.5,
	}
}

// LeadFields is the subset of lead attributes attribution needs.
type LeadFields struct {
	Source    string
	FirstName string
	LastName  string
	Company   string
	Phone     string
	UTM       map[string]string
}

// Service analyzes lead sources against the configured tables.
type Service struct {
	tables *Tables
}

// NewService creates an attribution service. A nil tables argument uses the
// recommended defaults.
func NewService(tables *Tables) *Service {
	if tables == nil {
		tables = DefaultTables()
	}
	return &Service{tables: tables}
}

// Categorize resolves a source string into a category and subcategory,
// falling back to UTM medium/source hints when the source is unmapped.
func (s *Service) Categorize(source string, utm map[string]string) SourceInfo {
	if info, ok := s.tables.Sources[strings.ToLower(source)]; ok {
		return info
	}

	medium := strings.ToLower(utm["utm_medium"])
	utmSource := strings.ToLower(utm["utm_source"])

	switch medium {
	case "cpc", "ppc", "paid":
		return SourceInfo{Category: "paid", Subcategory: "search"}
	case "social", "social-media":
		paidSocial := utmSource == "facebook" || utmSource == "linkedin" ||
			utmSource == "twitter" || utmSource == "instagram"
		if paidSocial {
			return SourceInfo{Category: "paid", Subcategory: "social"}
		}
		return SourceInfo{Category: "social", Subcategory: "social"}
	case "email":
		return SourceInfo{Category: "email", Subcategory: "campaign"}
	case "referral":
		return SourceInfo{Category: "referral", Subcategory: "partner"}
	case "organic":
		return SourceInfo{Category: "organic", Subcategory: "search"}
	}

	return SourceInfo{Category: "unknown", Subcategory: source}
}

// QualityScore computes the source quality in [0,1]: the category base score
// plus small additive bonuses for contact and campaign richness.
func (s *Service) QualityScore(lead LeadFields) float64 {
	info := s.Categorize(lead.Source, lead.UTM)

	score, ok := s.tables.BaseScores[info.Category]
	if !ok {
		score = s.tables.UnknownScore
	}

	if lead.FirstName != "" {
		score += 0.1
	}
	if lead.LastName != "" {
		score += 0.1
	}
	if lead.Company != "" {
		score += 0.1
	}
	if lead.Phone != "" {
		score += 0.1
	}
	if lead.UTM["utm_campaign"] != "" {
		score += 0.05
	}
	if lead.UTM["utm_term"] != "" {
		score += 0.05
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}
