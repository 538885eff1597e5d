package scoring

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/aida/autonomy/internal/attribution"
	"github.com/aida/autonomy/internal/decision"
	"github.com/aida/autonomy/internal/history"
	"github.com/aida/autonomy/internal/oracle"
)

// Clock supplies the wall-clock time for timing-sensitive scorers. Injected
// so decisions are reproducible under test.
type Clock func() time.Time

// Set computes every dimension relevant to a decision type. It owns the
// read-only scorer dependencies; a single Set is safe for concurrent use.
type Set struct {
	tables      *Tables
	attribution *attribution.Service
	oracle      oracle.Oracle
	patterns    history.PatternStore
	records     history.RecordCounter
	now         Clock
}

// NewSet builds a scorer set. A nil tables argument uses defaults; a nil
// clock uses time.Now.
func NewSet(
	tables *Tables,
	attr *attribution.Service,
	orc oracle.Oracle,
	patterns history.PatternStore,
	records history.RecordCounter,
	now Clock,
) *Set {
	if tables == nil {
		tables = DefaultTables()
	}
	if attr == nil {
		attr = attribution.NewService(nil)
	}
	if now == nil {
		now = time.Now
	}
	return &Set{
		tables:      tables,
		attribution: attr,
		oracle:      orc,
		patterns:    patterns,
		records:     records,
		now:         now,
	}
}

// Tables exposes the scoring tables for the confidence stage.
func (s *Set) Tables() *Tables { return s.tables }

// Dimensions produces the dimension map for one decision, plus the
// historical-pattern summary consumed by the confidence estimator. External
// scorer failures are substituted, never propagated.
func (s *Set) Dimensions(ctx context.Context, dt decision.Type, dc *decision.Context) (map[string]Score, history.PatternSummary) {
	dims := make(map[string]Score)
	patterns := s.historicalPatterns(ctx, dt, dc)

	switch dt {
	case decision.TypeLeadQualification:
		dims[DimAISemantic] = s.aiSemantic(ctx, dc)
		dims[DimCompleteness] = s.completeness(dc)
		dims[DimSourceQuality] = s.sourceQuality(dc)
		dims[DimDemographicFit] = s.demographicFit(dc)
		dims[DimIntent] = s.behavioralIntent(dc)
		dims[DimFirmographic] = s.firmographic(dc)
		dims[DimUrgency] = s.urgency(dc)

	case decision.TypeDealProgression:
		dims[DimReadiness] = s.progressionReadiness(ctx, dc)
		dims[DimCompleteness] = s.completeness(dc)
		dims[DimUrgency] = s.urgency(dc)
		dims[DimAISemantic] = s.aiSemantic(ctx, dc)
		dims[DimHistorical] = Ok(patterns.SuccessRate)

	case decision.TypeCommunicationSend:
		dims[DimContentQuality] = s.contentQuality(ctx, dc)
		dims[DimTiming] = s.timing(dc)
		dims[DimPersonal] = s.personalization(dc)
		dims[DimCompleteness] = s.completeness(dc)
		dims[DimHistorical] = Ok(patterns.SuccessRate)

	case decision.TypeValueUpdate:
		dims[DimCompleteness] = s.completeness(dc)
		dims[DimHistorical] = Ok(patterns.SuccessRate)
		dims[DimUrgency] = s.urgency(dc)
	}

	return dims, patterns
}

// completeness scores the fraction of required, important, and optional
// fields present. Required fields share 0.5 of the score, important 0.3,
// optional 0.1, plus a bonus for a rich campaign-tracking set.
func (s *Set) completeness(dc *decision.Context) Score {
	var score float64

	if n := len(s.tables.RequiredFields); n > 0 {
		for _, f := range s.tables.RequiredFields {
			if dc.Has(f) {
				score += 0.5 / float64(n)
			}
		}
	}
	if n := len(s.tables.ImportantFields); n > 0 {
		for _, f := range s.tables.ImportantFields {
			if dc.Has(f) {
				score += 0.3 / float64(n)
			}
		}
	}
	if n := len(s.tables.OptionalFields); n > 0 {
		for _, f := range s.tables.OptionalFields {
			if dc.Has(f) {
				score += 0.1 / float64(n)
			}
		}
	}

	if len(dc.StringMap("utm_params")) >= 3 {
		score += 0.1
	}

	return Ok(score)
}

func (s *Set) sourceQuality(dc *decision.Context) Score {
	return Ok(s.attribution.QualityScore(attribution.LeadFields{
		Source:    dc.String("source"),
		FirstName: dc.String("first_name"),
		LastName:  dc.String("last_name"),
		Company:   dc.String("company"),
		Phone:     dc.String("phone"),
		UTM:       dc.StringMap("utm_params"),
	}))
}

func (s *Set) demographicFit(dc *decision.Context) Score {
	score := 0.5

	if email := dc.String("email"); email != "" {
		domain := strings.ToLower(email[strings.LastIndex(email, "@")+1:])

		for _, tld := range []string{".com", ".org", ".net"} {
			if strings.HasSuffix(domain, tld) {
				score += 0.1
				break
			}
		}

		free := false
		for _, p := range s.tables.FreeEmailProviders {
			if domain == p {
				free = true
				break
			}
		}
		if free {
			score -= 0.1
		} else if strings.Contains(domain, ".") {
			score += 0.2
		}
	}

	if dc.Has("first_name") && dc.Has("last_name") {
		score += 0.1
	}
	if company := dc.String("company"); len(company) > 2 {
		score += 0.2
	}

	return Ok(Clamp01(score))
}

func (s *Set) behavioralIntent(dc *decision.Context) Score {
	score := 0.5

	utm := dc.StringMap("utm_params")
	haystack := strings.ToLower(utm["utm_campaign"] + " " + utm["utm_term"] + " " + utm["utm_content"])

	if containsAny(haystack, s.tables.HighIntentKeywords) {
		score += 0.3
	}
	if containsAny(haystack, s.tables.MediumIntentKeywords) {
		score += 0.1
	}

	switch strings.ToLower(dc.String("source")) {
	case "demo_request", "pricing_page", "contact_sales":
		score += 0.3
	case "newsletter", "blog", "content_download":
		score += 0.1
	}

	if fields, ok := dc.Get("custom_fields"); ok {
		blob := strings.ToLower(stringify(fields))
		if containsAny(blob, []string{"budget", "timeline", "decision"}) {
			score += 0.2
		}
	}

	return Ok(Clamp01(score))
}

func (s *Set) firmographic(dc *decision.Context) Score {
	company := strings.ToLower(dc.String("company"))
	if company == "" {
		return Ok(0.3)
	}

	score := 0.5
	if len(company) >= 3 {
		score += 0.1
	}
	if containsAny(company, s.tables.IndustryIndicators) {
		score += 0.2
	}
	if containsAny(company, s.tables.SizeIndicators) {
		score += 0.1
	}

	return Ok(score)
}

func (s *Set) urgency(dc *decision.Context) Score {
	score := 0.5

	hour := s.now().Hour()
	if hour >= 9 && hour <= 17 {
		score += 0.1
	}

	source := strings.ToLower(dc.String("source"))
	for _, u := range s.tables.UrgentSources {
		if source == u {
			score += 0.3
			break
		}
	}

	campaign := strings.ToLower(dc.String("campaign"))
	if containsAny(campaign, s.tables.UrgentKeywords) {
		score += 0.2
	}

	return Ok(Clamp01(score))
}

// aiSemantic delegates to the scoring oracle. Oracle failures substitute the
// neutral default and lower implied confidence.
func (s *Set) aiSemantic(ctx context.Context, dc *decision.Context) Score {
	if s.oracle == nil {
		return Unavailable()
	}
	score, err := s.oracle.Qualify(ctx, dc)
	if err != nil {
		slog.Warn("AI scoring failed, substituting neutral", "context_id", dc.ID(), "error", err)
		return Unavailable()
	}
	return Ok(score)
}

func (s *Set) historicalPatterns(ctx context.Context, dt decision.Type, dc *decision.Context) history.PatternSummary {
	if s.patterns == nil {
		return history.Neutral()
	}
	summary, err := s.patterns.HistoricalPatterns(ctx, dt, dc)
	if err != nil {
		slog.Warn("historical pattern lookup failed, substituting neutral",
			"decision_type", dt, "error", err)
		return history.Neutral()
	}
	return summary
}

// progressionReadiness scores how ready a deal is to advance. An explicit
// progression_readiness attribute wins; otherwise readiness blends stage
// velocity with communication frequency.
func (s *Set) progressionReadiness(ctx context.Context, dc *decision.Context) Score {
	if v, ok := dc.Float("progression_readiness"); ok {
		return Ok(v)
	}

	velocity := 0.5
	if v, ok := dc.Float("stage_velocity"); ok {
		velocity = Clamp01(v)
	}

	frequency := 0.3
	if s.records != nil {
		count, err := s.records.CommunicationCount(ctx, dc.ID())
		if err != nil {
			slog.Warn("communication count lookup failed", "subject_id", dc.ID(), "error", err)
		} else {
			frequency = Clamp01(float64(count) / 10)
		}
	}

	return Ok(velocity*0.6 + frequency*0.4)
}

// contentQuality prefers an explicit content_quality attribute; otherwise it
// asks the oracle's intent analysis.
func (s *Set) contentQuality(ctx context.Context, dc *decision.Context) Score {
	if v, ok := dc.Float("content_quality"); ok {
		return Ok(v)
	}
	if s.oracle == nil {
		return Unavailable()
	}
	analysis, err := s.oracle.AnalyzeIntent(ctx, dc)
	if err != nil {
		slog.Warn("content analysis failed, substituting neutral", "context_id", dc.ID(), "error", err)
		return Unavailable()
	}
	return Ok(analysis.IntentScore)
}

func (s *Set) timing(dc *decision.Context) Score {
	hour := s.now().Hour()
	switch {
	case hour >= 9 && hour <= 17:
		return Ok(0.8)
	case hour >= 8 && hour <= 19:
		return Ok(0.6)
	default:
		return Ok(0.3)
	}
}

func (s *Set) personalization(dc *decision.Context) Score {
	data, ok := dc.Get("personalization_data")
	if !ok {
		return Ok(0.3)
	}

	m, ok := data.(map[string]any)
	if !ok || len(m) == 0 {
		return Ok(0.3)
	}

	var present int
	for _, v := range m {
		if v != nil {
			if s, isStr := v.(string); isStr && s == "" {
				continue
			}
			present++
		}
	}

	// Five populated elements counts as fully personalized.
	return Ok(Clamp01(float64(present) / 5))
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		var b strings.Builder
		for k, val := range t {
			b.WriteString(k)
			b.WriteString(" ")
			b.WriteString(stringify(val))
			b.WriteString(" ")
		}
		return b.String()
	case map[string]string:
		var b strings.Builder
		for k, val := range t {
			b.WriteString(k)
			b.WriteString(" ")
			b.WriteString(val)
			b.WriteString(" ")
		}
		return b.String()
	default:
		return ""
	}
}
