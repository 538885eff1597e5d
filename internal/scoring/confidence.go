package scoring

import (
	"math"
	"strings"

	"github.com/aida/autonomy/internal/decision"
	"github.com/aida/autonomy/internal/history"
)

// variancePenaltyCap bounds how much dimension disagreement can cost.
const variancePenaltyCap = 0.3

// reliableSourceBonus rewards decisions originating from a known-good source.
const reliableSourceBonus = 0.1

// Confidence estimates how trustworthy a composite score is, independent of
// its magnitude. Base confidence comes from the data-completeness dimension,
// penalized by the standard deviation across all dimensions (high
// disagreement lowers confidence), raised for reliable sources, and blended
// with the historical-pattern confidence at a fixed weight.
//
// The result is clamped to [0.1, 1.0] — confidence is never exactly zero, so
// no subject can become permanently unblockable by automation.
func (s *Set) Confidence(dims map[string]Score, patterns history.PatternSummary, dc *decision.Context) float64 {
	base := 0.5
	if completeness, ok := dims[DimCompleteness]; ok {
		base = completeness.Value
	}

	if penalty := stddev(dims); penalty > 0 {
		base -= math.Min(penalty, variancePenaltyCap)
	}

	// Unavailable external scores imply lower trust in the overall read.
	for _, score := range dims {
		if !score.OK {
			base -= 0.05
		}
	}

	source := strings.ToLower(dc.String("source"))
	for _, reliable := range s.tables.ReliableSources {
		if source == reliable {
			base += reliableSourceBonus
			break
		}
	}

	blend := s.tables.HistoricalBlend
	confidence := base*(1-blend) + patterns.Confidence*blend

	return Clamp(confidence, 0.1, 1.0)
}

// stddev computes the population standard deviation across dimension values.
// Fewer than two dimensions means no disagreement to penalize.
func stddev(dims map[string]Score) float64 {
	if len(dims) < 2 {
		return 0
	}

	var sum float64
	for _, s := range dims {
		sum += s.Value
	}
	mean := sum / float64(len(dims))

	var sq float64
	for _, s := range dims {
		d := s.Value - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(dims)))
}
