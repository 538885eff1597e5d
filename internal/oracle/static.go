package oracle

import (
	"context"

	"github.com/aida/autonomy/internal/decision"
)

// StaticOracle returns fixed values. Used in tests and when no oracle is
// configured.
type StaticOracle struct {
	Score  float64
	Intent IntentAnalysis
	Err    error
}

// NewStaticOracle returns an oracle that always scores s.
func NewStaticOracle(s float64) *StaticOracle {
	return &StaticOracle{Score: s, Intent: NeutralIntent()}
}

func (o *StaticOracle) Qualify(ctx context.Context, dc *decision.Context) (float64, error) {
	if o.Err != nil {
		return 0, o.Err
	}
	return o.Score, nil
}

func (o *StaticOracle) AnalyzeIntent(ctx context.Context, dc *decision.Context) (IntentAnalysis, error) {
	if o.Err != nil {
		return IntentAnalysis{}, o.Err
	}
	return o.Intent, nil
}

var _ Oracle = (*StaticOracle)(nil)
