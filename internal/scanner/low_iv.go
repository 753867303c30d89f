package scanner

import (
	"fmt"

	"optionstracker/internal/models"
)

// LowIVRule mirrors HighIVRule at the bottom of the range: premium across
// the symbol's chain is historically cheap. Symbol-level, no contract ref.
type LowIVRule struct{}

func (LowIVRule) Type() models.OpportunityType { return models.OpportunityLowIV }

func (LowIVRule) Evaluate(in Input) *Match {
	a := in.Analysis
	if a == nil {
		return nil
	}
	if a.IVRank >= 15 || a.IVPercentile >= 10 {
		return nil
	}

	score := 50.0
	score += capAt((15-a.IVRank)/15*25, 25)
	score += capAt((10-a.IVPercentile)/10*15, 15)
	score += capAt(float64(in.Liquidity)/10, 10)

	desc := fmt.Sprintf(
		"LOW IV: %s implied volatility at extreme low (IV Rank: %.0f%%, Percentile: %.0f%%, IV: %.1f%%)",
		in.Ticker, a.IVRank, a.IVPercentile, a.CurrentIV*100,
	)
	return &Match{
		Type:        models.OpportunityLowIV,
		Score:       clampScore(score),
		Description: desc,
		Metrics: map[string]any{
			"iv_rank":       a.IVRank,
			"iv_percentile": a.IVPercentile,
			"current_iv":    a.CurrentIV,
		},
	}
}
