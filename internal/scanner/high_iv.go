package scanner

import (
	"fmt"

	"optionstracker/internal/models"
)

// HighIVRule is a symbol-level signal: implied volatility sits at the very
// top of its own one-year range. It carries no contract reference; Input
// holds the symbol's analysis and the best liquidity score seen across the
// symbol's chain.
type HighIVRule struct{}

func (HighIVRule) Type() models.OpportunityType { return models.OpportunityHighIV }

func (HighIVRule) Evaluate(in Input) *Match {
	a := in.Analysis
	if a == nil {
		return nil
	}
	if a.IVRank <= 85 || a.IVPercentile <= 90 {
		return nil
	}

	score := 50.0
	score += capAt((a.IVRank-85)/15*25, 25)
	score += capAt((a.IVPercentile-90)/10*15, 15)
	score += capAt(float64(in.Liquidity)/10, 10)

	desc := fmt.Sprintf(
		"HIGH IV: %s implied volatility at extreme (IV Rank: %.0f%%, Percentile: %.0f%%, IV: %.1f%%)",
		in.Ticker, a.IVRank, a.IVPercentile, a.CurrentIV*100,
	)
	return &Match{
		Type:        models.OpportunityHighIV,
		Score:       clampScore(score),
		Description: desc,
		Metrics: map[string]any{
			"iv_rank":       a.IVRank,
			"iv_percentile": a.IVPercentile,
			"current_iv":    a.CurrentIV,
		},
	}
}
