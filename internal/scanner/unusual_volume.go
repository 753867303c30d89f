package scanner

import (
	"fmt"
	"strings"

	"optionstracker/internal/models"
)

// UnusualVolumeRule flags session volume far above resting open interest,
// the classic footprint of new positioning rather than churn.
type UnusualVolumeRule struct{}

func (UnusualVolumeRule) Type() models.OpportunityType { return models.OpportunityUnusualVolume }

func (UnusualVolumeRule) Evaluate(in Input) *Match {
	q := in.Quote
	if !liquidityGate(in) {
		return nil
	}
	if q.Volume < 100 || q.OpenInterest <= 0 {
		return nil
	}
	ratio := float64(q.Volume) / float64(q.OpenInterest)
	if ratio <= 5 {
		return nil
	}

	score := 45.0
	score += capAt((ratio-5)/15*25, 25)
	score += capAt(float64(in.Liquidity)/5, 20)

	desc := fmt.Sprintf(
		"UNUSUAL VOLUME: %s %s $%.0f exp %s (Volume: %d, OI: %d, Ratio: %.1fx)",
		in.Ticker, strings.ToUpper(string(in.Contract.Type)),
		in.Contract.Strike.InexactFloat64(), in.Contract.Expiry.Format("01/02"),
		q.Volume, q.OpenInterest, ratio,
	)
	return &Match{
		Type:        models.OpportunityUnusualVolume,
		Score:       clampScore(score),
		Description: desc,
		Metrics: map[string]any{
			"volume":          q.Volume,
			"open_interest":   q.OpenInterest,
			"volume_oi_ratio": ratio,
		},
	}
}
