package scanner

import (
	"fmt"
	"strings"

	"optionstracker/internal/models"
)

// HighDeltaRule flags stock-replacement candidates: deep-delta contracts
// whose decay cost is small next to their directional exposure.
type HighDeltaRule struct{}

func (HighDeltaRule) Type() models.OpportunityType { return models.OpportunityHighDelta }

func (HighDeltaRule) Evaluate(in Input) *Match {
	q := in.Quote
	if !liquidityGate(in) {
		return nil
	}
	if q.Delta == nil || q.Theta == nil {
		return nil
	}
	deltaMag := abs(*q.Delta)
	if deltaMag < 0.65 {
		return nil
	}
	if in.DaysToExpiry < 20 || in.DaysToExpiry > 180 {
		return nil
	}
	if in.Liquidity < 30 {
		return nil
	}

	thetaMag := abs(*q.Theta)
	deltaThetaRatio := 0.0
	if thetaMag > 0 {
		deltaThetaRatio = deltaMag / thetaMag
	}

	score := 45.0
	score += capAt((deltaMag-0.65)/0.35*20, 20)
	switch {
	case deltaThetaRatio > 15:
		score += 15
	case deltaThetaRatio > 10:
		score += 10
	case deltaThetaRatio > 5:
		score += 5
	}
	score += capAt(float64(in.Liquidity)/10, 10)

	// Deep ITM bonus: intrinsic share of the premium.
	strike := in.Contract.Strike.InexactFloat64()
	intrinsic := in.Spot - strike
	if in.Contract.Type == models.OptionPut {
		intrinsic = strike - in.Spot
	}
	if intrinsic > 0 && in.Mid > 0 {
		itmShare := intrinsic / in.Mid
		if itmShare > 0.7 {
			score += 10
		} else if itmShare > 0.5 {
			score += 5
		}
	}

	desc := fmt.Sprintf(
		"HIGH DELTA: %s %s $%.0f exp %s (Delta: %.2f, D/T: %.1f, Stock: $%.2f)",
		in.Ticker, strings.ToUpper(string(in.Contract.Type)),
		strike, in.Contract.Expiry.Format("01/02"),
		deltaMag, deltaThetaRatio, in.Spot,
	)
	return &Match{
		Type:        models.OpportunityHighDelta,
		Score:       clampScore(score),
		Description: desc,
		Metrics: map[string]any{
			"delta":             *q.Delta,
			"theta":             *q.Theta,
			"delta_theta_ratio": deltaThetaRatio,
			"days_to_expiry":    in.DaysToExpiry,
		},
	}
}
