package scanner

import (
	"fmt"
	"strings"

	"optionstracker/internal/models"
)

// GammaScalpRule flags near-the-money short-dated contracts whose gamma is
// cheap relative to their theta bleed. Needs real depth: scalping means
// trading the hedge often, so the liquidity bar is higher than elsewhere.
type GammaScalpRule struct{}

func (GammaScalpRule) Type() models.OpportunityType { return models.OpportunityGammaScalp }

func (GammaScalpRule) Evaluate(in Input) *Match {
	q := in.Quote
	if !liquidityGate(in) {
		return nil
	}
	if q.Gamma == nil || q.Theta == nil || q.Delta == nil {
		return nil
	}
	gammaMag := abs(*q.Gamma)
	if gammaMag < 0.01 {
		return nil
	}
	if in.Spot <= 0 {
		return nil
	}

	strike := in.Contract.Strike.InexactFloat64()
	if strike <= 0 {
		return nil
	}
	moneyness := in.Spot / strike
	if in.Contract.Type == models.OptionPut {
		moneyness = strike / in.Spot
	}
	if moneyness < 0.90 || moneyness > 1.10 {
		return nil
	}
	if in.DaysToExpiry < 7 || in.DaysToExpiry > 45 {
		return nil
	}

	thetaMag := abs(*q.Theta)
	if thetaMag == 0 {
		return nil
	}
	gammaThetaRatio := gammaMag / thetaMag
	if gammaThetaRatio < 0.5 {
		return nil
	}
	if in.Liquidity < 50 {
		return nil
	}

	score := 45.0
	score += capAt(gammaMag/0.05*20, 20)
	atmDistance := abs(1.0 - moneyness)
	if ms := 15 * (1 - atmDistance/0.10); ms > 0 {
		score += ms
	}
	score += capAt(gammaThetaRatio/2.0*10, 10)
	score += capAt(float64(in.Liquidity)/10, 10)

	desc := fmt.Sprintf(
		"GAMMA SCALP: %s %s $%.0f exp %s (Gamma: %.3f, G/T Ratio: %.1f, Stock: $%.2f, Moneyness: %.2f)",
		in.Ticker, strings.ToUpper(string(in.Contract.Type)),
		strike, in.Contract.Expiry.Format("01/02"),
		gammaMag, gammaThetaRatio, in.Spot, moneyness,
	)
	return &Match{
		Type:        models.OpportunityGammaScalp,
		Score:       clampScore(score),
		Description: desc,
		Metrics: map[string]any{
			"gamma":             *q.Gamma,
			"theta":             *q.Theta,
			"gamma_theta_ratio": gammaThetaRatio,
			"moneyness":         moneyness,
			"days_to_expiry":    in.DaysToExpiry,
			"liquidity_score":   in.Liquidity,
		},
	}
}
