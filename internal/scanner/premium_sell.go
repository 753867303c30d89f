package scanner

import (
	"fmt"
	"strings"

	"optionstracker/internal/models"
)

// PremiumSellRule flags credit-strategy setups: elevated IV rank with
// meaningful time decay working for the seller. Covered calls, cash-secured
// puts, credit spreads.
type PremiumSellRule struct{}

func (PremiumSellRule) Type() models.OpportunityType { return models.OpportunityPremiumSell }

func (PremiumSellRule) Evaluate(in Input) *Match {
	q := in.Quote
	if !liquidityGate(in) || in.Analysis == nil {
		return nil
	}
	if in.Analysis.IVRank < 60 {
		return nil
	}
	if q.Theta == nil || q.Vega == nil || q.Delta == nil {
		return nil
	}

	thetaMag := abs(*q.Theta)
	if thetaMag < 0.02 {
		return nil
	}
	deltaMag := abs(*q.Delta)
	if deltaMag < 0.10 {
		return nil
	}
	if in.DaysToExpiry < 7 || in.DaysToExpiry > 90 {
		return nil
	}

	score := 40.0
	if in.Analysis.IVRank >= 80 {
		score += 25
	} else {
		score += 15 * (in.Analysis.IVRank - 60) / 20
	}
	score += capAt(thetaMag/0.10*15, 15)
	if *q.Vega > 0.20 {
		score += 10
	} else if *q.Vega > 0.10 {
		score += 5
	}
	score += capAt(float64(in.Liquidity)/10, 10)

	desc := fmt.Sprintf(
		"PREMIUM SELL: %s %s $%.0f exp %s (IV Rank: %.0f%%, Theta: $%.3f/day, Premium: $%.2f, Delta: %.2f)",
		in.Ticker, strings.ToUpper(string(in.Contract.Type)),
		in.Contract.Strike.InexactFloat64(), in.Contract.Expiry.Format("01/02"),
		in.Analysis.IVRank, thetaMag, in.Mid, deltaMag,
	)
	return &Match{
		Type:        models.OpportunityPremiumSell,
		Score:       clampScore(score),
		Description: desc,
		Metrics: map[string]any{
			"iv_rank":        in.Analysis.IVRank,
			"theta":          *q.Theta,
			"vega":           *q.Vega,
			"delta":          *q.Delta,
			"premium":        in.Mid,
			"days_to_expiry": in.DaysToExpiry,
		},
	}
}
