package scanner

import (
	"fmt"
	"strings"

	"optionstracker/internal/models"
)

// PremiumBuyRule flags debit-strategy setups: depressed IV rank with vega to
// gain from an expansion and tolerable decay cost. Long calls/puts, debit
// spreads, calendars.
type PremiumBuyRule struct{}

func (PremiumBuyRule) Type() models.OpportunityType { return models.OpportunityPremiumBuy }

func (PremiumBuyRule) Evaluate(in Input) *Match {
	q := in.Quote
	if !liquidityGate(in) || in.Analysis == nil {
		return nil
	}
	if in.Analysis.IVRank > 40 {
		return nil
	}
	if q.Theta == nil || q.Vega == nil || q.Delta == nil {
		return nil
	}
	if *q.Vega < 0.05 {
		return nil
	}
	if in.DaysToExpiry < 20 || in.DaysToExpiry > 120 {
		return nil
	}

	thetaMag := abs(*q.Theta)

	score := 40.0
	if in.Analysis.IVRank <= 20 {
		score += 25
	} else {
		score += 15 * (40 - in.Analysis.IVRank) / 20
	}
	score += capAt(*q.Vega/0.30*15, 15)
	if thetaMag < 0.02 {
		score += 10
	} else if thetaMag < 0.05 {
		score += 5
	}
	score += capAt(float64(in.Liquidity)/10, 10)

	desc := fmt.Sprintf(
		"PREMIUM BUY: %s %s $%.0f exp %s (IV Rank: %.0f%%, Vega: %.2f, Cost: $%.2f, Delta: %.2f)",
		in.Ticker, strings.ToUpper(string(in.Contract.Type)),
		in.Contract.Strike.InexactFloat64(), in.Contract.Expiry.Format("01/02"),
		in.Analysis.IVRank, *q.Vega, in.Mid, abs(*q.Delta),
	)
	return &Match{
		Type:        models.OpportunityPremiumBuy,
		Score:       clampScore(score),
		Description: desc,
		Metrics: map[string]any{
			"iv_rank":        in.Analysis.IVRank,
			"theta":          *q.Theta,
			"vega":           *q.Vega,
			"delta":          *q.Delta,
			"cost":           in.Mid,
			"days_to_expiry": in.DaysToExpiry,
		},
	}
}
