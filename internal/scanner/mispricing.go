package scanner

import (
	"fmt"
	"strings"

	"optionstracker/internal/models"
)

// MispricingRule compares the market mid against the model value and flags
// deviations beyond ±15%. It carries two opportunity types: overpriced when
// the market trades rich, underpriced when it trades cheap. direction picks
// which of the pair one instance reports.
type MispricingRule struct {
	Direction models.OpportunityType
}

func (r MispricingRule) Type() models.OpportunityType { return r.Direction }

func (r MispricingRule) Evaluate(in Input) *Match {
	if !liquidityGate(in) {
		return nil
	}
	if in.Theoretical == nil || *in.Theoretical <= 0 {
		return nil
	}
	if in.Mid <= 0 {
		return nil
	}

	deviation := (in.Mid - *in.Theoretical) / *in.Theoretical
	if abs(deviation) < 0.15 {
		return nil
	}
	matched := models.OpportunityUnderpriced
	action := "BUY"
	if deviation > 0 {
		matched = models.OpportunityOverpriced
		action = "SELL"
	}
	if matched != r.Direction {
		return nil
	}
	if in.Liquidity < 40 {
		return nil
	}

	score := 50.0
	score += capAt(abs(deviation)/0.30*30, 30)
	score += capAt(float64(in.Liquidity)/5, 20)

	desc := fmt.Sprintf(
		"MISPRICING (%s): %s %s $%.0f exp %s is %.1f%% %s. Market: $%.2f, Fair: $%.2f",
		action, in.Ticker, strings.ToUpper(string(in.Contract.Type)),
		in.Contract.Strike.InexactFloat64(), in.Contract.Expiry.Format("01/02"),
		abs(deviation)*100, matched, in.Mid, *in.Theoretical,
	)
	return &Match{
		Type:        matched,
		Score:       clampScore(score),
		Description: desc,
		Metrics: map[string]any{
			"market_price":      in.Mid,
			"theoretical_price": *in.Theoretical,
			"mispricing_pct":    deviation * 100,
			"liquidity_score":   in.Liquidity,
		},
	}
}
