package scanner

import (
	"fmt"
	"strings"

	"optionstracker/internal/models"
)

// HighTimeValueRule flags contracts whose premium is dominated by
// extrinsic value: rich decay to harvest for sellers willing to carry the
// position.
type HighTimeValueRule struct{}

func (HighTimeValueRule) Type() models.OpportunityType { return models.OpportunityHighTimeValue }

func (HighTimeValueRule) Evaluate(in Input) *Match {
	q := in.Quote
	if !liquidityGate(in) {
		return nil
	}
	if q.TimeValue == nil || in.Mid <= 0 {
		return nil
	}
	tvShare := *q.TimeValue / in.Mid
	if tvShare <= 0.60 {
		return nil
	}
	if in.DaysToExpiry < 14 || in.DaysToExpiry > 120 {
		return nil
	}

	score := 40.0
	score += capAt((tvShare-0.60)/0.40*30, 30)
	score += capAt(float64(in.Liquidity)/5, 20)
	if q.Theta != nil {
		score += capAt(abs(*q.Theta)/0.10*10, 10)
	}

	desc := fmt.Sprintf(
		"HIGH TIME VALUE: %s %s $%.0f exp %s (Time Value: $%.2f of $%.2f premium, %.0f%% extrinsic)",
		in.Ticker, strings.ToUpper(string(in.Contract.Type)),
		in.Contract.Strike.InexactFloat64(), in.Contract.Expiry.Format("01/02"),
		*q.TimeValue, in.Mid, tvShare*100,
	)
	return &Match{
		Type:        models.OpportunityHighTimeValue,
		Score:       clampScore(score),
		Description: desc,
		Metrics: map[string]any{
			"time_value":       *q.TimeValue,
			"mid":              in.Mid,
			"time_value_share": tvShare,
			"days_to_expiry":   in.DaysToExpiry,
		},
	}
}
