package scanner

import (
	"optionstracker/internal/models"
)

// Input is the snapshot a rule evaluates: the contract, its latest quote,
// the symbol's volatility analysis, and values the service derives once per
// contract. Analysis and Theoretical may be nil when unavailable.
type Input struct {
	Ticker       string
	Contract     *models.OptionContract
	Quote        *models.OptionQuote
	Analysis     *models.VolatilityAnalysis
	Liquidity    int
	Spot         float64
	Theoretical  *float64
	Mid          float64
	DaysToExpiry float64

	// Gate floors, stamped by the engine from its config. Zero values fall
	// back to the package defaults.
	MinVolume       int64
	MinOpenInterest int64
}

// Match is one scored rule hit. Score is already clamped to [0,100].
type Match struct {
	Type        models.OpportunityType
	Score       float64
	Description string
	Metrics     map[string]any
}

// Rule inspects one contract snapshot and reports a match or nil. Rules are
// pure: no storage access, no shared state.
type Rule interface {
	Type() models.OpportunityType
	Evaluate(in Input) *Match
}

const (
	minGateVolume       = 10
	minGateOpenInterest = 50
)

// liquidityGate is the universal floor every rule applies before its own
// criteria: thinner contracts are not actionable at any score.
func liquidityGate(in Input) bool {
	q := in.Quote
	if q == nil {
		return false
	}
	minVol := in.MinVolume
	if minVol <= 0 {
		minVol = minGateVolume
	}
	minOI := in.MinOpenInterest
	if minOI <= 0 {
		minOI = minGateOpenInterest
	}
	return q.Volume > minVol && q.OpenInterest > minOI
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func capAt(v, max float64) float64 {
	if v > max {
		return max
	}
	return v
}
