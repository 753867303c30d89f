package scanner

import (
	"go.uber.org/zap"

	"optionstracker/internal/config"
	"optionstracker/internal/models"
)

// Engine runs the closed rule set over snapshots and keeps only matches at
// or above the configured minimum score. Contract rules run once per
// contract; symbol rules run once per symbol after the chain pass.
type Engine struct {
	contractRules   []Rule
	symbolRules     []Rule
	minScore        float64
	minVolume       int64
	minOpenInterest int64
	logger          *zap.Logger
}

func NewEngine(cfg config.ScannerConfig, logger *zap.Logger) *Engine {
	return &Engine{
		contractRules: []Rule{
			PremiumSellRule{},
			PremiumBuyRule{},
			GammaScalpRule{},
			MispricingRule{Direction: models.OpportunityOverpriced},
			MispricingRule{Direction: models.OpportunityUnderpriced},
			HighDeltaRule{},
			UnusualVolumeRule{},
			HighTimeValueRule{},
		},
		symbolRules: []Rule{
			HighIVRule{},
			LowIVRule{},
		},
		minScore:        cfg.MinScore,
		minVolume:       cfg.MinVolume,
		minOpenInterest: cfg.MinOpenInterest,
		logger:          logger.Named("scanner"),
	}
}

// ScanContract evaluates every contract-level rule against one snapshot.
func (e *Engine) ScanContract(in Input) []Match {
	return e.run(e.contractRules, in)
}

// ScanSymbol evaluates the symbol-level rules. Input carries the symbol's
// analysis and the best liquidity score observed across its chain; Contract
// and Quote are nil.
func (e *Engine) ScanSymbol(in Input) []Match {
	return e.run(e.symbolRules, in)
}

func (e *Engine) run(rules []Rule, in Input) []Match {
	in.MinVolume = e.minVolume
	in.MinOpenInterest = e.minOpenInterest
	var matches []Match
	for _, rule := range rules {
		m := rule.Evaluate(in)
		if m == nil {
			continue
		}
		if m.Score < e.minScore {
			e.logger.Debug("match below minimum score",
				zap.String("type", string(m.Type)),
				zap.Float64("score", m.Score))
			continue
		}
		matches = append(matches, *m)
	}
	return matches
}
