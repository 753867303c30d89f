package scanner

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"optionstracker/internal/config"
	"optionstracker/internal/models"
)

func fptr(v float64) *float64 { return &v }

func callContract(strike float64, dte int) *models.OptionContract {
	return &models.OptionContract{
		ID:             1,
		SymbolID:       1,
		ContractSymbol: "AAPL240920C00150000",
		Strike:         decimal.NewFromFloat(strike),
		Expiry:         time.Now().AddDate(0, 0, dte),
		Type:           models.OptionCall,
		Style:          models.ExerciseAmerican,
	}
}

func liquidQuote() *models.OptionQuote {
	return &models.OptionQuote{
		Bid:          decimal.NewFromFloat(5.0),
		Ask:          decimal.NewFromFloat(5.2),
		Last:         decimal.NewFromFloat(5.1),
		Volume:       150,
		OpenInterest: 1200,
		SpreadPct:    fptr(0.039),
	}
}

func TestPremiumSellDeepInTheRankWindow(t *testing.T) {
	q := liquidQuote()
	q.Delta = fptr(0.35)
	q.Theta = fptr(-0.05)
	q.Vega = fptr(0.25)
	q.ImpliedVolatility = fptr(0.62)
	q.GreeksFrom = models.GreeksProvider

	in := Input{
		Ticker:       "AAPL",
		Contract:     callContract(150, 30),
		Quote:        q,
		Analysis:     &models.VolatilityAnalysis{CurrentIV: 0.62, IVRank: 85, IVPercentile: 92},
		Liquidity:    100,
		Spot:         148.3,
		Mid:          5.1,
		DaysToExpiry: 30,
	}
	m := PremiumSellRule{}.Evaluate(in)
	if m == nil {
		t.Fatal("expected premium sell match")
	}
	if m.Score < 65 {
		t.Fatalf("score = %v, want >= 65 for a high-rank liquid setup", m.Score)
	}
	if m.Score > 100 {
		t.Fatalf("score = %v, exceeds clamp", m.Score)
	}
	if !strings.HasPrefix(m.Description, "PREMIUM SELL: AAPL CALL $150") {
		t.Fatalf("unexpected description: %s", m.Description)
	}
	if m.Metrics["iv_rank"] != 85.0 {
		t.Fatalf("metrics iv_rank = %v", m.Metrics["iv_rank"])
	}
}

func TestPremiumSellGates(t *testing.T) {
	base := func() Input {
		q := liquidQuote()
		q.Delta = fptr(0.35)
		q.Theta = fptr(-0.05)
		q.Vega = fptr(0.25)
		return Input{
			Ticker:       "AAPL",
			Contract:     callContract(150, 30),
			Quote:        q,
			Analysis:     &models.VolatilityAnalysis{IVRank: 75},
			Liquidity:    80,
			Spot:         148,
			Mid:          5.1,
			DaysToExpiry: 30,
		}
	}

	if m := (PremiumSellRule{}).Evaluate(base()); m == nil {
		t.Fatal("baseline should match")
	}

	in := base()
	in.Analysis.IVRank = 59
	if m := (PremiumSellRule{}).Evaluate(in); m != nil {
		t.Fatal("IV rank below 60 must not match")
	}

	in = base()
	in.Quote.Theta = fptr(-0.01)
	if m := (PremiumSellRule{}).Evaluate(in); m != nil {
		t.Fatal("negligible theta must not match")
	}

	in = base()
	in.Quote.Delta = fptr(0.05)
	if m := (PremiumSellRule{}).Evaluate(in); m != nil {
		t.Fatal("far OTM delta must not match")
	}

	in = base()
	in.DaysToExpiry = 120
	if m := (PremiumSellRule{}).Evaluate(in); m != nil {
		t.Fatal("expiry outside 7-90d window must not match")
	}

	in = base()
	in.Quote.Theta = nil
	if m := (PremiumSellRule{}).Evaluate(in); m != nil {
		t.Fatal("absent Greeks must not match")
	}

	in = base()
	in.Quote.Volume = 5
	if m := (PremiumSellRule{}).Evaluate(in); m != nil {
		t.Fatal("volume below universal gate must not match")
	}
}

func TestPremiumBuyLowRank(t *testing.T) {
	q := liquidQuote()
	q.Delta = fptr(0.45)
	q.Theta = fptr(-0.015)
	q.Vega = fptr(0.28)

	in := Input{
		Ticker:       "MSFT",
		Contract:     callContract(400, 60),
		Quote:        q,
		Analysis:     &models.VolatilityAnalysis{IVRank: 12},
		Liquidity:    90,
		Spot:         398,
		Mid:          5.1,
		DaysToExpiry: 60,
	}
	m := PremiumBuyRule{}.Evaluate(in)
	if m == nil {
		t.Fatal("expected premium buy match")
	}
	// 40 base + 25 (rank<=20) + 14 vega + 10 low theta + 9 liquidity.
	if m.Score < 90 || m.Score > 100 {
		t.Fatalf("score = %v, want high-conviction", m.Score)
	}

	in.Analysis.IVRank = 55
	if m := (PremiumBuyRule{}).Evaluate(in); m != nil {
		t.Fatal("IV rank above 40 must not match")
	}
}

func TestGammaScalpMoneynessWindow(t *testing.T) {
	q := liquidQuote()
	q.Delta = fptr(0.52)
	q.Gamma = fptr(0.06)
	q.Theta = fptr(-0.04)

	in := Input{
		Ticker:       "SPY",
		Contract:     callContract(500, 21),
		Quote:        q,
		Analysis:     &models.VolatilityAnalysis{IVRank: 50},
		Liquidity:    100,
		Spot:         502,
		Mid:          5.1,
		DaysToExpiry: 21,
	}
	m := GammaScalpRule{}.Evaluate(in)
	if m == nil {
		t.Fatal("expected gamma scalp match near ATM")
	}
	if m.Score > 100 {
		t.Fatalf("score = %v, exceeds clamp", m.Score)
	}

	in.Spot = 560 // moneyness 1.12
	if m := (GammaScalpRule{}).Evaluate(in); m != nil {
		t.Fatal("far from ATM must not match")
	}

	in.Spot = 502
	in.Liquidity = 45
	if m := (GammaScalpRule{}).Evaluate(in); m != nil {
		t.Fatal("liquidity below 50 must not match the stricter gate")
	}
}

func TestMispricingDirections(t *testing.T) {
	q := liquidQuote()
	in := Input{
		Ticker:       "TSLA",
		Contract:     callContract(250, 40),
		Quote:        q,
		Liquidity:    80,
		Spot:         248,
		Theoretical:  fptr(4.0),
		Mid:          5.1, // 27.5% rich
		DaysToExpiry: 40,
	}

	over := MispricingRule{Direction: models.OpportunityOverpriced}
	under := MispricingRule{Direction: models.OpportunityUnderpriced}

	m := over.Evaluate(in)
	if m == nil {
		t.Fatal("expected overpriced match")
	}
	if m.Type != models.OpportunityOverpriced {
		t.Fatalf("type = %s", m.Type)
	}
	if under.Evaluate(in) != nil {
		t.Fatal("underpriced rule must not fire on a rich contract")
	}

	in.Theoretical = fptr(7.0) // market 27% cheap
	if over.Evaluate(in) != nil {
		t.Fatal("overpriced rule must not fire on a cheap contract")
	}
	if under.Evaluate(in) == nil {
		t.Fatal("expected underpriced match")
	}

	in.Theoretical = fptr(5.0) // 2% off, inside threshold
	if over.Evaluate(in) != nil || under.Evaluate(in) != nil {
		t.Fatal("small deviation must not match")
	}

	in.Theoretical = nil
	if over.Evaluate(in) != nil {
		t.Fatal("missing theoretical price must not match")
	}
}

func TestHighDeltaStockReplacement(t *testing.T) {
	q := liquidQuote()
	q.Bid = decimal.NewFromFloat(52.0)
	q.Ask = decimal.NewFromFloat(52.6)
	q.Delta = fptr(0.88)
	q.Theta = fptr(-0.03)

	in := Input{
		Ticker:       "NVDA",
		Contract:     callContract(100, 90),
		Quote:        q,
		Liquidity:    80,
		Spot:         150,
		Mid:          52.3,
		DaysToExpiry: 90,
	}
	m := HighDeltaRule{}.Evaluate(in)
	if m == nil {
		t.Fatal("expected high delta match")
	}
	// Deep ITM: intrinsic 50 of 52.3 premium earns the full bonus.
	if m.Score < 90 {
		t.Fatalf("score = %v, want deep ITM bonus applied", m.Score)
	}
	if m.Score > 100 {
		t.Fatalf("score = %v, exceeds clamp", m.Score)
	}

	in.Quote.Delta = fptr(0.50)
	if m := (HighDeltaRule{}).Evaluate(in); m != nil {
		t.Fatal("delta under 0.65 must not match")
	}
}

func TestHighDeltaLowThetaRatioStillMatches(t *testing.T) {
	// The delta/theta ratio only scores a tiered bonus; a heavy-decay
	// contract with ratio under 5 still qualifies on delta alone.
	q := liquidQuote()
	q.Delta = fptr(0.70)
	q.Theta = fptr(-0.20)

	in := Input{
		Ticker:       "NVDA",
		Contract:     callContract(150, 60),
		Quote:        q,
		Liquidity:    60,
		Spot:         150,
		Mid:          8.0,
		DaysToExpiry: 60,
	}
	m := HighDeltaRule{}.Evaluate(in)
	if m == nil {
		t.Fatal("expected match despite delta/theta ratio of 3.5")
	}
	ratio, ok := m.Metrics["delta_theta_ratio"].(float64)
	if !ok || ratio > 5 {
		t.Fatalf("delta_theta_ratio = %v, want <= 5", m.Metrics["delta_theta_ratio"])
	}
	// Base 45 + delta bonus ~2.9 + liquidity 6, no ratio bonus.
	if m.Score >= 60 {
		t.Fatalf("score = %v, want no ratio-tier bonus applied", m.Score)
	}
}

func TestUnusualVolume(t *testing.T) {
	q := liquidQuote()
	q.Volume = 900
	q.OpenInterest = 120

	in := Input{
		Ticker:       "AMD",
		Contract:     callContract(180, 14),
		Quote:        q,
		Liquidity:    60,
		Spot:         178,
		Mid:          5.1,
		DaysToExpiry: 14,
	}
	m := UnusualVolumeRule{}.Evaluate(in)
	if m == nil {
		t.Fatal("expected unusual volume match at 7.5x OI")
	}
	if m.Metrics["volume_oi_ratio"].(float64) != 7.5 {
		t.Fatalf("ratio = %v, want 7.5", m.Metrics["volume_oi_ratio"])
	}

	q.Volume = 400 // 3.3x, below threshold
	if m := (UnusualVolumeRule{}).Evaluate(in); m != nil {
		t.Fatal("ratio under 5x must not match")
	}
}

func TestHighTimeValue(t *testing.T) {
	q := liquidQuote()
	q.TimeValue = fptr(4.2)
	q.Theta = fptr(-0.06)

	in := Input{
		Ticker:       "META",
		Contract:     callContract(500, 45),
		Quote:        q,
		Liquidity:    70,
		Spot:         499,
		Mid:          5.1,
		DaysToExpiry: 45,
	}
	m := HighTimeValueRule{}.Evaluate(in)
	if m == nil {
		t.Fatal("expected high time value match at 82% extrinsic")
	}
	if m.Score > 100 {
		t.Fatalf("score = %v, exceeds clamp", m.Score)
	}

	q.TimeValue = fptr(2.0) // 39% extrinsic
	if m := (HighTimeValueRule{}).Evaluate(in); m != nil {
		t.Fatal("below 60% extrinsic must not match")
	}

	q.TimeValue = nil
	if m := (HighTimeValueRule{}).Evaluate(in); m != nil {
		t.Fatal("missing time value must not match")
	}
}

func TestSymbolLevelIVExtremes(t *testing.T) {
	in := Input{
		Ticker:    "AAPL",
		Analysis:  &models.VolatilityAnalysis{CurrentIV: 0.82, IVRank: 95, IVPercentile: 97},
		Liquidity: 90,
	}
	m := HighIVRule{}.Evaluate(in)
	if m == nil {
		t.Fatal("expected high IV match")
	}
	if m.Score < 75 || m.Score > 100 {
		t.Fatalf("score = %v", m.Score)
	}
	if (LowIVRule{}).Evaluate(in) != nil {
		t.Fatal("low IV rule must not fire at the top of the range")
	}

	in.Analysis = &models.VolatilityAnalysis{CurrentIV: 0.15, IVRank: 5, IVPercentile: 3}
	if (HighIVRule{}).Evaluate(in) != nil {
		t.Fatal("high IV rule must not fire at the bottom of the range")
	}
	if m := (LowIVRule{}).Evaluate(in); m == nil {
		t.Fatal("expected low IV match")
	}

	// One side in, one side out: both gates required.
	in.Analysis = &models.VolatilityAnalysis{IVRank: 95, IVPercentile: 80}
	if (HighIVRule{}).Evaluate(in) != nil {
		t.Fatal("percentile gate must hold independently of rank")
	}
}

func TestEngineFiltersBelowMinScore(t *testing.T) {
	e := NewEngine(config.ScannerConfig{MinScore: 50}, zap.NewNop())

	q := liquidQuote()
	q.Delta = fptr(0.35)
	q.Theta = fptr(-0.05)
	q.Vega = fptr(0.25)
	in := Input{
		Ticker:       "AAPL",
		Contract:     callContract(150, 30),
		Quote:        q,
		Analysis:     &models.VolatilityAnalysis{IVRank: 85, IVPercentile: 92},
		Liquidity:    100,
		Spot:         148,
		Mid:          5.1,
		DaysToExpiry: 30,
	}
	matches := e.ScanContract(in)
	if len(matches) == 0 {
		t.Fatal("expected at least one match")
	}
	for _, m := range matches {
		if m.Score < 50 {
			t.Fatalf("match %s below min score: %v", m.Type, m.Score)
		}
		if m.Score > 100 {
			t.Fatalf("match %s above clamp: %v", m.Type, m.Score)
		}
	}

	strict := NewEngine(config.ScannerConfig{MinScore: 101}, zap.NewNop())
	if got := strict.ScanContract(in); len(got) != 0 {
		t.Fatalf("min score above clamp must filter everything, got %d", len(got))
	}
}

func TestEngineAppliesConfiguredLiquidityFloors(t *testing.T) {
	q := liquidQuote()
	q.Delta = fptr(0.35)
	q.Theta = fptr(-0.05)
	q.Vega = fptr(0.25)
	in := Input{
		Ticker:       "AAPL",
		Contract:     callContract(150, 30),
		Quote:        q,
		Analysis:     &models.VolatilityAnalysis{IVRank: 85, IVPercentile: 92},
		Liquidity:    100,
		Spot:         148,
		Mid:          5.1,
		DaysToExpiry: 30,
	}

	defaults := NewEngine(config.ScannerConfig{MinScore: 50}, zap.NewNop())
	if len(defaults.ScanContract(in)) == 0 {
		t.Fatal("quote above default floors must match")
	}

	// Raising the volume floor above the quote's volume gates everything out.
	strict := NewEngine(config.ScannerConfig{MinScore: 50, MinVolume: 500, MinOpenInterest: 50}, zap.NewNop())
	if got := strict.ScanContract(in); len(got) != 0 {
		t.Fatalf("raised volume floor must gate all rules, got %d matches", len(got))
	}

	loose := NewEngine(config.ScannerConfig{MinScore: 50, MinVolume: 5, MinOpenInterest: 100}, zap.NewNop())
	if len(loose.ScanContract(in)) == 0 {
		t.Fatal("floors below the quote's volume and open interest must pass")
	}
}
