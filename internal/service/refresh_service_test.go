package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"optionstracker/internal/client/ivx"
	"optionstracker/internal/config"
	"optionstracker/internal/models"
	"optionstracker/internal/opportunity"
	"optionstracker/internal/repository"
	"optionstracker/internal/scanner"
)

type stubMarket struct {
	barsBySym    map[string][]ivx.Bar
	barsErrBySym map[string]error
	chainBySym   map[string][]ivx.Contract
	quoteByID    map[string]*ivx.Quote
	quoteErrByID map[string]error
}

func (m *stubMarket) DailyBars(_ context.Context, symbol string, _, _ time.Time) ([]ivx.Bar, error) {
	if err := m.barsErrBySym[symbol]; err != nil {
		return nil, err
	}
	return m.barsBySym[symbol], nil
}

func (m *stubMarket) OptionContracts(_ context.Context, symbol string) ([]ivx.Contract, error) {
	return m.chainBySym[symbol], nil
}

func (m *stubMarket) OptionQuote(_ context.Context, contractSymbol string) (*ivx.Quote, bool, error) {
	if err := m.quoteErrByID[contractSymbol]; err != nil {
		return nil, false, err
	}
	q, ok := m.quoteByID[contractSymbol]
	return q, ok && q != nil, nil
}

func fp(v float64) *float64 { return &v }

func mkBars(days int, lastClose float64) []ivx.Bar {
	bars := make([]ivx.Bar, 0, days)
	day := time.Now().UTC().AddDate(0, 0, -days)
	for i := 0; i < days; i++ {
		// Mild alternation so realized volatility is well defined.
		close := lastClose * (1 + 0.002*float64(i%2))
		bars = append(bars, ivx.Bar{
			Date:   day.AddDate(0, 0, i),
			Open:   decimal.NewFromFloat(close - 0.5),
			High:   decimal.NewFromFloat(close + 1),
			Low:    decimal.NewFromFloat(close - 1),
			Close:  decimal.NewFromFloat(close),
			Volume: 1_000_000,
		})
	}
	bars[len(bars)-1].Close = decimal.NewFromFloat(lastClose)
	return bars
}

func sellSetupQuote(iv float64) *ivx.Quote {
	return &ivx.Quote{
		ContractSymbol:    "AAPL240920C00150000",
		Timestamp:         time.Now().UTC(),
		Bid:               decimal.NewFromFloat(5.0),
		Ask:               decimal.NewFromFloat(5.2),
		Last:              decimal.NewFromFloat(5.1),
		Volume:            150,
		OpenInterest:      1500,
		ImpliedVolatility: fp(iv),
		Delta:             fp(0.35),
		Gamma:             fp(0.02),
		Theta:             fp(-0.05),
		Vega:              fp(0.25),
		Rho:               fp(0.04),
	}
}

func newRefreshFixture(t *testing.T) (*RefreshService, *stubRepo, *stubMarket) {
	t.Helper()
	repo := &stubRepo{ivHistory: map[uint64][]float64{}}
	repo.symbols = []models.Symbol{{ID: 1, Ticker: "AAPL", CompanyName: "Apple Inc.", Active: true}}
	repo.nextID = 10
	repo.ivHistory[1] = []float64{0.20, 0.28, 0.35, 0.45, 0.55, 0.65}

	market := &stubMarket{
		barsBySym: map[string][]ivx.Bar{
			"AAPL": mkBars(61, 148.3),
		},
		barsErrBySym: map[string]error{},
		chainBySym: map[string][]ivx.Contract{
			"AAPL": {{
				ContractSymbol: "AAPL240920C00150000",
				Underlying:     "AAPL",
				Strike:         decimal.NewFromInt(150),
				Expiry:         time.Now().UTC().AddDate(0, 0, 30),
				Type:           "call",
				Style:          "american",
				SharesPerLot:   100,
			}},
		},
		quoteByID: map[string]*ivx.Quote{
			"AAPL240920C00150000": sellSetupQuote(0.62),
		},
		quoteErrByID: map[string]error{},
	}

	var cfg config.Config
	cfg.Fetch.BarsLookbackDays = 60
	cfg.Analytics.RiskFreeRate = 0.05
	cfg.Analytics.IVHistoryDays = 365
	cfg.Scanner.MinScore = 50

	logger := zap.NewNop()
	svc := &RefreshService{
		Repo:          repo,
		Market:        market,
		Engine:        scanner.NewEngine(cfg.Scanner, logger),
		Opportunities: &opportunity.Manager{Repo: repo, Logger: logger},
		Logger:        logger,
		Config:        cfg,
	}
	return svc, repo, market
}

func TestRefreshSymbolPersistsFullPipeline(t *testing.T) {
	svc, repo, _ := newRefreshFixture(t)

	res, err := svc.RefreshSymbol(context.Background(), "aapl")
	if err != nil {
		t.Fatalf("RefreshSymbol: %v", err)
	}
	if res.Succeeded != 1 || res.Failed != 0 {
		t.Fatalf("result = %+v, want one success", res)
	}

	if len(repo.bars) != 61 {
		t.Fatalf("bars stored = %d, want 61", len(repo.bars))
	}
	if len(repo.contracts) != 1 {
		t.Fatalf("contracts stored = %d, want 1", len(repo.contracts))
	}
	if len(repo.quotes) != 1 {
		t.Fatalf("quotes stored = %d, want 1", len(repo.quotes))
	}
	q := repo.quotes[0]
	if q.GreeksFrom != models.GreeksProvider {
		t.Fatalf("greeks source = %s, want provider", q.GreeksFrom)
	}
	if q.SpreadPct == nil || q.TimeValue == nil {
		t.Fatal("derived quote fields must be populated")
	}

	if len(repo.analyses) != 1 {
		t.Fatalf("analyses stored = %d, want 1", len(repo.analyses))
	}
	a := repo.analyses[0]
	if a.CurrentIV != 0.62 {
		t.Fatalf("current IV = %v, want chain average 0.62", a.CurrentIV)
	}
	if a.IVRank < 90 {
		t.Fatalf("IV rank = %v, want near the top of history", a.IVRank)
	}
	if a.HV20 == nil || a.HV30 == nil {
		t.Fatal("61 closes must yield both HV windows")
	}

	sells, _ := repo.ListOpportunities(context.Background(), oppParams(models.OpportunityPremiumSell, true))
	if len(sells) != 1 {
		t.Fatalf("active premium_sell opportunities = %d, want 1", len(sells))
	}
	if sells[0].Score < 65 {
		t.Fatalf("premium sell score = %v, want >= 65", sells[0].Score)
	}
	if sells[0].ContractID == nil {
		t.Fatal("contract-level opportunity must reference its contract")
	}
}

func TestRefreshSymbolShortHistoryLeavesHV30Null(t *testing.T) {
	svc, repo, market := newRefreshFixture(t)
	market.barsBySym["AAPL"] = mkBars(25, 148.3)

	if _, err := svc.RefreshSymbol(context.Background(), "AAPL"); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(repo.analyses) != 1 {
		t.Fatalf("analyses stored = %d, want 1", len(repo.analyses))
	}
	a := repo.analyses[0]
	if a.HV30 != nil {
		t.Fatalf("HV30 = %v, want nil with only 25 closes", *a.HV30)
	}
	if a.HV20 == nil {
		t.Fatal("25 closes still cover the 20-day window")
	}
	if a.CurrentIV != 0.62 {
		t.Fatalf("current IV = %v, want chain average 0.62", a.CurrentIV)
	}
	if a.IVRank < 90 {
		t.Fatalf("IV rank = %v, want populated despite the short bar history", a.IVRank)
	}
}

func TestRefreshSymbolUpdatesMatchInPlace(t *testing.T) {
	svc, repo, _ := newRefreshFixture(t)
	ctx := context.Background()

	if _, err := svc.RefreshSymbol(ctx, "AAPL"); err != nil {
		t.Fatalf("first refresh: %v", err)
	}
	first, _ := repo.ListOpportunities(ctx, oppParams(models.OpportunityPremiumSell, true))
	if len(first) != 1 {
		t.Fatalf("active premium_sell = %d, want 1", len(first))
	}

	if _, err := svc.RefreshSymbol(ctx, "AAPL"); err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	second, _ := repo.ListOpportunities(ctx, oppParams(models.OpportunityPremiumSell, true))
	if len(second) != 1 {
		t.Fatalf("active premium_sell after re-match = %d, want 1", len(second))
	}
	if second[0].ID != first[0].ID {
		t.Fatal("a still-matching opportunity must be updated in place, not replaced")
	}
}

func TestRefreshSymbolRetiresStaleOpportunities(t *testing.T) {
	svc, repo, market := newRefreshFixture(t)
	ctx := context.Background()

	if _, err := svc.RefreshSymbol(ctx, "AAPL"); err != nil {
		t.Fatalf("first refresh: %v", err)
	}
	active, _ := repo.ListOpportunities(ctx, oppParams(models.OpportunityPremiumSell, true))
	if len(active) != 1 {
		t.Fatalf("active premium_sell = %d, want 1", len(active))
	}
	retiredID := active[0].ID

	// IV collapses to the bottom of the range: the rank gate no longer holds.
	market.quoteByID["AAPL240920C00150000"] = sellSetupQuote(0.21)
	if _, err := svc.RefreshSymbol(ctx, "AAPL"); err != nil {
		t.Fatalf("second refresh: %v", err)
	}

	active, _ = repo.ListOpportunities(ctx, oppParams(models.OpportunityPremiumSell, true))
	if len(active) != 0 {
		t.Fatalf("active premium_sell after IV collapse = %d, want 0", len(active))
	}
	retired, _ := repo.ListOpportunities(ctx, oppParams(models.OpportunityPremiumSell, false))
	if len(retired) != 1 || retired[0].ID != retiredID {
		t.Fatal("the stale opportunity must be retired, not deleted")
	}
}

func TestRefreshSymbolSkipsQuotelessContracts(t *testing.T) {
	svc, repo, market := newRefreshFixture(t)
	market.chainBySym["AAPL"] = append(market.chainBySym["AAPL"], ivx.Contract{
		ContractSymbol: "AAPL240920C00200000",
		Underlying:     "AAPL",
		Strike:         decimal.NewFromInt(200),
		Expiry:         time.Now().UTC().AddDate(0, 0, 30),
		Type:           "call",
		Style:          "american",
		SharesPerLot:   100,
	})
	// No quote registered for the new contract: provider has none.

	res, err := svc.RefreshSymbol(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("RefreshSymbol: %v", err)
	}
	if res.Succeeded != 1 || res.Skipped != 1 {
		t.Fatalf("result = %+v, want 1 success and 1 skip", res)
	}
	if len(repo.quotes) != 1 {
		t.Fatalf("quotes stored = %d, want 1", len(repo.quotes))
	}
}

func TestRefreshAllContinuesPastFailedSymbol(t *testing.T) {
	svc, repo, market := newRefreshFixture(t)
	repo.symbols = append(repo.symbols, models.Symbol{ID: 2, Ticker: "MSFT", Active: true})
	market.barsErrBySym["MSFT"] = errors.New("fetch daily_bars MSFT: status 503")
	// Scan MSFT first to prove order does not matter for AAPL's outcome.
	repo.symbols[0], repo.symbols[1] = repo.symbols[1], repo.symbols[0]

	results, err := svc.RefreshAll(context.Background(), "quick_update")
	if err != nil {
		t.Fatalf("RefreshAll: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}

	var msft, aapl *RefreshResult
	for i := range results {
		switch results[i].Ticker {
		case "MSFT":
			msft = &results[i]
		case "AAPL":
			aapl = &results[i]
		}
	}
	if msft == nil || msft.Failed == 0 {
		t.Fatalf("MSFT result = %+v, want recorded failure", msft)
	}
	if aapl == nil || aapl.Succeeded != 1 {
		t.Fatalf("AAPL result = %+v, want success after MSFT failure", aapl)
	}

	// Nothing of MSFT's persisted.
	for _, b := range repo.bars {
		if b.SymbolID == 2 {
			t.Fatal("failed symbol must not persist partial data")
		}
	}

	if len(repo.runs) != 1 {
		t.Fatalf("refresh runs recorded = %d, want 1", len(repo.runs))
	}
	run := repo.runs[0]
	if run.Job != "quick_update" || run.Failed == 0 || run.Succeeded == 0 {
		t.Fatalf("run = %+v, want both the failure and the success counted", run)
	}
}

func TestRefreshSymbolDerivesModelGreeks(t *testing.T) {
	svc, repo, market := newRefreshFixture(t)
	q := sellSetupQuote(0)
	q.ImpliedVolatility = nil
	q.Delta, q.Gamma, q.Theta, q.Vega, q.Rho = nil, nil, nil, nil, nil
	market.quoteByID["AAPL240920C00150000"] = q

	if _, err := svc.RefreshSymbol(context.Background(), "AAPL"); err != nil {
		t.Fatalf("RefreshSymbol: %v", err)
	}
	if len(repo.quotes) != 1 {
		t.Fatalf("quotes stored = %d, want 1", len(repo.quotes))
	}
	stored := repo.quotes[0]
	if stored.GreeksFrom != models.GreeksModel {
		t.Fatalf("greeks source = %s, want model", stored.GreeksFrom)
	}
	if stored.ImpliedVolatility == nil || stored.Delta == nil || stored.Theta == nil {
		t.Fatal("model inversion must populate IV and Greeks")
	}
	if *stored.ImpliedVolatility < 0.01 || *stored.ImpliedVolatility > 5 {
		t.Fatalf("implied volatility = %v, outside search bracket", *stored.ImpliedVolatility)
	}
}

func oppParams(typ models.OpportunityType, active bool) repository.ListOpportunitiesParams {
	t := string(typ)
	return repository.ListOpportunitiesParams{Active: &active, Type: &t}
}
