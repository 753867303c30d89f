package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"optionstracker/internal/client/ivx"
	"optionstracker/internal/config"
	"optionstracker/internal/liquidity"
	"optionstracker/internal/models"
	"optionstracker/internal/opportunity"
	"optionstracker/internal/pricing"
	"optionstracker/internal/repository"
	"optionstracker/internal/scanner"
	"optionstracker/internal/volatility"
)

// MarketData is the slice of the fetch coordinator the services need.
type MarketData interface {
	DailyBars(ctx context.Context, symbol string, from, to time.Time) ([]ivx.Bar, error)
	OptionContracts(ctx context.Context, symbol string) ([]ivx.Contract, error)
	OptionQuote(ctx context.Context, contractSymbol string) (*ivx.Quote, bool, error)
}

// RefreshResult summarizes one symbol's refresh: per-record successes,
// skips (no quote, unusable record), and failures, with reasons.
type RefreshResult struct {
	Ticker    string   `json:"ticker"`
	Succeeded int      `json:"succeeded"`
	Skipped   int      `json:"skipped"`
	Failed    int      `json:"failed"`
	Reasons   []string `json:"reasons,omitempty"`
}

// RefreshService runs the fetch-compute-persist pipeline. All provider
// calls for a symbol happen before its transaction opens, so a fetch
// failure never leaves a half-written symbol.
type RefreshService struct {
	Repo          repository.Repository
	Market        MarketData
	Engine        *scanner.Engine
	Opportunities *opportunity.Manager
	Logger        *zap.Logger
	Config        config.Config
}

// RefreshSymbol refreshes one watchlist symbol end to end: daily bars,
// option chain, per-contract quotes, volatility analysis, and the
// opportunity scan, committed as one transaction.
func (s *RefreshService) RefreshSymbol(ctx context.Context, ticker string) (RefreshResult, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	res := RefreshResult{Ticker: ticker}

	sym, err := s.Repo.GetSymbolByTicker(ctx, ticker)
	if err != nil {
		return res, fmt.Errorf("load symbol %s: %w", ticker, err)
	}
	if sym == nil || !sym.Active {
		return res, fmt.Errorf("symbol %s is not on the active watchlist", ticker)
	}

	now := time.Now().UTC()
	from := now.AddDate(0, 0, -s.Config.Fetch.BarsLookbackDays)

	bars, err := s.Market.DailyBars(ctx, ticker, from, now)
	if err != nil {
		res.Failed++
		res.Reasons = append(res.Reasons, fmt.Sprintf("daily bars: %v", err))
		return res, err
	}
	if len(bars) == 0 {
		res.Failed++
		res.Reasons = append(res.Reasons, "no price history returned")
		return res, fmt.Errorf("no price history for %s", ticker)
	}
	spot := bars[len(bars)-1].Close.InexactFloat64()

	contracts, err := s.Market.OptionContracts(ctx, ticker)
	if err != nil {
		res.Failed++
		res.Reasons = append(res.Reasons, fmt.Sprintf("option chain: %v", err))
		return res, err
	}

	// Fetch and enrich quotes contract by contract. Per-record problems
	// skip the record, never the symbol.
	type quoted struct {
		contract ivx.Contract
		quote    models.OptionQuote
		dte      float64
	}
	var snapshots []quoted
	ivSum, ivCount := 0.0, 0

	for _, c := range contracts {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		if !c.Expiry.After(now) {
			continue
		}
		raw, found, err := s.Market.OptionQuote(ctx, c.ContractSymbol)
		if err != nil {
			res.Failed++
			res.Reasons = append(res.Reasons, fmt.Sprintf("%s: quote fetch: %v", c.ContractSymbol, err))
			continue
		}
		if !found {
			res.Skipped++
			continue
		}
		q, ok := s.buildQuote(c, raw, spot, now)
		if !ok {
			res.Skipped++
			res.Reasons = append(res.Reasons, fmt.Sprintf("%s: no usable price", c.ContractSymbol))
			continue
		}
		if q.ImpliedVolatility != nil {
			ivSum += *q.ImpliedVolatility
			ivCount++
		}
		snapshots = append(snapshots, quoted{
			contract: c,
			quote:    q,
			dte:      c.Expiry.Sub(now).Hours() / 24,
		})
		res.Succeeded++
	}

	analysis := s.buildAnalysis(ctx, sym.ID, bars, ivSum, ivCount, now)

	err = s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		if err := s.Repo.UpsertPriceBarsTx(ctx, tx, barsToModels(sym.ID, bars)); err != nil {
			return fmt.Errorf("persist bars: %w", err)
		}
		if err := s.Repo.UpsertContractsTx(ctx, tx, contractsToModels(sym.ID, contracts)); err != nil {
			return fmt.Errorf("persist contracts: %w", err)
		}
		stored, err := s.Repo.ListContractsBySymbolTx(ctx, tx, sym.ID)
		if err != nil {
			return fmt.Errorf("reload contracts: %w", err)
		}
		idBySymbol := make(map[string]uint64, len(stored))
		modelByID := make(map[uint64]*models.OptionContract, len(stored))
		for i := range stored {
			idBySymbol[stored[i].ContractSymbol] = stored[i].ID
			modelByID[stored[i].ID] = &stored[i]
		}

		var (
			quotes     []models.OptionQuote
			candidates []opportunity.Candidate
			bestLiq    int
		)
		for i := range snapshots {
			snap := &snapshots[i]
			id, ok := idBySymbol[snap.contract.ContractSymbol]
			if !ok {
				continue
			}
			snap.quote.ContractID = id
			quotes = append(quotes, snap.quote)

			liq := liquidity.Score(snap.quote.SpreadPct, snap.quote.Volume, snap.quote.OpenInterest)
			if liq > bestLiq {
				bestLiq = liq
			}
			in := scanner.Input{
				Ticker:       ticker,
				Contract:     modelByID[id],
				Quote:        &snap.quote,
				Analysis:     analysis,
				Liquidity:    liq,
				Spot:         spot,
				Theoretical:  quoteTheo(modelByID[id], &snap.quote, spot, snap.dte, s.Config.Analytics),
				Mid:          snap.quote.Mid(),
				DaysToExpiry: snap.dte,
			}
			contractID := id
			for _, m := range s.Engine.ScanContract(in) {
				candidates = append(candidates, opportunity.Candidate{ContractID: &contractID, Match: m})
			}
		}
		for _, m := range s.Engine.ScanSymbol(scanner.Input{Ticker: ticker, Analysis: analysis, Liquidity: bestLiq}) {
			candidates = append(candidates, opportunity.Candidate{Match: m})
		}

		if err := s.Repo.InsertQuotesTx(ctx, tx, quotes); err != nil {
			return fmt.Errorf("persist quotes: %w", err)
		}
		if analysis != nil {
			if err := s.Repo.InsertAnalysisTx(ctx, tx, analysis); err != nil {
				return fmt.Errorf("persist analysis: %w", err)
			}
		}
		return s.Opportunities.Reconcile(ctx, tx, sym.ID, candidates, now)
	})
	if err != nil {
		res.Failed++
		res.Reasons = append(res.Reasons, fmt.Sprintf("persist: %v", err))
		return res, err
	}

	s.Logger.Info("symbol refreshed",
		zap.String("ticker", ticker),
		zap.Int("succeeded", res.Succeeded),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", res.Failed))
	return res, nil
}

// RefreshAll refreshes every active watchlist symbol sequentially. One
// symbol's failure is recorded and the loop moves on; cancellation is
// honored between symbols. The run summary is persisted under job.
func (s *RefreshService) RefreshAll(ctx context.Context, job string) ([]RefreshResult, error) {
	started := time.Now().UTC()
	active := true
	symbols, err := s.Repo.ListSymbols(ctx, repository.ListSymbolsParams{Active: &active, Limit: 500})
	if err != nil {
		return nil, fmt.Errorf("list watchlist: %w", err)
	}

	var results []RefreshResult
	for _, sym := range symbols {
		if ctx.Err() != nil {
			break
		}
		res, err := s.RefreshSymbol(ctx, sym.Ticker)
		if err != nil {
			s.Logger.Warn("symbol refresh failed",
				zap.String("ticker", sym.Ticker),
				zap.Error(err))
		}
		results = append(results, res)
	}

	s.recordRun(ctx, job, started, results)
	return results, ctx.Err()
}

func (s *RefreshService) recordRun(ctx context.Context, job string, started time.Time, results []RefreshResult) {
	run := &models.RefreshRun{
		Job:        job,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
	}
	var reasons []string
	for _, r := range results {
		run.Succeeded += r.Succeeded
		run.Skipped += r.Skipped
		run.Failed += r.Failed
		for _, reason := range r.Reasons {
			reasons = append(reasons, r.Ticker+": "+reason)
		}
	}
	if len(reasons) > 0 {
		if raw, err := json.Marshal(reasons); err == nil {
			run.Reasons = raw
		}
	}
	if err := s.Repo.InsertRefreshRun(context.WithoutCancel(ctx), run); err != nil {
		s.Logger.Warn("failed to record refresh run", zap.String("job", job), zap.Error(err))
	}
}

// buildQuote normalizes a provider quote into a snapshot row: derived
// spread and value fields, and IV/Greeks either straight from the provider
// or recovered from the model. A record with no usable price is rejected.
func (s *RefreshService) buildQuote(c ivx.Contract, raw *ivx.Quote, spot float64, now time.Time) (models.OptionQuote, bool) {
	q := models.OptionQuote{
		Timestamp:    now,
		Bid:          raw.Bid,
		Ask:          raw.Ask,
		Last:         raw.Last,
		Volume:       raw.Volume,
		OpenInterest: raw.OpenInterest,
	}
	mid := q.Mid()
	if mid <= 0 {
		return q, false
	}

	bid, ask := raw.Bid.InexactFloat64(), raw.Ask.InexactFloat64()
	if bid > 0 && ask > 0 && ask >= bid {
		spread := ask - bid
		pct := spread / mid
		q.BidAskSpread = &spread
		q.SpreadPct = &pct
	}

	strike := c.Strike.InexactFloat64()
	intrinsic := spot - strike
	if c.Type == "put" {
		intrinsic = strike - spot
	}
	if intrinsic < 0 {
		intrinsic = 0
	}
	timeValue := mid - intrinsic
	if timeValue < 0 {
		timeValue = 0
	}
	q.IntrinsicValue = &intrinsic
	q.TimeValue = &timeValue

	tte := c.Expiry.Sub(now).Hours() / 24 / 365
	optType := models.OptionCall
	if c.Type == "put" {
		optType = models.OptionPut
	}

	switch {
	case raw.ImpliedVolatility != nil && raw.Delta != nil:
		q.ImpliedVolatility = raw.ImpliedVolatility
		q.Delta, q.Gamma, q.Theta, q.Vega, q.Rho = raw.Delta, raw.Gamma, raw.Theta, raw.Vega, raw.Rho
		q.GreeksFrom = models.GreeksProvider
	default:
		iv := raw.ImpliedVolatility
		if iv == nil {
			inverted, err := pricing.ImpliedVolatility(pricing.Input{
				Spot:      spot,
				Strike:    strike,
				TimeYears: tte,
				Rate:      s.Config.Analytics.RiskFreeRate,
				Dividend:  s.Config.Analytics.DividendYield,
				Type:      optType,
			}, mid)
			if err == nil {
				iv = &inverted
			}
		}
		// No IV means no Greeks: absent, not zero.
		if iv != nil {
			g := pricing.ComputeGreeks(pricing.Input{
				Spot:      spot,
				Strike:    strike,
				TimeYears: tte,
				Rate:      s.Config.Analytics.RiskFreeRate,
				Dividend:  s.Config.Analytics.DividendYield,
				Vol:       *iv,
				Type:      optType,
			})
			q.ImpliedVolatility = iv
			q.Delta, q.Gamma, q.Theta, q.Vega, q.Rho = &g.Delta, &g.Gamma, &g.Theta, &g.Vega, &g.Rho
			q.GreeksFrom = models.GreeksModel
		}
	}
	return q, true
}

func quoteTheo(c *models.OptionContract, q *models.OptionQuote, spot, dte float64, cfg config.AnalyticsConfig) *float64 {
	if q == nil || q.ImpliedVolatility == nil {
		return nil
	}
	return theoValue(c, *q.ImpliedVolatility, spot, dte, cfg)
}

// theoValue prices the contract from its own implied volatility for the
// mispricing rules. Nil when the model value degenerates.
func theoValue(c *models.OptionContract, iv, spot, dte float64, cfg config.AnalyticsConfig) *float64 {
	if c == nil {
		return nil
	}
	price := pricing.Price(pricing.Input{
		Spot:      spot,
		Strike:    c.Strike.InexactFloat64(),
		TimeYears: dte / 365,
		Rate:      cfg.RiskFreeRate,
		Dividend:  cfg.DividendYield,
		Vol:       iv,
		Type:      c.Type,
	})
	if price <= 0 {
		return nil
	}
	return &price
}

// buildAnalysis derives the symbol's volatility snapshot: chain-average IV
// placed against its own history, plus realized volatility off the closes.
// Nil when the chain produced no usable IV this pass.
func (s *RefreshService) buildAnalysis(ctx context.Context, symbolID uint64, bars []ivx.Bar, ivSum float64, ivCount int, now time.Time) *models.VolatilityAnalysis {
	if ivCount == 0 {
		return nil
	}
	currentIV := ivSum / float64(ivCount)

	historyDays := s.Config.Analytics.IVHistoryDays
	if historyDays <= 0 {
		historyDays = 365
	}
	history, err := s.Repo.ListIVHistory(ctx, symbolID, now.AddDate(0, 0, -historyDays))
	if err != nil {
		s.Logger.Warn("iv history load failed", zap.Uint64("symbol_id", symbolID), zap.Error(err))
	}

	a := &models.VolatilityAnalysis{
		SymbolID:     symbolID,
		Timestamp:    now,
		CurrentIV:    currentIV,
		IVRank:       volatility.Rank(currentIV, history),
		IVPercentile: volatility.Percentile(currentIV, history, s.Config.Analytics.IVPercentileInclusive),
	}

	closes := make([]float64, 0, len(bars))
	for _, b := range bars {
		closes = append(closes, b.Close.InexactFloat64())
	}
	if hv, err := volatility.Historical(closes, 20); err == nil {
		a.HV20 = &hv
	}
	if hv, err := volatility.Historical(closes, 30); err == nil {
		a.HV30 = &hv
	}
	return a
}

func barsToModels(symbolID uint64, bars []ivx.Bar) []models.PriceBar {
	out := make([]models.PriceBar, 0, len(bars))
	for _, b := range bars {
		out = append(out, models.PriceBar{
			SymbolID:   symbolID,
			TradingDay: b.Date,
			Open:       b.Open,
			High:       b.High,
			Low:        b.Low,
			Close:      b.Close,
			Volume:     b.Volume,
		})
	}
	return out
}

func contractsToModels(symbolID uint64, contracts []ivx.Contract) []models.OptionContract {
	out := make([]models.OptionContract, 0, len(contracts))
	for _, c := range contracts {
		typ := models.OptionCall
		if c.Type == "put" {
			typ = models.OptionPut
		}
		style := models.ExerciseAmerican
		if c.Style == "european" {
			style = models.ExerciseEuropean
		}
		out = append(out, models.OptionContract{
			SymbolID:       symbolID,
			ContractSymbol: c.ContractSymbol,
			Strike:         c.Strike,
			Expiry:         c.Expiry,
			Type:           typ,
			Style:          style,
			SharesPerLot:   c.SharesPerLot,
			Active:         true,
		})
	}
	return out
}
