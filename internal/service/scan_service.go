package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"optionstracker/internal/config"
	"optionstracker/internal/liquidity"
	"optionstracker/internal/models"
	"optionstracker/internal/opportunity"
	"optionstracker/internal/repository"
	"optionstracker/internal/scanner"
)

// ScanService re-runs the opportunity rules against data already in
// storage, without touching the provider. Used by the weekend job and the
// manual scan trigger.
type ScanService struct {
	Repo          repository.Repository
	Engine        *scanner.Engine
	Opportunities *opportunity.Manager
	Logger        *zap.Logger
	Config        config.Config
}

// ScanSymbol rescans one symbol from its stored latest state and reconciles
// the opportunity set in a transaction.
func (s *ScanService) ScanSymbol(ctx context.Context, sym models.Symbol) error {
	now := time.Now().UTC()

	bars, err := s.Repo.ListRecentBars(ctx, sym.ID, 1)
	if err != nil {
		return fmt.Errorf("load bars: %w", err)
	}
	if len(bars) == 0 {
		return fmt.Errorf("no price history for %s", sym.Ticker)
	}
	spot := bars[len(bars)-1].Close.InexactFloat64()

	analysis, err := s.Repo.LatestAnalysis(ctx, sym.ID)
	if err != nil {
		return fmt.Errorf("load analysis: %w", err)
	}
	contracts, err := s.Repo.ListActiveContracts(ctx, sym.ID)
	if err != nil {
		return fmt.Errorf("load contracts: %w", err)
	}

	var (
		candidates []opportunity.Candidate
		bestLiq    int
	)
	for i := range contracts {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c := &contracts[i]
		quote, err := s.Repo.LatestQuote(ctx, c.ID)
		if err != nil {
			return fmt.Errorf("load quote for %s: %w", c.ContractSymbol, err)
		}
		if quote == nil {
			continue
		}
		dte := c.Expiry.Sub(now).Hours() / 24
		liq := liquidity.Score(quote.SpreadPct, quote.Volume, quote.OpenInterest)
		if liq > bestLiq {
			bestLiq = liq
		}

		var theoretical *float64
		if quote.ImpliedVolatility != nil {
			theoretical = theoValue(c, *quote.ImpliedVolatility, spot, dte, s.Config.Analytics)
		}
		in := scanner.Input{
			Ticker:       sym.Ticker,
			Contract:     c,
			Quote:        quote,
			Analysis:     analysis,
			Liquidity:    liq,
			Spot:         spot,
			Theoretical:  theoretical,
			Mid:          quote.Mid(),
			DaysToExpiry: dte,
		}
		contractID := c.ID
		for _, m := range s.Engine.ScanContract(in) {
			candidates = append(candidates, opportunity.Candidate{ContractID: &contractID, Match: m})
		}
	}
	for _, m := range s.Engine.ScanSymbol(scanner.Input{Ticker: sym.Ticker, Analysis: analysis, Liquidity: bestLiq}) {
		candidates = append(candidates, opportunity.Candidate{Match: m})
	}

	return s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		return s.Opportunities.Reconcile(ctx, tx, sym.ID, candidates, now)
	})
}

// ScanAll rescans every active symbol and returns the active opportunity
// set afterwards, best score first.
func (s *ScanService) ScanAll(ctx context.Context) ([]models.Opportunity, error) {
	active := true
	symbols, err := s.Repo.ListSymbols(ctx, repository.ListSymbolsParams{Active: &active, Limit: 500})
	if err != nil {
		return nil, fmt.Errorf("list watchlist: %w", err)
	}
	for _, sym := range symbols {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err := s.ScanSymbol(ctx, sym); err != nil {
			s.Logger.Warn("symbol scan failed",
				zap.String("ticker", sym.Ticker),
				zap.Error(err))
		}
	}
	return s.Repo.ListOpportunities(ctx, repository.ListOpportunitiesParams{
		Active:  &active,
		OrderBy: "score",
		Limit:   500,
	})
}
