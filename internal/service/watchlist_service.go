package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"optionstracker/internal/models"
	"optionstracker/internal/repository"
)

// WatchlistService manages the tracked symbol set. Removal deactivates
// rather than deletes so history stays attached to the symbol.
type WatchlistService struct {
	Repo   repository.Repository
	Logger *zap.Logger
}

// Add puts a ticker on the watchlist: a brand-new symbol is created, a
// previously removed one is reactivated.
func (s *WatchlistService) Add(ctx context.Context, ticker, companyName string, sector *string) (*models.Symbol, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, fmt.Errorf("empty ticker")
	}

	existing, err := s.Repo.GetSymbolByTicker(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", ticker, err)
	}
	if existing != nil {
		if !existing.Active {
			if err := s.Repo.SetSymbolActive(ctx, existing.ID, true); err != nil {
				return nil, fmt.Errorf("reactivate %s: %w", ticker, err)
			}
			existing.Active = true
			s.Logger.Info("watchlist symbol reactivated", zap.String("ticker", ticker))
		}
		return existing, nil
	}

	sym := &models.Symbol{
		Ticker:      ticker,
		CompanyName: strings.TrimSpace(companyName),
		Sector:      sector,
		Active:      true,
	}
	if err := s.Repo.CreateSymbol(ctx, sym); err != nil {
		return nil, fmt.Errorf("create %s: %w", ticker, err)
	}
	s.Logger.Info("watchlist symbol added", zap.String("ticker", ticker))
	return sym, nil
}

// Remove deactivates a watchlist entry.
func (s *WatchlistService) Remove(ctx context.Context, ticker string) error {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	sym, err := s.Repo.GetSymbolByTicker(ctx, ticker)
	if err != nil {
		return fmt.Errorf("lookup %s: %w", ticker, err)
	}
	if sym == nil {
		return fmt.Errorf("symbol %s not found", ticker)
	}
	if !sym.Active {
		return nil
	}
	if err := s.Repo.SetSymbolActive(ctx, sym.ID, false); err != nil {
		return fmt.Errorf("deactivate %s: %w", ticker, err)
	}
	s.Logger.Info("watchlist symbol removed", zap.String("ticker", ticker))
	return nil
}

// List returns watchlist entries, active only unless includeInactive.
func (s *WatchlistService) List(ctx context.Context, includeInactive bool) ([]models.Symbol, error) {
	params := repository.ListSymbolsParams{Limit: 500}
	if !includeInactive {
		active := true
		params.Active = &active
	}
	return s.Repo.ListSymbols(ctx, params)
}
