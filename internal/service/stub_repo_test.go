package service

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"optionstracker/internal/models"
	"optionstracker/internal/repository"
)

// stubRepo is a test-only in-memory repository.Repository. Transactions are
// simulated: mutations inside a failed InTx are rolled back by snapshot.
type stubRepo struct {
	symbols       []models.Symbol
	bars          []models.PriceBar
	contracts     []models.OptionContract
	quotes        []models.OptionQuote
	analyses      []models.VolatilityAnalysis
	opportunities []models.Opportunity
	runs          []models.RefreshRun
	ivHistory     map[uint64][]float64

	nextID uint64
}

func (s *stubRepo) id() uint64 {
	s.nextID++
	return s.nextID
}

func (s *stubRepo) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	snapshot := *s
	snapshot.bars = append([]models.PriceBar(nil), s.bars...)
	snapshot.contracts = append([]models.OptionContract(nil), s.contracts...)
	snapshot.quotes = append([]models.OptionQuote(nil), s.quotes...)
	snapshot.analyses = append([]models.VolatilityAnalysis(nil), s.analyses...)
	snapshot.opportunities = append([]models.Opportunity(nil), s.opportunities...)
	if err := fn(nil); err != nil {
		*s = snapshot
		return err
	}
	return nil
}

func (s *stubRepo) CreateSymbol(ctx context.Context, item *models.Symbol) error {
	item.ID = s.id()
	s.symbols = append(s.symbols, *item)
	return nil
}

func (s *stubRepo) GetSymbolByTicker(ctx context.Context, ticker string) (*models.Symbol, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	for i := range s.symbols {
		if s.symbols[i].Ticker == ticker {
			sym := s.symbols[i]
			return &sym, nil
		}
	}
	return nil, nil
}

func (s *stubRepo) SetSymbolActive(ctx context.Context, id uint64, active bool) error {
	for i := range s.symbols {
		if s.symbols[i].ID == id {
			s.symbols[i].Active = active
		}
	}
	return nil
}

func (s *stubRepo) ListSymbols(ctx context.Context, params repository.ListSymbolsParams) ([]models.Symbol, error) {
	var out []models.Symbol
	for _, sym := range s.symbols {
		if params.Active != nil && sym.Active != *params.Active {
			continue
		}
		out = append(out, sym)
	}
	return out, nil
}

func (s *stubRepo) UpsertPriceBarsTx(ctx context.Context, tx *gorm.DB, items []models.PriceBar) error {
	for _, item := range items {
		replaced := false
		for i := range s.bars {
			if s.bars[i].SymbolID == item.SymbolID && s.bars[i].TradingDay.Equal(item.TradingDay) {
				item.ID = s.bars[i].ID
				s.bars[i] = item
				replaced = true
				break
			}
		}
		if !replaced {
			item.ID = s.id()
			s.bars = append(s.bars, item)
		}
	}
	return nil
}

func (s *stubRepo) UpsertContractsTx(ctx context.Context, tx *gorm.DB, items []models.OptionContract) error {
	for _, item := range items {
		replaced := false
		for i := range s.contracts {
			if s.contracts[i].ContractSymbol == item.ContractSymbol {
				item.ID = s.contracts[i].ID
				s.contracts[i] = item
				replaced = true
				break
			}
		}
		if !replaced {
			item.ID = s.id()
			s.contracts = append(s.contracts, item)
		}
	}
	return nil
}

func (s *stubRepo) ListContractsBySymbolTx(ctx context.Context, tx *gorm.DB, symbolID uint64) ([]models.OptionContract, error) {
	var out []models.OptionContract
	for _, c := range s.contracts {
		if c.SymbolID == symbolID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *stubRepo) InsertQuotesTx(ctx context.Context, tx *gorm.DB, items []models.OptionQuote) error {
	for _, item := range items {
		item.ID = s.id()
		s.quotes = append(s.quotes, item)
	}
	return nil
}

func (s *stubRepo) InsertAnalysisTx(ctx context.Context, tx *gorm.DB, item *models.VolatilityAnalysis) error {
	item.ID = s.id()
	s.analyses = append(s.analyses, *item)
	return nil
}

func (s *stubRepo) ListRecentBars(ctx context.Context, symbolID uint64, limit int) ([]models.PriceBar, error) {
	var out []models.PriceBar
	for _, b := range s.bars {
		if b.SymbolID == symbolID {
			out = append(out, b)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (s *stubRepo) ListActiveContracts(ctx context.Context, symbolID uint64) ([]models.OptionContract, error) {
	var out []models.OptionContract
	for _, c := range s.contracts {
		if c.SymbolID == symbolID && c.Active && c.Expiry.After(time.Now()) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *stubRepo) LatestQuote(ctx context.Context, contractID uint64) (*models.OptionQuote, error) {
	var latest *models.OptionQuote
	for i := range s.quotes {
		q := &s.quotes[i]
		if q.ContractID != contractID {
			continue
		}
		if latest == nil || q.Timestamp.After(latest.Timestamp) {
			latest = q
		}
	}
	if latest == nil {
		return nil, nil
	}
	out := *latest
	return &out, nil
}

func (s *stubRepo) LatestAnalysis(ctx context.Context, symbolID uint64) (*models.VolatilityAnalysis, error) {
	var latest *models.VolatilityAnalysis
	for i := range s.analyses {
		a := &s.analyses[i]
		if a.SymbolID != symbolID {
			continue
		}
		if latest == nil || a.Timestamp.After(latest.Timestamp) {
			latest = a
		}
	}
	if latest == nil {
		return nil, nil
	}
	out := *latest
	return &out, nil
}

func (s *stubRepo) ListIVHistory(ctx context.Context, symbolID uint64, since time.Time) ([]float64, error) {
	return s.ivHistory[symbolID], nil
}

func (s *stubRepo) ActiveOpportunitiesBySymbolTx(ctx context.Context, tx *gorm.DB, symbolID uint64) ([]models.Opportunity, error) {
	var out []models.Opportunity
	for _, o := range s.opportunities {
		if o.SymbolID == symbolID && o.Active {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *stubRepo) InsertOpportunityTx(ctx context.Context, tx *gorm.DB, item *models.Opportunity) error {
	item.ID = s.id()
	s.opportunities = append(s.opportunities, *item)
	return nil
}

func (s *stubRepo) UpdateOpportunityTx(ctx context.Context, tx *gorm.DB, item *models.Opportunity) error {
	for i := range s.opportunities {
		if s.opportunities[i].ID == item.ID {
			s.opportunities[i].Score = item.Score
			s.opportunities[i].Description = item.Description
			s.opportunities[i].Metrics = item.Metrics
			s.opportunities[i].Timestamp = item.Timestamp
		}
	}
	return nil
}

func (s *stubRepo) RetireOpportunityTx(ctx context.Context, tx *gorm.DB, id uint64, retiredAt time.Time) error {
	for i := range s.opportunities {
		if s.opportunities[i].ID == id {
			s.opportunities[i].Active = false
		}
	}
	return nil
}

func (s *stubRepo) ListOpportunities(ctx context.Context, params repository.ListOpportunitiesParams) ([]models.Opportunity, error) {
	var out []models.Opportunity
	for _, o := range s.opportunities {
		if params.Active != nil && o.Active != *params.Active {
			continue
		}
		if params.Type != nil && string(o.Type) != *params.Type {
			continue
		}
		if params.SymbolID != nil && o.SymbolID != *params.SymbolID {
			continue
		}
		if params.MinScore != nil && o.Score < *params.MinScore {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (s *stubRepo) CountOpportunities(ctx context.Context, params repository.ListOpportunitiesParams) (int64, error) {
	items, _ := s.ListOpportunities(ctx, params)
	return int64(len(items)), nil
}

func (s *stubRepo) InsertRefreshRun(ctx context.Context, item *models.RefreshRun) error {
	item.ID = s.id()
	s.runs = append(s.runs, *item)
	return nil
}

func (s *stubRepo) ListRefreshRuns(ctx context.Context, limit int) ([]models.RefreshRun, error) {
	return s.runs, nil
}
