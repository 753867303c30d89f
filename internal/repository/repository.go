package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"optionstracker/internal/models"
)

// Repository is the persistence surface for the tracker. Methods with a Tx
// suffix run inside a transaction opened by InTx: one symbol's refresh
// (bars, contracts, quotes, analysis, opportunities) commits as a unit.
type Repository interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error

	// Watchlist
	CreateSymbol(ctx context.Context, item *models.Symbol) error
	GetSymbolByTicker(ctx context.Context, ticker string) (*models.Symbol, error)
	SetSymbolActive(ctx context.Context, id uint64, active bool) error
	ListSymbols(ctx context.Context, params ListSymbolsParams) ([]models.Symbol, error)

	// Market data, inside the refresh transaction.
	UpsertPriceBarsTx(ctx context.Context, tx *gorm.DB, items []models.PriceBar) error
	UpsertContractsTx(ctx context.Context, tx *gorm.DB, items []models.OptionContract) error
	ListContractsBySymbolTx(ctx context.Context, tx *gorm.DB, symbolID uint64) ([]models.OptionContract, error)
	InsertQuotesTx(ctx context.Context, tx *gorm.DB, items []models.OptionQuote) error
	InsertAnalysisTx(ctx context.Context, tx *gorm.DB, item *models.VolatilityAnalysis) error

	// Reads feeding analytics and scans.
	ListRecentBars(ctx context.Context, symbolID uint64, limit int) ([]models.PriceBar, error)
	ListActiveContracts(ctx context.Context, symbolID uint64) ([]models.OptionContract, error)
	LatestQuote(ctx context.Context, contractID uint64) (*models.OptionQuote, error)
	LatestAnalysis(ctx context.Context, symbolID uint64) (*models.VolatilityAnalysis, error)
	ListIVHistory(ctx context.Context, symbolID uint64, since time.Time) ([]float64, error)

	// Opportunities.
	ActiveOpportunitiesBySymbolTx(ctx context.Context, tx *gorm.DB, symbolID uint64) ([]models.Opportunity, error)
	InsertOpportunityTx(ctx context.Context, tx *gorm.DB, item *models.Opportunity) error
	UpdateOpportunityTx(ctx context.Context, tx *gorm.DB, item *models.Opportunity) error
	RetireOpportunityTx(ctx context.Context, tx *gorm.DB, id uint64, retiredAt time.Time) error
	ListOpportunities(ctx context.Context, params ListOpportunitiesParams) ([]models.Opportunity, error)
	CountOpportunities(ctx context.Context, params ListOpportunitiesParams) (int64, error)

	// Refresh run audit trail.
	InsertRefreshRun(ctx context.Context, item *models.RefreshRun) error
	ListRefreshRuns(ctx context.Context, limit int) ([]models.RefreshRun, error)
}

type ListSymbolsParams struct {
	Limit   int
	Offset  int
	Active  *bool
	Sector  *string
	OrderBy string
	Asc     *bool
}

type ListOpportunitiesParams struct {
	Limit    int
	Offset   int
	Active   *bool
	Type     *string
	SymbolID *uint64
	MinScore *float64
	OrderBy  string
	Asc      *bool
}
