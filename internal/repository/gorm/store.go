package gormrepository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"optionstracker/internal/models"
	"optionstracker/internal/repository"
)

type Store struct {
	db *gorm.DB
}

var _ repository.Repository = (*Store)(nil)

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

// --- Watchlist ---------------------------------------------------------------

func (s *Store) CreateSymbol(ctx context.Context, item *models.Symbol) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetSymbolByTicker(ctx context.Context, ticker string) (*models.Symbol, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Symbol
	err := s.db.WithContext(ctx).
		Where("ticker = ?", strings.ToUpper(strings.TrimSpace(ticker))).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) SetSymbolActive(ctx context.Context, id uint64, active bool) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.Symbol{}).
		Where("id = ?", id).
		Updates(map[string]any{"active": active, "updated_at": time.Now().UTC()}).Error
}

func (s *Store) ListSymbols(ctx context.Context, params repository.ListSymbolsParams) ([]models.Symbol, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.Symbol{})
	if params.Active != nil {
		query = query.Where("active = ?", *params.Active)
	}
	if params.Sector != nil && strings.TrimSpace(*params.Sector) != "" {
		query = query.Where("sector = ?", strings.TrimSpace(*params.Sector))
	}
	query = applyOrder(query, params.OrderBy, params.Asc, "ticker")
	limit := normalizeLimit(params.Limit, 200)
	offset := normalizeOffset(params.Offset)
	var items []models.Symbol
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- Market data -------------------------------------------------------------

func (s *Store) UpsertPriceBarsTx(ctx context.Context, tx *gorm.DB, items []models.PriceBar) error {
	if len(items) == 0 {
		return nil
	}
	return createInBatches(tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "symbol_id"}, {Name: "trading_day"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"open",
			"high",
			"low",
			"close",
			"volume",
		}),
	}), items, 200)
}

func (s *Store) UpsertContractsTx(ctx context.Context, tx *gorm.DB, items []models.OptionContract) error {
	if len(items) == 0 {
		return nil
	}
	return createInBatches(tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "contract_symbol"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"active",
		}),
	}), items, 200)
}

func (s *Store) ListContractsBySymbolTx(ctx context.Context, tx *gorm.DB, symbolID uint64) ([]models.OptionContract, error) {
	var items []models.OptionContract
	if err := tx.WithContext(ctx).
		Model(&models.OptionContract{}).
		Where("symbol_id = ?", symbolID).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) InsertQuotesTx(ctx context.Context, tx *gorm.DB, items []models.OptionQuote) error {
	if len(items) == 0 {
		return nil
	}
	return createInBatches(tx.WithContext(ctx), items, 200)
}

func (s *Store) InsertAnalysisTx(ctx context.Context, tx *gorm.DB, item *models.VolatilityAnalysis) error {
	if item == nil {
		return nil
	}
	return tx.WithContext(ctx).Create(item).Error
}

// --- Reads -------------------------------------------------------------------

func (s *Store) ListRecentBars(ctx context.Context, symbolID uint64, limit int) ([]models.PriceBar, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.PriceBar
	if err := s.db.WithContext(ctx).
		Model(&models.PriceBar{}).
		Where("symbol_id = ?", symbolID).
		Order("trading_day desc").
		Limit(normalizeLimit(limit, 60)).
		Find(&items).Error; err != nil {
		return nil, err
	}
	// Oldest first for return-series maths.
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return items, nil
}

func (s *Store) ListActiveContracts(ctx context.Context, symbolID uint64) ([]models.OptionContract, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.OptionContract
	if err := s.db.WithContext(ctx).
		Model(&models.OptionContract{}).
		Where("symbol_id = ?", symbolID).
		Where("active = ?", true).
		Where("expiry > ?", time.Now().UTC()).
		Order("expiry asc, strike asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) LatestQuote(ctx context.Context, contractID uint64) (*models.OptionQuote, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.OptionQuote
	err := s.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("timestamp desc").
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) LatestAnalysis(ctx context.Context, symbolID uint64) (*models.VolatilityAnalysis, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.VolatilityAnalysis
	err := s.db.WithContext(ctx).
		Where("symbol_id = ?", symbolID).
		Order("timestamp desc").
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListIVHistory(ctx context.Context, symbolID uint64, since time.Time) ([]float64, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var values []float64
	if err := s.db.WithContext(ctx).
		Model(&models.VolatilityAnalysis{}).
		Where("symbol_id = ?", symbolID).
		Where("timestamp >= ?", since).
		Order("timestamp asc").
		Pluck("current_iv", &values).Error; err != nil {
		return nil, err
	}
	return values, nil
}

// --- Opportunities -----------------------------------------------------------

func (s *Store) ActiveOpportunitiesBySymbolTx(ctx context.Context, tx *gorm.DB, symbolID uint64) ([]models.Opportunity, error) {
	var items []models.Opportunity
	if err := tx.WithContext(ctx).
		Model(&models.Opportunity{}).
		Where("symbol_id = ?", symbolID).
		Where("active = ?", true).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) InsertOpportunityTx(ctx context.Context, tx *gorm.DB, item *models.Opportunity) error {
	if item == nil {
		return nil
	}
	return tx.WithContext(ctx).Create(item).Error
}

func (s *Store) UpdateOpportunityTx(ctx context.Context, tx *gorm.DB, item *models.Opportunity) error {
	if item == nil || item.ID == 0 {
		return nil
	}
	return tx.WithContext(ctx).
		Model(&models.Opportunity{}).
		Where("id = ?", item.ID).
		Updates(map[string]any{
			"score":       item.Score,
			"description": item.Description,
			"metrics":     item.Metrics,
			"timestamp":   item.Timestamp,
		}).Error
}

func (s *Store) RetireOpportunityTx(ctx context.Context, tx *gorm.DB, id uint64, retiredAt time.Time) error {
	return tx.WithContext(ctx).
		Model(&models.Opportunity{}).
		Where("id = ?", id).
		Updates(map[string]any{"active": false, "updated_at": retiredAt}).Error
}

func (s *Store) ListOpportunities(ctx context.Context, params repository.ListOpportunitiesParams) ([]models.Opportunity, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.opportunityQuery(ctx, params)
	query = applyOrder(query, params.OrderBy, params.Asc, "score")
	limit := normalizeLimit(params.Limit, 100)
	offset := normalizeOffset(params.Offset)
	var items []models.Opportunity
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountOpportunities(ctx context.Context, params repository.ListOpportunitiesParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	if err := s.opportunityQuery(ctx, params).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) opportunityQuery(ctx context.Context, params repository.ListOpportunitiesParams) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.Opportunity{})
	if params.Active != nil {
		query = query.Where("active = ?", *params.Active)
	}
	if params.Type != nil && strings.TrimSpace(*params.Type) != "" {
		query = query.Where("type = ?", strings.TrimSpace(*params.Type))
	}
	if params.SymbolID != nil {
		query = query.Where("symbol_id = ?", *params.SymbolID)
	}
	if params.MinScore != nil {
		query = query.Where("score >= ?", *params.MinScore)
	}
	return query
}

// --- Refresh runs ------------------------------------------------------------

func (s *Store) InsertRefreshRun(ctx context.Context, item *models.RefreshRun) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) ListRefreshRuns(ctx context.Context, limit int) ([]models.RefreshRun, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.RefreshRun
	if err := s.db.WithContext(ctx).
		Model(&models.RefreshRun{}).
		Order("started_at desc").
		Limit(normalizeLimit(limit, 50)).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- Helpers -----------------------------------------------------------------

func applyOrder(query *gorm.DB, orderBy string, asc *bool, fallback string) *gorm.DB {
	column := strings.TrimSpace(orderBy)
	if column == "" {
		column = fallback
	}
	direction := "desc"
	if asc != nil && *asc {
		direction = "asc"
	}
	return query.Order(column + " " + direction)
}

func createInBatches[T any](db *gorm.DB, items []T, batchSize int) error {
	if len(items) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = 200
	}
	for i := 0; i < len(items); i += batchSize {
		end := i + batchSize
		if end > len(items) {
			end = len(items)
		}
		if err := db.CreateInBatches(items[i:end], batchSize).Error; err != nil {
			return err
		}
	}
	return nil
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > 500 {
		return 500
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
