package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceBar is one daily OHLCV bar. Immutable once stored; the unique index
// makes re-ingestion of the same trading day an upsert, not a duplicate.
type PriceBar struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement"`
	SymbolID uint64 `gorm:"not null;uniqueIndex:idx_bar_symbol_day;index"`

	TradingDay time.Time       `gorm:"type:date;not null;uniqueIndex:idx_bar_symbol_day"`
	Open       decimal.Decimal `gorm:"type:numeric(20,6);not null"`
	High       decimal.Decimal `gorm:"type:numeric(20,6);not null"`
	Low        decimal.Decimal `gorm:"type:numeric(20,6);not null"`
	Close      decimal.Decimal `gorm:"type:numeric(20,6);not null"`
	Volume     int64           `gorm:"not null"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (PriceBar) TableName() string {
	return "price_bars"
}
