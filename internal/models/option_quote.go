package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type GreeksSource string

const (
	// GreeksProvider marks Greeks quoted directly by the data provider.
	GreeksProvider GreeksSource = "provider"
	// GreeksModel marks Greeks derived from the pricing model because the
	// provider did not supply them.
	GreeksModel GreeksSource = "model"
)

// OptionQuote is one append-only snapshot of a contract's market state.
// IV and Greeks are nullable: absent means the provider had none and the
// model could not recover them, never zero.
type OptionQuote struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	ContractID uint64 `gorm:"not null;index:idx_quote_contract_ts"`

	Timestamp    time.Time       `gorm:"type:timestamptz;not null;index:idx_quote_contract_ts,sort:desc"`
	Bid          decimal.Decimal `gorm:"type:numeric(20,6);not null"`
	Ask          decimal.Decimal `gorm:"type:numeric(20,6);not null"`
	Last         decimal.Decimal `gorm:"type:numeric(20,6);not null"`
	Volume       int64           `gorm:"not null"`
	OpenInterest int64           `gorm:"not null"`

	ImpliedVolatility *float64     `gorm:""`
	Delta             *float64     `gorm:""`
	Gamma             *float64     `gorm:""`
	Theta             *float64     `gorm:""`
	Vega              *float64     `gorm:""`
	Rho               *float64     `gorm:""`
	GreeksFrom        GreeksSource `gorm:"type:varchar(10)"`

	// Derived at ingest time.
	BidAskSpread   *float64 `gorm:""`
	SpreadPct      *float64 `gorm:""`
	IntrinsicValue *float64 `gorm:""`
	TimeValue      *float64 `gorm:""`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (OptionQuote) TableName() string {
	return "option_quotes"
}

// Mid returns (bid+ask)/2 when both sides are quoted, else the last price.
func (q *OptionQuote) Mid() float64 {
	bid := q.Bid.InexactFloat64()
	ask := q.Ask.InexactFloat64()
	if bid > 0 && ask > 0 {
		return (bid + ask) / 2
	}
	return q.Last.InexactFloat64()
}
