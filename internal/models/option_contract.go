package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OptionType string

const (
	OptionCall OptionType = "call"
	OptionPut  OptionType = "put"
)

type ExerciseStyle string

const (
	ExerciseAmerican ExerciseStyle = "american"
	ExerciseEuropean ExerciseStyle = "european"
)

// OptionContract is immutable reference data created on chain ingestion.
// ContractSymbol is the provider's OCC-style identifier.
type OptionContract struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement"`
	SymbolID uint64 `gorm:"not null;index"`

	ContractSymbol string          `gorm:"type:varchar(32);uniqueIndex;not null"`
	Strike         decimal.Decimal `gorm:"type:numeric(20,6);not null"`
	Expiry         time.Time       `gorm:"type:date;not null;index"`
	Type           OptionType      `gorm:"type:varchar(4);not null"`
	Style          ExerciseStyle   `gorm:"type:varchar(10);not null;default:'american'"`
	SharesPerLot   int             `gorm:"not null;default:100"`
	Active         bool            `gorm:"not null;default:true;index"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (OptionContract) TableName() string {
	return "option_contracts"
}
