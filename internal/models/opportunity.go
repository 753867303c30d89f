package models

import (
	"time"

	"gorm.io/datatypes"
)

type OpportunityType string

const (
	OpportunityPremiumSell   OpportunityType = "premium_sell"
	OpportunityPremiumBuy    OpportunityType = "premium_buy"
	OpportunityGammaScalp    OpportunityType = "gamma_scalp"
	OpportunityOverpriced    OpportunityType = "overpriced"
	OpportunityUnderpriced   OpportunityType = "underpriced"
	OpportunityHighDelta     OpportunityType = "high_delta"
	OpportunityHighIV        OpportunityType = "high_iv"
	OpportunityLowIV         OpportunityType = "low_iv"
	OpportunityUnusualVolume OpportunityType = "unusual_volume"
	OpportunityHighTimeValue OpportunityType = "high_time_value"
)

// Opportunity is a scored rule match. At most one active row exists per
// (contract, type); retired rows are kept forever as the audit trail and a
// later re-match inserts a fresh row instead of reviving one.
type Opportunity struct {
	ID         uint64  `gorm:"primaryKey;autoIncrement"`
	SymbolID   uint64  `gorm:"not null;index"`
	ContractID *uint64 `gorm:"index:idx_opp_contract_type"`

	Type        OpportunityType `gorm:"type:varchar(20);not null;index:idx_opp_contract_type"`
	Score       float64         `gorm:"not null"`
	Description string          `gorm:"type:text;not null"`
	Metrics     datatypes.JSON  `gorm:"type:jsonb"`
	Active      bool            `gorm:"not null;default:true;index"`

	Timestamp time.Time `gorm:"type:timestamptz;not null"`
	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Opportunity) TableName() string {
	return "opportunities"
}
