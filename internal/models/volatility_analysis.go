package models

import "time"

// VolatilityAnalysis is one per-symbol snapshot of IV context. HV fields stay
// nil when the close history is too short for the window.
type VolatilityAnalysis struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement"`
	SymbolID uint64 `gorm:"not null;index:idx_vol_symbol_ts"`

	Timestamp    time.Time `gorm:"type:timestamptz;not null;index:idx_vol_symbol_ts,sort:desc"`
	CurrentIV    float64   `gorm:"not null"`
	IVRank       float64   `gorm:"not null"`
	IVPercentile float64   `gorm:"not null"`
	HV20         *float64  `gorm:""`
	HV30         *float64  `gorm:""`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (VolatilityAnalysis) TableName() string {
	return "volatility_analyses"
}
