package models

import "time"

// Symbol is a watchlist entry. Removal deactivates instead of deleting so
// price and opportunity history stays attached.
type Symbol struct {
	ID          uint64  `gorm:"primaryKey;autoIncrement"`
	Ticker      string  `gorm:"type:varchar(16);uniqueIndex;not null"`
	CompanyName string  `gorm:"type:text"`
	Sector      *string `gorm:"type:text"`
	Active      bool    `gorm:"not null;default:true;index"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Symbol) TableName() string {
	return "symbols"
}
