package db

import (
	"optionstracker/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.Symbol{},
		&models.PriceBar{},
		&models.OptionContract{},
		&models.OptionQuote{},
		&models.VolatilityAnalysis{},
		&models.Opportunity{},
		&models.RefreshRun{},
	)
}
