package models

import (
	"time"

	"gorm.io/datatypes"
)

// RefreshRun is the persisted summary of one batch refresh or scan, one row
// per job invocation.
type RefreshRun struct {
	ID  uint64 `gorm:"primaryKey;autoIncrement"`
	Job string `gorm:"type:varchar(32);not null;index"`

	StartedAt  time.Time      `gorm:"type:timestamptz;not null"`
	FinishedAt time.Time      `gorm:"type:timestamptz;not null"`
	Succeeded  int            `gorm:"not null"`
	Skipped    int            `gorm:"not null"`
	Failed     int            `gorm:"not null"`
	Reasons    datatypes.JSON `gorm:"type:jsonb"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index"`
}

func (RefreshRun) TableName() string {
	return "refresh_runs"
}
