package model

import "time"

// BookingPrefix is the shared counter used to build booking references.
// Only one row is expected to be active at a time.
type BookingPrefix struct {
	ID        int64  `gorm:"primaryKey"`
	Prefix    string `gorm:"size:16;not null"`
	Counter   int64  `gorm:"not null"`
	Active    bool   `gorm:"not null;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TaxSetting is the configured tax percentage applied when a booking asks for tax.
type TaxSetting struct {
	ID         int64   `gorm:"primaryKey"`
	Name       string  `gorm:"size:64;not null"`
	Percentage float64 `gorm:"not null"`
	Active     bool    `gorm:"not null;index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
