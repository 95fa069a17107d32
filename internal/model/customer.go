package model

import "time"

// Customer is the guest a booking is made for.
type Customer struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:128;not null" json:"name"`
	Phone     *string   `gorm:"uniqueIndex;size:32" json:"phone,omitempty"`
	Email     string    `gorm:"size:128" json:"email,omitempty"`
	Address   string    `gorm:"size:512" json:"address,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
