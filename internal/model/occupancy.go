package model

import "time"

// Occupancy holds the identity of the guest staying in a booked room.
type Occupancy struct {
	ID            int64     `gorm:"primaryKey" json:"id"`
	BookingRoomID int64     `gorm:"uniqueIndex;not null" json:"bookingRoomId"`
	Name          string    `gorm:"size:128" json:"name,omitempty"`
	Address       string    `gorm:"size:512" json:"address,omitempty"`
	Phone         string    `gorm:"size:32" json:"phone,omitempty"`
	PhotoPath     string    `gorm:"size:512" json:"photoPath,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}
