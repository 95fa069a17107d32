package model

import "time"

// RoomStatus is the housekeeping state of a physical room.
type RoomStatus string

const (
	RoomAvailable   RoomStatus = "available"
	RoomReserved    RoomStatus = "reserved"
	RoomOccupied    RoomStatus = "occupied"
	RoomMaintenance RoomStatus = "maintenance"
)

// Room represents a physical room with its capacity and pricing tiers.
type Room struct {
	ID               int64      `gorm:"primaryKey" json:"id"`
	RoomNumber       string     `gorm:"uniqueIndex;size:32;not null" json:"roomNumber"`
	Occupancy        int        `gorm:"not null" json:"occupancy"`
	PriceAC          float64    `gorm:"not null" json:"priceAc"`
	PriceNonAC       float64    `gorm:"not null" json:"priceNonAc"`
	OnlinePriceAC    float64    `gorm:"not null" json:"onlinePriceAc"`
	OnlinePriceNonAC float64    `gorm:"not null" json:"onlinePriceNonAc"`
	ExtraBedPrice    float64    `gorm:"not null;default:0" json:"extraBedPrice"`
	Status           RoomStatus `gorm:"size:16;not null;default:available;index" json:"status"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}
