package model

import "time"

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingAdvance   BookingStatus = "advance"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

// BookingType tells a walk-up direct booking from one held with an advance.
type BookingType string

const (
	BookingTypeDirect  BookingType = "direct"
	BookingTypeAdvance BookingType = "advance"
)

// PlaceholderReference is carried by advance bookings until they are confirmed.
const PlaceholderReference = "-"

// Booking groups the rooms reserved in one front-desk transaction.
type Booking struct {
	ID          int64         `gorm:"primaryKey" json:"id"`
	Reference   string        `gorm:"size:64;not null;index" json:"reference"`
	Status      BookingStatus `gorm:"size:16;not null;index" json:"status"`
	Type        BookingType   `gorm:"size:16;not null" json:"type"`
	CustomerID  *int64        `gorm:"index" json:"customerId,omitempty"`
	BookingDate time.Time     `gorm:"not null" json:"bookingDate"`
	RoomCount   int           `gorm:"not null" json:"roomCount"`
	IsOnline    bool          `gorm:"not null;default:false" json:"isOnline"`
	TaxApplied  bool          `gorm:"not null;default:false" json:"taxApplied"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`

	// Associations
	Customer *Customer    `gorm:"constraint:OnDelete:SET NULL" json:"customer,omitempty"`
	Rooms    []BookingRoom `gorm:"foreignKey:BookingID" json:"rooms,omitempty"`
	Payments []Payment     `gorm:"foreignKey:BookingID" json:"payments,omitempty"`
}
