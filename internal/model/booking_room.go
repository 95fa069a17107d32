package model

import "time"

// BookingRoomStatus is the state of a single room reservation line.
type BookingRoomStatus string

const (
	BookingRoomActive     BookingRoomStatus = "active"
	BookingRoomCancelled  BookingRoomStatus = "cancelled"
	BookingRoomCheckedOut BookingRoomStatus = "checked_out"
)

// BookingRoom is the per-room reservation line of a booking.
type BookingRoom struct {
	ID            int64             `gorm:"primaryKey" json:"id"`
	BookingID     int64             `gorm:"index;not null" json:"bookingId"`
	RoomID        int64             `gorm:"index:idx_booking_rooms_room_period;not null" json:"roomId"`
	CheckIn       time.Time         `gorm:"index:idx_booking_rooms_room_period;not null" json:"checkIn"`
	CheckOut      time.Time         `gorm:"index:idx_booking_rooms_room_period;not null" json:"checkOut"`
	BookedPrice   float64           `gorm:"not null" json:"bookedPrice"`
	TaxAmount     float64           `gorm:"not null;default:0" json:"taxAmount"`
	Adults        int               `gorm:"not null" json:"adults"`
	Children      int               `gorm:"not null;default:0" json:"children"`
	ExtraBeds     int               `gorm:"not null;default:0" json:"extraBeds"`
	ExtraBedPrice float64           `gorm:"not null;default:0" json:"extraBedPrice"`
	IsAC          bool              `gorm:"column:is_ac;not null;default:false" json:"isAc"`
	Status        BookingRoomStatus `gorm:"size:16;not null;index" json:"status"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`

	// Associations
	Room      Room       `gorm:"constraint:OnDelete:RESTRICT" json:"room"`
	Occupancy *Occupancy `gorm:"foreignKey:BookingRoomID" json:"occupancy,omitempty"`
}
