package model

import "time"

// PaymentMethod is how an amount was tendered at the desk.
type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentCard   PaymentMethod = "card"
	PaymentOnline PaymentMethod = "online"
)

// Valid reports whether m is one of the accepted methods.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentOnline:
		return true
	}
	return false
}

// Payment records money received against a booking.
type Payment struct {
	ID             int64         `gorm:"primaryKey" json:"id"`
	BookingID      int64         `gorm:"index;not null" json:"bookingId"`
	Amount         float64       `gorm:"not null" json:"amount"`
	Method         PaymentMethod `gorm:"size:16;not null" json:"method"`
	Note           string        `gorm:"size:512" json:"note,omitempty"`
	TransactionRef *string       `gorm:"size:128" json:"transactionRef,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
}
