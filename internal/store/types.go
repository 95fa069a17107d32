package store

import (
	"fmt"
	"time"

	"hotel-desk-backend/internal/domain"
	"hotel-desk-backend/internal/model"
)

// OccupantInput is the optional identity of the guest staying in one room.
type OccupantInput struct {
	Name      string
	Address   string
	Phone     string
	PhotoPath string
}

func (o OccupantInput) empty() bool {
	return o.Name == "" && o.Address == "" && o.Phone == "" && o.PhotoPath == ""
}

// CustomerInput describes a guest when no customer ID is supplied.
// A customer with the same phone number is reused.
type CustomerInput struct {
	Name    string
	Phone   string
	Email   string
	Address string
}

// PaymentInput is an advance amount taken at booking time.
type PaymentInput struct {
	Amount         float64
	Method         model.PaymentMethod
	Note           string
	TransactionRef string
}

// BookingRequest carries one booking submission. The per-room slices are
// parallel to RoomIDs.
type BookingRequest struct {
	RoomIDs   []int64
	Adults    []int
	Children  []int
	ExtraBeds []int
	IsACs     []bool
	// Occupants is either empty or parallel to RoomIDs.
	Occupants []OccupantInput

	CheckIn  time.Time
	CheckOut time.Time

	IsOnline bool
	ApplyTax bool
	Type     model.BookingType

	// ExistingBookingID names an advance booking to update or confirm.
	ExistingBookingID int64

	CustomerID int64
	Customer   *CustomerInput
	Payment    *PaymentInput

	// Now decides whether rooms become reserved or occupied.
	Now time.Time
}

// BookingResult is returned after a booking has been committed.
type BookingResult struct {
	Booking    *model.Booking
	Payment    *model.Payment
	TaxApplied bool
	Type       model.BookingType
	IsUpdate   bool
}

// Upper bounds on the per-room counts a request may carry.
const (
	MaxGuestsPerRoom    = 50
	MaxExtraBedsPerRoom = 10
)

func (r BookingRequest) validate() error {
	n := len(r.RoomIDs)
	if n == 0 {
		return domain.ValidationError{Field: "room_ids", Msg: "at least one room is required"}
	}
	if len(r.Adults) != n || len(r.Children) != n || len(r.ExtraBeds) != n || len(r.IsACs) != n {
		return domain.ValidationError{Field: "rooms", Msg: "per-room fields must match the number of rooms"}
	}
	if len(r.Occupants) != 0 && len(r.Occupants) != n {
		return domain.ValidationError{Field: "occupants", Msg: "occupant data must match the number of rooms"}
	}

	seen := make(map[int64]bool, n)
	for i, id := range r.RoomIDs {
		if id <= 0 {
			return domain.ValidationError{Field: fmt.Sprintf("room_ids[%d]", i), Msg: "must be a positive id"}
		}
		if seen[id] {
			return domain.ValidationError{Field: fmt.Sprintf("room_ids[%d]", i), Msg: fmt.Sprintf("room %d is listed twice", id)}
		}
		seen[id] = true
		if r.Adults[i] < 1 || r.Adults[i] > MaxGuestsPerRoom {
			return domain.ValidationError{Field: fmt.Sprintf("adults[%d]", i), Msg: fmt.Sprintf("must be between 1 and %d", MaxGuestsPerRoom)}
		}
		if r.Children[i] < 0 || r.Children[i] > MaxGuestsPerRoom {
			return domain.ValidationError{Field: fmt.Sprintf("children[%d]", i), Msg: fmt.Sprintf("must be between 0 and %d", MaxGuestsPerRoom)}
		}
		if r.ExtraBeds[i] < 0 || r.ExtraBeds[i] > MaxExtraBedsPerRoom {
			return domain.ValidationError{Field: fmt.Sprintf("extra_beds[%d]", i), Msg: fmt.Sprintf("must be between 0 and %d", MaxExtraBedsPerRoom)}
		}
	}

	if r.CheckIn.IsZero() || r.CheckOut.IsZero() {
		return domain.ValidationError{Field: "check_in", Msg: "check-in and check-out are required"}
	}
	if !r.CheckIn.Before(r.CheckOut) {
		return domain.ValidationError{Field: "check_out", Msg: "check-out must be after check-in"}
	}

	switch r.Type {
	case "", model.BookingTypeDirect, model.BookingTypeAdvance:
	default:
		return domain.ValidationError{Field: "booking_type", Msg: fmt.Sprintf("unknown booking type %q", r.Type)}
	}

	if p := r.Payment; p != nil {
		if p.Amount < 0 {
			return domain.ValidationError{Field: "advance_payment", Msg: "must not be negative"}
		}
		if p.Amount > 0 && !p.Method.Valid() {
			return domain.ValidationError{Field: "payment_method", Msg: fmt.Sprintf("unknown payment method %q", p.Method)}
		}
	}
	return nil
}
