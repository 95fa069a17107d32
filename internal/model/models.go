package model

// All lists every persisted model in migration order.
func All() []any {
	return []any{
		&Room{},
		&Customer{},
		&Booking{},
		&BookingRoom{},
		&Occupancy{},
		&Payment{},
		&BookingPrefix{},
		&TaxSetting{},
		&StaffSubscription{},
	}
}
