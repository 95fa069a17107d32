package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hotel-desk-backend/config"
	"hotel-desk-backend/internal/domain"
	"hotel-desk-backend/internal/lock"
	"hotel-desk-backend/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	CreateBooking(ctx context.Context, req BookingRequest) (*BookingResult, error)
	AvailableRooms(ctx context.Context, checkIn, checkOut time.Time) ([]model.Room, error)
	PromoteArrivals(ctx context.Context, now time.Time) (int64, error)
	Seed(ctx context.Context, seed config.SeedConfig) error
	DB() *gorm.DB
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db     *gorm.DB
	locker lock.Locker
	logger *zap.Logger
}

// NewGormStore creates a new GORM-backed store. A nil locker serializes
// booking creation within this process only.
func NewGormStore(db *gorm.DB, locker lock.Locker, logger *zap.Logger) Store {
	if locker == nil {
		locker = lock.NewLocal()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &gormStore{db: db, locker: locker, logger: logger}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// CreateBooking validates req and, inside one transaction, checks capacity and
// overlapping reservations, allocates the reference, and writes the booking,
// its room lines, occupants, payment and room statuses. Nothing is written when
// an error is returned.
func (s *gormStore) CreateBooking(ctx context.Context, req BookingRequest) (*BookingResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if req.Type == "" {
		req.Type = model.BookingTypeDirect
	}
	if req.Now.IsZero() {
		req.Now = time.Now()
	}
	checkIn, checkOut := req.CheckIn.UTC(), req.CheckOut.UTC()
	now := req.Now.UTC()

	release, err := s.locker.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire booking lock: %w", err)
	}
	defer release()

	var result *BookingResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rooms, err := loadRooms(tx, req.RoomIDs)
		if err != nil {
			return err
		}
		for i, room := range rooms {
			if room.Status == model.RoomMaintenance {
				return domain.ValidationError{Field: "room_ids", Msg: fmt.Sprintf("room %s is under maintenance", room.RoomNumber)}
			}
			adults, children := req.Adults[i], req.Children[i]
			if adults > room.Occupancy || children > room.Occupancy-adults {
				return domain.ValidationError{
					Field: "occupancy",
					Msg:   fmt.Sprintf("room %s allows at most %d guests, got %d adults and %d children", room.RoomNumber, room.Occupancy, adults, children),
				}
			}
		}

		var existing *model.Booking
		if req.ExistingBookingID != 0 {
			existing, err = loadAdvanceBooking(tx, req.ExistingBookingID)
			if err != nil {
				return err
			}
		}

		var excludeID int64
		if existing != nil {
			excludeID = existing.ID
		}
		if err := checkConflicts(tx, rooms, checkIn, checkOut, excludeID); err != nil {
			return err
		}

		direct := req.Type == model.BookingTypeDirect
		reference, err := allocateReference(tx, direct)
		if err != nil {
			return err
		}

		var taxPct float64
		if req.ApplyTax {
			if taxPct, err = activeTaxPercentage(tx); err != nil {
				return err
			}
		}

		customerID, err := resolveCustomer(tx, req)
		if err != nil {
			return err
		}

		booking, previousRoomIDs, err := saveBooking(tx, existing, req, reference, customerID, now, len(rooms))
		if err != nil {
			return err
		}

		lines := make([]model.BookingRoom, 0, len(rooms))
		for i, room := range rooms {
			line, err := createRoomLine(tx, booking.ID, room, req, i, checkIn, checkOut, taxPct)
			if err != nil {
				return err
			}
			lines = append(lines, line)
		}
		booking.Rooms = lines

		var payment *model.Payment
		if req.Payment != nil && req.Payment.Amount > 0 {
			if payment, err = createPayment(tx, booking.ID, *req.Payment); err != nil {
				return err
			}
			booking.Payments = []model.Payment{*payment}
		}

		status := model.RoomOccupied
		if checkIn.After(now) {
			status = model.RoomReserved
		}
		if err := tx.Model(&model.Room{}).Where("id IN ?", req.RoomIDs).Update("status", status).Error; err != nil {
			return fmt.Errorf("failed to update room status: %w", err)
		}
		for i := range booking.Rooms {
			booking.Rooms[i].Room.Status = status
		}

		if err := releaseRooms(tx, droppedRooms(previousRoomIDs, req.RoomIDs)); err != nil {
			return err
		}

		result = &BookingResult{
			Booking:    booking,
			Payment:    payment,
			TaxApplied: req.ApplyTax,
			Type:       req.Type,
			IsUpdate:   existing != nil,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking saved",
		zap.Int64("booking_id", result.Booking.ID),
		zap.String("reference", result.Booking.Reference),
		zap.String("status", string(result.Booking.Status)),
		zap.Int("rooms", len(result.Booking.Rooms)),
		zap.Bool("update", result.IsUpdate),
	)
	return result, nil
}

// loadRooms returns the rooms in the order of ids.
func loadRooms(tx *gorm.DB, ids []int64) ([]model.Room, error) {
	var found []model.Room
	if err := tx.Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, fmt.Errorf("failed to load rooms: %w", err)
	}
	byID := make(map[int64]model.Room, len(found))
	for _, r := range found {
		byID[r.ID] = r
	}

	rooms := make([]model.Room, 0, len(ids))
	for _, id := range ids {
		room, ok := byID[id]
		if !ok {
			return nil, domain.NotFoundError{Resource: "room", ID: id}
		}
		rooms = append(rooms, room)
	}
	return rooms, nil
}

func loadAdvanceBooking(tx *gorm.DB, id int64) (*model.Booking, error) {
	var booking model.Booking
	err := tx.Preload("Rooms").First(&booking, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NotFoundError{Resource: "booking", ID: id, Err: err}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load booking %d: %w", id, err)
	}
	if booking.Status != model.BookingAdvance {
		return nil, domain.ValidationError{
			Field: "booking_id",
			Msg:   fmt.Sprintf("booking %d is %s; only advance bookings can be updated", id, booking.Status),
		}
	}
	return &booking, nil
}

// checkConflicts fails when any requested room has an active reservation line
// overlapping [checkIn, checkOut]. Lines of excludeBookingID are ignored.
func checkConflicts(tx *gorm.DB, rooms []model.Room, checkIn, checkOut time.Time, excludeBookingID int64) error {
	ids := make([]int64, len(rooms))
	for i, r := range rooms {
		ids[i] = r.ID
	}

	q := tx.Where("room_id IN ? AND status = ? AND check_in <= ? AND check_out >= ?",
		ids, model.BookingRoomActive, checkOut, checkIn)
	if excludeBookingID != 0 {
		q = q.Where("booking_id <> ?", excludeBookingID)
	}
	var clashes []model.BookingRoom
	if err := q.Find(&clashes).Error; err != nil {
		return fmt.Errorf("failed to check room availability: %w", err)
	}
	if len(clashes) == 0 {
		return nil
	}

	clashing := make(map[int64]bool, len(clashes))
	for _, c := range clashes {
		if Overlaps(c.CheckIn, c.CheckOut, checkIn, checkOut) {
			clashing[c.RoomID] = true
		}
	}
	if len(clashing) == 0 {
		return nil
	}
	var numbers []string
	for _, r := range rooms {
		if clashing[r.ID] {
			numbers = append(numbers, r.RoomNumber)
		}
	}
	return domain.ConflictError{
		Resource: "room",
		Msg:      "already booked for the selected dates",
		Keys:     numbers,
	}
}

// allocateReference reads the active prefix and, for direct bookings, hands out
// the current counter value and increments it. Advance bookings get the
// placeholder and leave the counter alone.
func allocateReference(tx *gorm.DB, direct bool) (string, error) {
	q := tx.Where("active = ?", true).Order("id")
	if tx.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var prefix model.BookingPrefix
	err := q.First(&prefix).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", domain.ValidationError{Field: "booking_prefix", Msg: "no active booking prefix is configured", Err: err}
	}
	if err != nil {
		return "", fmt.Errorf("failed to load booking prefix: %w", err)
	}

	if !direct {
		return model.PlaceholderReference, nil
	}

	reference := FormatReference(prefix.Prefix, prefix.Counter)
	if err := tx.Model(&prefix).Update("counter", gorm.Expr("counter + ?", 1)).Error; err != nil {
		return "", fmt.Errorf("failed to advance booking prefix: %w", err)
	}
	return reference, nil
}

func activeTaxPercentage(tx *gorm.DB) (float64, error) {
	var tax model.TaxSetting
	err := tx.Where("active = ?", true).Order("id").First(&tax).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, domain.ValidationError{Field: "apply_tax", Msg: "tax requested but no active tax setting is configured", Err: err}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load tax setting: %w", err)
	}
	return tax.Percentage, nil
}

// resolveCustomer returns the customer to link, or nil when the booking has none.
func resolveCustomer(tx *gorm.DB, req BookingRequest) (*int64, error) {
	if req.CustomerID != 0 {
		var c model.Customer
		err := tx.Select("id").First(&c, req.CustomerID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFoundError{Resource: "customer", ID: req.CustomerID, Err: err}
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load customer %d: %w", req.CustomerID, err)
		}
		return &c.ID, nil
	}

	in := req.Customer
	if in == nil || (in.Name == "" && in.Phone == "") {
		return nil, nil
	}

	customer := model.Customer{Name: in.Name, Email: in.Email, Address: in.Address}
	if in.Phone != "" {
		phone := in.Phone
		customer.Phone = &phone
		err := tx.Where("phone = ?", phone).First(&customer).Error
		if err == nil {
			return &customer.ID, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to look up customer by phone: %w", err)
		}
	}
	if customer.Name == "" {
		return nil, domain.ValidationError{Field: "customer_name", Msg: "required for a new customer"}
	}
	if err := tx.Create(&customer).Error; err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	return &customer.ID, nil
}

// saveBooking creates a new booking, or rewrites an advance booking and drops
// its previous room lines. It returns the room IDs the booking held before.
func saveBooking(tx *gorm.DB, existing *model.Booking, req BookingRequest, reference string, customerID *int64, now time.Time, roomCount int) (*model.Booking, []int64, error) {
	status := model.BookingConfirmed
	if req.Type == model.BookingTypeAdvance {
		status = model.BookingAdvance
	}

	if existing == nil {
		booking := model.Booking{
			Reference:   reference,
			Status:      status,
			Type:        req.Type,
			CustomerID:  customerID,
			BookingDate: now,
			RoomCount:   roomCount,
			IsOnline:    req.IsOnline,
			TaxApplied:  req.ApplyTax,
		}
		if err := tx.Omit(clause.Associations).Create(&booking).Error; err != nil {
			return nil, nil, fmt.Errorf("failed to create booking: %w", err)
		}
		return &booking, nil, nil
	}

	previous := make([]int64, 0, len(existing.Rooms))
	for _, line := range existing.Rooms {
		previous = append(previous, line.RoomID)
	}

	lineIDs := tx.Model(&model.BookingRoom{}).Select("id").Where("booking_id = ?", existing.ID)
	if err := tx.Where("booking_room_id IN (?)", lineIDs).Delete(&model.Occupancy{}).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to delete occupants of booking %d: %w", existing.ID, err)
	}
	if err := tx.Where("booking_id = ?", existing.ID).Delete(&model.BookingRoom{}).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to delete room lines of booking %d: %w", existing.ID, err)
	}

	existing.Reference = reference
	existing.Status = status
	existing.Type = req.Type
	if customerID != nil {
		existing.CustomerID = customerID
	}
	existing.RoomCount = roomCount
	existing.IsOnline = req.IsOnline
	existing.TaxApplied = req.ApplyTax
	existing.Rooms = nil
	if err := tx.Omit(clause.Associations).Save(existing).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to update booking %d: %w", existing.ID, err)
	}
	return existing, previous, nil
}

func createRoomLine(tx *gorm.DB, bookingID int64, room model.Room, req BookingRequest, i int, checkIn, checkOut time.Time, taxPct float64) (model.BookingRoom, error) {
	price := SelectPrice(room, req.IsACs[i], req.IsOnline)
	extraBedPrice := round2(float64(req.ExtraBeds[i]) * room.ExtraBedPrice)

	var tax float64
	if req.ApplyTax {
		tax = ComputeTax(price, extraBedPrice, taxPct)
	}

	line := model.BookingRoom{
		BookingID:     bookingID,
		RoomID:        room.ID,
		CheckIn:       checkIn,
		CheckOut:      checkOut,
		BookedPrice:   price,
		TaxAmount:     tax,
		Adults:        req.Adults[i],
		Children:      req.Children[i],
		ExtraBeds:     req.ExtraBeds[i],
		ExtraBedPrice: extraBedPrice,
		IsAC:          req.IsACs[i],
		Status:        model.BookingRoomActive,
	}
	if err := tx.Omit(clause.Associations).Create(&line).Error; err != nil {
		return line, fmt.Errorf("failed to create room line for room %s: %w", room.RoomNumber, err)
	}

	if len(req.Occupants) > 0 && !req.Occupants[i].empty() {
		in := req.Occupants[i]
		occ := model.Occupancy{
			BookingRoomID: line.ID,
			Name:          in.Name,
			Address:       in.Address,
			Phone:         in.Phone,
			PhotoPath:     in.PhotoPath,
		}
		if err := tx.Create(&occ).Error; err != nil {
			return line, fmt.Errorf("failed to create occupant for room %s: %w", room.RoomNumber, err)
		}
		line.Occupancy = &occ
	}

	line.Room = room
	return line, nil
}

func createPayment(tx *gorm.DB, bookingID int64, in PaymentInput) (*model.Payment, error) {
	payment := model.Payment{
		BookingID: bookingID,
		Amount:    round2(in.Amount),
		Method:    in.Method,
		Note:      in.Note,
	}
	if in.TransactionRef != "" {
		ref := in.TransactionRef
		payment.TransactionRef = &ref
	}
	if err := tx.Create(&payment).Error; err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}
	return &payment, nil
}

// releaseRooms marks rooms available again once they have no active lines left.
func releaseRooms(tx *gorm.DB, roomIDs []int64) error {
	if len(roomIDs) == 0 {
		return nil
	}
	err := tx.Model(&model.Room{}).
		Where("id IN ? AND status IN ?", roomIDs, []model.RoomStatus{model.RoomReserved, model.RoomOccupied}).
		Where("NOT EXISTS (SELECT 1 FROM booking_rooms br WHERE br.room_id = rooms.id AND br.status = ?)", model.BookingRoomActive).
		Update("status", model.RoomAvailable).Error
	if err != nil {
		return fmt.Errorf("failed to release rooms: %w", err)
	}
	return nil
}

func droppedRooms(previous, current []int64) []int64 {
	keep := make(map[int64]bool, len(current))
	for _, id := range current {
		keep[id] = true
	}
	var dropped []int64
	for _, id := range previous {
		if !keep[id] {
			dropped = append(dropped, id)
		}
	}
	return dropped
}
