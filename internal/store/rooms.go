package store

import (
	"context"
	"fmt"
	"time"

	"hotel-desk-backend/internal/domain"
	"hotel-desk-backend/internal/model"
)

// AvailableRooms lists rooms outside maintenance with no active line
// overlapping [checkIn, checkOut], ordered by room number.
func (s *gormStore) AvailableRooms(ctx context.Context, checkIn, checkOut time.Time) ([]model.Room, error) {
	if checkIn.IsZero() || checkOut.IsZero() || !checkIn.Before(checkOut) {
		return nil, domain.ValidationError{Field: "check_out", Msg: "check-out must be after check-in"}
	}

	db := s.db.WithContext(ctx)
	busy := db.Model(&model.BookingRoom{}).
		Select("room_id").
		Where("status = ? AND check_in <= ? AND check_out >= ?", model.BookingRoomActive, checkOut.UTC(), checkIn.UTC())

	var rooms []model.Room
	err := db.Where("status <> ?", model.RoomMaintenance).
		Where("id NOT IN (?)", busy).
		Order("room_number").
		Find(&rooms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list available rooms: %w", err)
	}
	return rooms, nil
}

// PromoteArrivals marks reserved rooms occupied once the stay of one of their
// active lines has started. It returns the number of rooms changed.
func (s *gormStore) PromoteArrivals(ctx context.Context, now time.Time) (int64, error) {
	db := s.db.WithContext(ctx)
	now = now.UTC()
	arriving := db.Model(&model.BookingRoom{}).
		Select("room_id").
		Where("status = ? AND check_in <= ? AND check_out >= ?", model.BookingRoomActive, now, now)

	res := db.Model(&model.Room{}).
		Where("status = ?", model.RoomReserved).
		Where("id IN (?)", arriving).
		Update("status", model.RoomOccupied)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to promote arrivals: %w", res.Error)
	}
	return res.RowsAffected, nil
}
