package store

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hotel-desk-backend/config"
	"hotel-desk-backend/internal/model"
)

// Seed creates the configured rooms, booking prefix and tax setting. Rows that
// already exist are left untouched, so it is safe to run on every start.
func (s *gormStore) Seed(ctx context.Context, seed config.SeedConfig) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(seed.Rooms) > 0 {
			rooms := make([]model.Room, 0, len(seed.Rooms))
			for _, r := range seed.Rooms {
				rooms = append(rooms, model.Room{
					RoomNumber:       r.Number,
					Occupancy:        r.Occupancy,
					PriceAC:          r.PriceAC,
					PriceNonAC:       r.PriceNonAC,
					OnlinePriceAC:    r.OnlinePriceAC,
					OnlinePriceNonAC: r.OnlinePriceNonAC,
					ExtraBedPrice:    r.ExtraBedPrice,
					Status:           model.RoomAvailable,
				})
			}
			res := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "room_number"}},
				DoNothing: true,
			}).Create(&rooms)
			if res.Error != nil {
				return fmt.Errorf("failed to seed rooms: %w", res.Error)
			}
			s.logger.Info("seeded rooms", zap.Int64("created", res.RowsAffected))
		}

		if seed.Prefix != "" {
			var prefix model.BookingPrefix
			err := tx.Where("active = ?", true).First(&prefix).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				prefix = model.BookingPrefix{Prefix: seed.Prefix, Counter: seed.StartCounter, Active: true}
				if err := tx.Create(&prefix).Error; err != nil {
					return fmt.Errorf("failed to seed booking prefix: %w", err)
				}
				s.logger.Info("seeded booking prefix", zap.String("prefix", seed.Prefix), zap.Int64("counter", seed.StartCounter))
			} else if err != nil {
				return fmt.Errorf("failed to load booking prefix: %w", err)
			}
		}

		if seed.TaxName != "" {
			var tax model.TaxSetting
			err := tx.Where("active = ?", true).First(&tax).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				tax = model.TaxSetting{Name: seed.TaxName, Percentage: seed.TaxPercentage, Active: true}
				if err := tx.Create(&tax).Error; err != nil {
					return fmt.Errorf("failed to seed tax setting: %w", err)
				}
				s.logger.Info("seeded tax setting", zap.String("name", seed.TaxName), zap.Float64("percentage", seed.TaxPercentage))
			} else if err != nil {
				return fmt.Errorf("failed to load tax setting: %w", err)
			}
		}
		return nil
	})
}
