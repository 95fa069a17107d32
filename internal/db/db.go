package db

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"hotel-desk-backend/config"
	"hotel-desk-backend/internal/model"
)

const overlapConstraint = "booking_rooms_no_overlap"

// Init opens the configured database, applies pool settings and runs migrations.
func Init(cfg *config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	if log == nil {
		log = zap.NewNop()
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "", "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	level := logger.Warn
	if cfg.LogSQL {
		level = logger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	if cfg.Driver == "sqlite" {
		// Single writer, otherwise concurrent transactions see "database is locked".
		sqlDB.SetMaxOpenConns(1)
	} else {
		if cfg.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		if cfg.ConnMaxLifetimeMinutes > 0 {
			sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
		}
	}

	log.Info("running database migrations", zap.String("driver", db.Dialector.Name()))
	if err := db.AutoMigrate(model.All()...); err != nil {
		return nil, fmt.Errorf("automigrate failed: %w", err)
	}

	if cfg.EnableOverlapGuard {
		if db.Dialector.Name() != "postgres" {
			log.Warn("overlap guard needs PostgreSQL, skipping", zap.String("driver", db.Dialector.Name()))
		} else if err := applyOverlapGuard(db); err != nil {
			log.Warn("failed to apply overlap guard, continuing without it", zap.Error(err))
		} else {
			log.Info("overlap guard enabled", zap.String("constraint", overlapConstraint))
		}
	}

	log.Info("database initialization complete")
	return db, nil
}

// applyOverlapGuard adds an exclusion constraint so PostgreSQL itself refuses
// two active lines for the same room whose closed stay intervals intersect.
func applyOverlapGuard(db *gorm.DB) error {
	var exists bool
	if err := db.Raw("SELECT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = ?)", overlapConstraint).
		Scan(&exists).Error; err != nil {
		return fmt.Errorf("check constraint: %w", err)
	}
	if exists {
		return nil
	}

	ddls := []string{
		"CREATE EXTENSION IF NOT EXISTS btree_gist;",
		"ALTER TABLE booking_rooms ADD CONSTRAINT " + overlapConstraint + " " +
			"EXCLUDE USING gist (room_id WITH =, tstzrange(check_in, check_out, '[]') WITH &&) " +
			"WHERE (status = 'active');",
	}
	for _, ddl := range ddls {
		if err := db.Exec(ddl).Error; err != nil {
			return fmt.Errorf("DDL failed on %q: %w", ddl, err)
		}
	}
	return nil
}
