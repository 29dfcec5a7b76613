package database

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"field-service-server/config"
	"field-service-server/models"
)

var DB *gorm.DB

// sqlitePrefix selects the SQLite driver, e.g. sqlite:file:dev.db or
// sqlite:file::memory:?cache=shared.
const sqlitePrefix = "sqlite:"

// Initialize opens the configured database, runs migrations and stores the
// handle in DB.
func Initialize(cfg config.DatabaseConfig) error {
	db, err := Open(cfg, logger.Info)
	if err != nil {
		return err
	}
	if err := Migrate(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Println("✅ Database migrations completed successfully")

	DB = db
	return nil
}

// Open connects to the database named by cfg.URL. Postgres URLs use the pgx
// driver; URLs prefixed with "sqlite:" use SQLite.
func Open(cfg config.DatabaseConfig, level logger.LogLevel) (*gorm.DB, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("DB_URL is required. Set DB_URL to a Postgres URL or sqlite:<path>")
	}

	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	var dialector gorm.Dialector
	isSQLite := strings.HasPrefix(cfg.URL, sqlitePrefix)
	if isSQLite {
		dialector = sqlite.Open(strings.TrimPrefix(cfg.URL, sqlitePrefix))
	} else {
		dialector = postgres.Open(cfg.URL)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying SQL database: %w", err)
	}

	if isSQLite {
		// SQLite allows one writer; a single connection also keeps an
		// in-memory database alive and shared.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("✅ Successfully connected to %s database", dialector.Name())
	return db, nil
}

// Migrate creates or updates the scheduling tables and their indexes.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.SchedulingConfig{},
		&models.BusinessHours{},
		&models.Zone{},
		&models.ZoneTravelTime{},
		&models.Crew{},
		&models.Job{},
		&models.BookingRequest{},
		&models.BookingStatusEvent{},
	); err != nil {
		return err
	}
	return migrateBookingIndexes(db)
}

// migrateBookingIndexes adds the partial unique indexes gorm tags can't express.
func migrateBookingIndexes(db *gorm.DB) error {
	statements := []string{
		// One confirmed booking per crew and start time.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_booking_requests_crew_slot
			ON booking_requests (tenant_id, assigned_crew_id, confirmed_date, confirmed_time)
			WHERE status = 'confirmed' AND assigned_crew_id IS NOT NULL`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_booking_requests_idempotency
			ON booking_requests (tenant_id, idempotency_key)
			WHERE idempotency_key IS NOT NULL`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

func GetDB() *gorm.DB {
	return DB
}

// Ping checks that db still answers.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
