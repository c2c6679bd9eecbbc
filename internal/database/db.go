package database

import (
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Initialize(dbPath string) (*gorm.DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&TrackedCase{},
		&Publication{},
		&Tombstone{},
		&CheckLog{},
		&CalendarException{},
	); err != nil {
		return err
	}
	return createIndexes(db)
}

// createIndexes creates database indexes AutoMigrate does not cover
func createIndexes(db *gorm.DB) error {
	// Index for publication identity lookups within a case
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_publications_identity
		ON publications(case_id, agreement_id, date)
	`).Error; err != nil {
		return err
	}

	// Index for check history
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_check_logs_case_seq
		ON check_logs(case_id, sequence)
	`).Error; err != nil {
		return err
	}

	return nil
}
