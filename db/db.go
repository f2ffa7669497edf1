package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store wraps the gorm handle. Constructed once in main and passed to every
// component that needs persistence.
type Store struct {
	db *gorm.DB
}

func New(dsn string) (*Store, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("db: failed to connect: %w", err)
	}

	err = gdb.AutoMigrate(
		&Tenant{},
		&Member{},
		&SchedulePreference{},
		&TriggerEntry{},
		&Round{},
		&Response{},
		&DelayedAction{},
		&WorkflowCheckpoint{},
	)
	if err != nil {
		return nil, fmt.Errorf("db: migration failed: %w", err)
	}
	return &Store{db: gdb}, nil
}
