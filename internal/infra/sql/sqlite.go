package sql

import (
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const _defaultQueryTimeout = 5 * time.Second

// NewSQLiteORM opens the on-disk command log database. The file is created on
// first use.
func NewSQLiteORM(dsn string) (ORM, error) {
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}

	return &DB{
		DB:                   gormDB,
		autoMigrationEnabled: true,
		timeout:              _defaultQueryTimeout,
	}, nil
}
