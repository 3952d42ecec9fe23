// Package store is accountd's persistence layer: schema migration, the
// account store and field-level encryption of provider tokens at rest.
package store

import (
	"errors"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/adonese/accountd/models"
)

// OpenDB opens the sqlite database at path and migrates the schema.
func OpenDB(path string, debug bool) (*gorm.DB, error) {
	if path == "" {
		path = "accountd.db"
	}
	cfg := &gorm.Config{TranslateError: true}
	if !debug {
		cfg.Logger = logger.Default.LogMode(logger.Silent)
	}
	db, err := gorm.Open(sqlite.Open(path), cfg)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(
		&models.Account{},
		&models.AccountConfig{},
		&models.ProviderLink{},
	); err != nil {
		return nil, err
	}
	return db, nil
}

// IsUniqueViolation reports whether err is a uniqueness-constraint
// rejection from the database. The string check covers sqlite errors that
// predate gorm's error translation.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
