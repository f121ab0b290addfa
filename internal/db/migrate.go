package db

import (
	"ngo_tracker/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus"

	"gorm.io/driver/mysql" // MySQL driver for GORM
	"gorm.io/gorm"         // GORM ORM library
)

// Models lists every table owned by the record store
var Models = []any{
	&domain.User{},
	&domain.NGO{},
	&domain.NGODocument{},
	&domain.Project{},
	&domain.Donation{},
}

// Config is the gorm configuration shared by the server and the test stores.
// TranslateError turns driver unique-key violations into gorm.ErrDuplicatedKey.
func Config() *gorm.Config {
	return &gorm.Config{TranslateError: true}
}

// Open connects to MySQL
func Open(dsn string) (*gorm.DB, error) {
	return gorm.Open(mysql.Open(dsn), Config())
}

// AutoMigrate creates tables, missing columns and indexes for all models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models...)
}

// Migrate performs automatic migration for the database schema
func Migrate(dsn string) {
	db, err := Open(dsn) // Open a connection to the database
	if err != nil {
		logrus.Fatalf("failed to connect database: %v", err) // Log fatal error if connection fails
	}
	if err := AutoMigrate(db); err != nil {
		logrus.Fatalf("migration failed: %v", err) // Log fatal error if migration fails
	}
	logrus.Info("Migration completed.") // Log successful migration
}
