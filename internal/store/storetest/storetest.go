// Package storetest opens throwaway in-memory record stores for tests.
package storetest

import (
	"fmt"
	"testing"

	"ngo_tracker/internal/db"
	"ngo_tracker/internal/store"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a private in-memory SQLite database with every table migrated
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	cfg := db.Config()
	cfg.Logger = logger.Default.LogMode(logger.Silent)
	gdb, err := gorm.Open(sqlite.Open(dsn), cfg)
	if err != nil {
		t.Fatalf("open in-memory database: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate in-memory database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}

// New returns a record store over a fresh in-memory database
func New(t testing.TB) *store.Store {
	t.Helper()
	return store.New(NewDB(t))
}
