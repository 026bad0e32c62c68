package testutil

import (
	"os"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	types "github.com/yungbote/memberhub-backend/internal/domain"
	"github.com/yungbote/memberhub-backend/internal/platform/logger"
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	log, err := logger.New("test")
	if err != nil {
		tb.Fatalf("failed to init logger: %v", err)
	}
	return log
}

// DB returns a migrated database private to the calling test. It is an in-memory SQLite
// database unless TEST_POSTGRES_DSN points at a Postgres instance, in which case callers
// should isolate their writes with Tx.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	cfg := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
	}

	var (
		db  *gorm.DB
		err error
	)
	if dsn := os.Getenv("TEST_POSTGRES_DSN"); dsn != "" {
		db, err = gorm.Open(postgres.Open(dsn), cfg)
	} else {
		db, err = gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), cfg)
		if err == nil {
			sqlDB, dbErr := db.DB()
			if dbErr != nil {
				tb.Fatalf("sqlite handle: %v", dbErr)
			}
			// One connection keeps the shared in-memory database alive and serializes writers.
			sqlDB.SetMaxOpenConns(1)
			tb.Cleanup(func() { _ = sqlDB.Close() })
		}
	}
	if err != nil {
		tb.Fatalf("failed to open test db: %v", err)
	}
	if err := db.AutoMigrate(types.Models()...); err != nil {
		tb.Fatalf("automigrate: %v", err)
	}
	return db
}

func Tx(tb testing.TB, db *gorm.DB) *gorm.DB {
	tb.Helper()
	tx := db.Begin()
	if tx.Error != nil {
		tb.Fatalf("begin tx: %v", tx.Error)
	}
	tb.Cleanup(func() {
		_ = tx.Rollback().Error
	})
	return tx
}
