// Package testdb opens throwaway in-memory SQLite databases for repository
// and usecase tests. The loans table is migrated from a SQLite-safe shadow
// model because the domain model's enum column type is MySQL-only; the
// column names and table name match, so the real repositories work
// unchanged on top.
package testdb

import (
	"testing"
	"time"

	"p2p-lending-backend/internal/domain/event"
	"p2p-lending-backend/internal/domain/savings"
	"p2p-lending-backend/internal/infrastructure/treasury"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type loanSQLite struct {
	ID              uint64         `gorm:"primaryKey;column:id"`
	LoanID          string         `gorm:"size:32;column:loan_id;uniqueIndex"`
	BorrowerID      string         `gorm:"size:32;column:borrower_id"`
	LenderID        string         `gorm:"size:32;column:lender_id"`
	Principal       int64          `gorm:"column:principal"`
	Collateral      int64          `gorm:"column:collateral"`
	InterestRateBps int64          `gorm:"column:interest_rate_bps"`
	DueTime         time.Time      `gorm:"column:due_time"`
	Status          string         `gorm:"type:text;column:status"` // no enum
	StatusUpdatedAt time.Time      `gorm:"column:status_updated_at"`
	CreatedAt       time.Time      `gorm:"column:created_at"`
	UpdatedAt       time.Time      `gorm:"column:updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"column:deleted_at"`
}

func (loanSQLite) TableName() string { return "loans" }

// Open returns an in-memory database with the full schema migrated.
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// every pooled connection gets its own :memory: database; pin to one
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(
		&loanSQLite{},
		&event.LoanEvent{},
		&savings.Account{},
		&treasury.Account{},
	); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}
