package treasury

import (
	"context"
	"errors"
	"time"

	"p2p-lending-backend/internal/domain/transfer"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Account is one treasury balance row. Balances are integer asset units and
// never go negative.
type Account struct {
	ID        uint64    `gorm:"primaryKey;column:id"`
	AccountID string    `gorm:"size:64;uniqueIndex:ux_treasury_account_id"`
	Balance   int64     `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Account) TableName() string { return "treasury_accounts" }

// custodyInbound lists the only operations allowed to move value INTO the
// ledger's custody account. Any other credit is unsolicited and rejected.
var custodyInbound = map[transfer.Reference]bool{
	transfer.RefCollateralLock:  true,
	transfer.RefPrincipalEscrow: true,
	transfer.RefRepayment:       true,
}

// Ledger is the gorm-backed value-transfer service. When handed a
// transaction it joins it, so a refused or failing move rolls back whatever
// state change required it.
type Ledger struct {
	db      *gorm.DB
	custody string
}

func NewLedger(db *gorm.DB, custodyAccount string) *Ledger {
	return &Ledger{db: db, custody: custodyAccount}
}

var _ transfer.Service = (*Ledger)(nil)

func (t *Ledger) Transfer(ctx context.Context, tx *gorm.DB, from, to string, amount int64, ref transfer.Reference) error {
	if amount <= 0 {
		return transfer.ErrInvalidAmount
	}
	if to == t.custody && !custodyInbound[ref] {
		return transfer.ErrUnsolicited
	}
	db := t.db
	if tx != nil {
		db = tx
	}

	var src Account
	err := lockForUpdate(db.WithContext(ctx)).
		Where("account_id = ?", from).
		First(&src).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return transfer.ErrUnknownAccount
	}
	if err != nil {
		return err
	}
	if src.Balance < amount {
		return transfer.ErrInsufficientFunds
	}

	src.Balance -= amount
	if err := db.WithContext(ctx).Save(&src).Error; err != nil {
		return err
	}
	return t.credit(ctx, db, to, amount)
}

func (t *Ledger) Balance(ctx context.Context, tx *gorm.DB, account string) (int64, error) {
	db := t.db
	if tx != nil {
		db = tx
	}
	var a Account
	err := db.WithContext(ctx).Where("account_id = ?", account).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, transfer.ErrUnknownAccount
	}
	if err != nil {
		return 0, err
	}
	return a.Balance, nil
}

// Credit is the on-ramp from the external settlement rail: it funds an
// account directly, creating the row if needed. Not part of the Service
// port; ledger operations can only move value that is already inside.
func (t *Ledger) Credit(ctx context.Context, account string, amount int64) error {
	if amount <= 0 {
		return transfer.ErrInvalidAmount
	}
	if account == t.custody {
		return transfer.ErrUnsolicited
	}
	return t.credit(ctx, t.db, account, amount)
}

func (t *Ledger) credit(ctx context.Context, db *gorm.DB, account string, amount int64) error {
	var dst Account
	err := lockForUpdate(db.WithContext(ctx)).
		Where("account_id = ?", account).
		First(&dst).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return db.WithContext(ctx).Create(&Account{AccountID: account, Balance: amount}).Error
	case err != nil:
		return err
	}
	dst.Balance += amount
	return db.WithContext(ctx).Save(&dst).Error
}

// lockForUpdate adds SELECT ... FOR UPDATE where the dialect has row locks.
// SQLite (tests) serializes writers anyway, and rejects the clause.
func lockForUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "sqlite" {
		return db
	}
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}
