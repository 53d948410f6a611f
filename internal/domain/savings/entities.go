package savings

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrNotOwner        = errors.New("savings: caller is not the owner")
	ErrInvalidAmount   = errors.New("savings: amount must be positive")
	ErrInsufficient    = errors.New("savings: amount exceeds held balance")
	ErrNoRecipient     = errors.New("savings: no recipient configured")
	ErrIntervalNotOver = errors.New("savings: transfer interval has not elapsed")
	ErrNotFound        = errors.New("savings: account not found")
)

// Account is a scheduled-withdrawal savings ledger: one owner, one
// recipient, and a periodic transfer of a fixed fraction of the balance.
// The account row carries configuration only; the value itself lives in
// the treasury under the account id, which stays the single authority on
// what the account holds.
type Account struct {
	ID             uint64         `gorm:"primaryKey;column:id" json:"-"`
	AccountID      string         `gorm:"size:32;uniqueIndex:ux_savings_account_id" json:"account_id"`
	OwnerID        string         `gorm:"size:32;not null" json:"owner_id"`
	RecipientID    string         `gorm:"size:32" json:"recipient_id"`
	FractionBps    int64          `gorm:"not null" json:"fraction_bps"`
	Interval       time.Duration  `gorm:"not null" json:"interval"`
	LastTransferAt time.Time      `json:"last_transfer_at"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Account) TableName() string { return "savings_accounts" }

// TransferDue reports whether the configured interval has elapsed since the
// last automatic transfer.
func (a *Account) TransferDue(now time.Time) bool {
	return !now.Before(a.LastTransferAt.Add(a.Interval))
}

// AutoAmount is the fixed fraction of the held balance moved by one
// automatic transfer, truncated by integer division.
func (a *Account) AutoAmount(balance int64) int64 {
	return balance * a.FractionBps / 10000
}
