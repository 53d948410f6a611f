package loan

import (
	"math"
	"time"

	"gorm.io/gorm"
)

type Status string

const (
	StatusRequested  Status = "requested"
	StatusFunded     Status = "funded"
	StatusRepaid     Status = "repaid"
	StatusLiquidated Status = "liquidated"
)

// Bounds on accepted loan parameters. Day counts above MaxDurationDays do
// not fit a time.Duration and would wrap the due time into the past;
// principals above MaxPrincipal would wrap the interest fee.
const (
	MaxDurationDays = 106751 // largest whole-day count a time.Duration holds
	MaxRateBps      = 10000
	MaxPrincipal    = math.MaxInt64 / MaxRateBps
)

// Loan is a single collateralized loan record. Amounts are integer asset
// units. Closed loans are never deleted; they stay queryable as history.
type Loan struct {
	ID              uint64         `gorm:"primaryKey;column:id" json:"-"`
	LoanID          string         `gorm:"size:32;uniqueIndex:ux_loans_loan_id" json:"loan_id"`
	BorrowerID      string         `gorm:"size:32;index:idx_loans_borrower" json:"borrower_id"`
	LenderID        string         `gorm:"size:32;index:idx_loans_lender" json:"lender_id"`
	Principal       int64          `gorm:"not null" json:"principal"`
	Collateral      int64          `gorm:"not null" json:"collateral"`
	InterestRateBps int64          `gorm:"not null" json:"interest_rate_bps"`
	DueTime         time.Time      `gorm:"not null" json:"due_time"`
	Status          Status         `gorm:"type:enum('requested','funded','repaid','liquidated');default:'requested'" json:"status"`
	StatusUpdatedAt time.Time      `gorm:"autoCreateTime" json:"status_updated_at"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Loan) TableName() string { return "loans" }

// TotalOwed is principal plus the flat interest fee. The fee is truncated by
// integer floor division; repayment must match this amount exactly.
func (l *Loan) TotalOwed() int64 {
	return l.Principal + l.Principal*l.InterestRateBps/10000
}

// Liquidatable requires strict expiry: a loan due exactly at now is not yet
// liquidatable.
func (l *Loan) Liquidatable(now time.Time) bool {
	return l.Status == StatusFunded && now.After(l.DueTime)
}
