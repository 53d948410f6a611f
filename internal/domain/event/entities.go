package event

import "time"

type Type string

const (
	TypeLoanRequested  Type = "loan.requested"
	TypeLoanFunded     Type = "loan.funded"
	TypeLoanRepaid     Type = "loan.repaid"
	TypeLoanLiquidated Type = "loan.liquidated"
)

// LoanEvent is one row of the append-only notification log. Events are
// written in the same transaction as the state change they describe, so the
// log never mentions a transition that was rolled back. The requested event
// snapshots the full terms, so the log reads on its own.
type LoanEvent struct {
	ID              uint64     `gorm:"primaryKey;column:id" json:"-"`
	EventID         string     `gorm:"size:32;uniqueIndex:ux_loan_events_event_id" json:"event_id"`
	LoanID          string     `gorm:"size:32;index:idx_loan_events_loan" json:"loan_id"`
	Type            Type       `gorm:"size:32;not null" json:"type"`
	ActorID         string     `gorm:"size:32" json:"actor_id"`
	Amount          int64      `json:"amount"`
	Collateral      int64      `json:"collateral,omitempty"`
	InterestRateBps int64      `json:"interest_rate_bps,omitempty"`
	DueTime         *time.Time `json:"due_time,omitempty"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (LoanEvent) TableName() string { return "loan_events" }
