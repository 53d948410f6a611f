package loan

import "time"

type RequestLoanInput struct {
	CallerID           string `json:"caller_id"`
	Principal          int64  `json:"principal"`
	DurationDays       int64  `json:"duration_days"`
	InterestRateBps    int64  `json:"interest_rate_bps"`
	AttachedCollateral int64  `json:"attached_collateral"`
}

type FundLoanInput struct {
	CallerID          string
	LoanID            string
	AttachedPrincipal int64
}

type RepayLoanInput struct {
	CallerID        string
	LoanID          string
	AttachedPayment int64
}

type LiquidateLoanInput struct {
	CallerID string
	LoanID   string
}

type LoanDTO struct {
	LoanID          string    `json:"loan_id"`
	BorrowerID      string    `json:"borrower_id"`
	LenderID        string    `json:"lender_id"`
	Principal       int64     `json:"principal"`
	Collateral      int64     `json:"collateral"`
	InterestRateBps int64     `json:"interest_rate_bps"`
	TotalOwed       int64     `json:"total_owed"`
	DueTime         time.Time `json:"due_time"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}

type EventDTO struct {
	EventID         string     `json:"event_id"`
	LoanID          string     `json:"loan_id"`
	Type            string     `json:"type"`
	ActorID         string     `json:"actor_id"`
	Amount          int64      `json:"amount"`
	Collateral      int64      `json:"collateral,omitempty"`
	InterestRateBps int64      `json:"interest_rate_bps,omitempty"`
	DueTime         *time.Time `json:"due_time,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}
