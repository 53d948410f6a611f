package transfer

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrInvalidAmount     = errors.New("transfer: amount must be positive")
	ErrInsufficientFunds = errors.New("transfer: insufficient balance")
	ErrUnknownAccount    = errors.New("transfer: unknown account")
	// ErrUnsolicited is returned for a credit into a custody account that no
	// recognized ledger operation authorized. Such value is rejected outright
	// rather than silently absorbed.
	ErrUnsolicited = errors.New("transfer: unsolicited transfer rejected")
)

// Reference names the ledger operation that authorizes a movement of value.
type Reference string

const (
	RefCollateralLock    Reference = "collateral.lock"
	RefPrincipalEscrow   Reference = "principal.escrow"
	RefPrincipalPayout   Reference = "principal.payout"
	RefRepayment         Reference = "repayment"
	RefCollateralReturn  Reference = "collateral.return"
	RefCollateralSeizure Reference = "collateral.seizure"
	RefSavingsDeposit    Reference = "savings.deposit"
	RefSavingsWithdrawal Reference = "savings.withdrawal"
	RefSavingsAuto       Reference = "savings.auto"
)

// Service moves value between accounts and is the single authority on what
// an account holds. Implementations participate in the caller's database
// transaction when given a non-nil tx, so a failed move unwinds together
// with the state change that required it and a balance read sees the
// caller's uncommitted moves.
type Service interface {
	Transfer(ctx context.Context, tx *gorm.DB, from, to string, amount int64, ref Reference) error
	Balance(ctx context.Context, tx *gorm.DB, account string) (int64, error)
}

// Clock is the ledger's only time source. Operations take it as a
// collaborator so due-time checks are deterministic under test.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

func SystemClock() Clock { return systemClock{} }
