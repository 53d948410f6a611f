package uow

import (
	"context"

	"p2p-lending-backend/internal/domain/event"
	"p2p-lending-backend/internal/domain/loan"
	"p2p-lending-backend/internal/domain/savings"

	"gorm.io/gorm"
)

type Repos struct {
	Loans   loan.Repository
	Events  event.Repository
	Savings savings.Repository
}

// UnitOfWork runs a function against transaction-bound repositories. The
// transaction handle is exposed so outbound value transfers can join it:
// if the transfer fails, the state change it paid for rolls back with it.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(tx *gorm.DB, r Repos) error) error
	// WithinLoanTx locks the loan row first, then passes it in.
	WithinLoanTx(ctx context.Context, loanID string, fn func(tx *gorm.DB, r Repos, l *loan.Loan) error) error
}
