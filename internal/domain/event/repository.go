package event

import "context"

type Repository interface {
	// Append inserts one event; events are never updated or deleted.
	Append(ctx context.Context, e *LoanEvent) error
	ListByLoanID(ctx context.Context, loanID string) ([]LoanEvent, error)
}
