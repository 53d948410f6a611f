package transfermock

import (
	"context"
	"errors"
	"time"

	"p2p-lending-backend/internal/domain/transfer"

	"gorm.io/gorm"
)

// Ensure compile-time compliance
var _ transfer.Service = (*Service)(nil)

// Call records one attempted movement of value.
type Call struct {
	From   string
	To     string
	Amount int64
	Ref    transfer.Reference
}

// Service is a function-backed mock that satisfies transfer.Service. Every
// attempted transfer is recorded in Calls before TransferFn runs, so tests
// can assert both what moved and what was refused.
type Service struct {
	TransferFn func(ctx context.Context, tx *gorm.DB, from, to string, amount int64, ref transfer.Reference) error
	BalanceFn  func(ctx context.Context, tx *gorm.DB, account string) (int64, error)

	Calls []Call
}

func (m *Service) Transfer(ctx context.Context, tx *gorm.DB, from, to string, amount int64, ref transfer.Reference) error {
	m.Calls = append(m.Calls, Call{From: from, To: to, Amount: amount, Ref: ref})
	if m.TransferFn != nil {
		return m.TransferFn(ctx, tx, from, to, amount, ref)
	}
	return nil
}

func (m *Service) Balance(ctx context.Context, tx *gorm.DB, account string) (int64, error) {
	if m.BalanceFn != nil {
		return m.BalanceFn(ctx, tx, account)
	}
	return 0, errors.New("transfermock: Balance not implemented")
}

// Reset clears the recorded calls between test phases.
func (m *Service) Reset() { m.Calls = nil }

// FixedClock satisfies transfer.Clock with a settable instant.
type FixedClock struct{ T time.Time }

func (c *FixedClock) Now() time.Time { return c.T }

// Advance moves the clock forward.
func (c *FixedClock) Advance(d time.Duration) { c.T = c.T.Add(d) }
