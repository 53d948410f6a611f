package loan

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	domain "p2p-lending-backend/internal/domain/loan"

	"p2p-lending-backend/internal/domain/event"
	"p2p-lending-backend/internal/domain/transfer"
	"p2p-lending-backend/internal/domain/uow"
	"p2p-lending-backend/pkg/id"

	"gorm.io/gorm"
)

// Usecase drives every loan through requested → funded → {repaid,liquidated}.
//
// All mutating operations serialize on a single ledger-wide gate: a call
// arriving while another is in flight (including one re-entering through a
// transfer callback) fails with ErrReentrantCall and changes nothing. Within
// the gate, each operation commits its state change and its value transfers
// as one database transaction, so a failed transfer unwinds the transition
// that required it.
type Usecase struct {
	uow      uow.UnitOfWork
	treasury transfer.Service
	clock    transfer.Clock
	custody  string // treasury account holding collateral and escrow

	gate sync.Mutex
}

func NewUsecase(u uow.UnitOfWork, t transfer.Service, c transfer.Clock, custodyAccount string) *Usecase {
	return &Usecase{uow: u, treasury: t, clock: c, custody: custodyAccount}
}

// enter takes the single-flight gate; the returned func releases it and must
// run on every exit path.
func (u *Usecase) enter() (func(), error) {
	if !u.gate.TryLock() {
		return nil, domain.ErrReentrantCall
	}
	return u.gate.Unlock, nil
}

func wrapTransfer(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrTransferFailed, err)
}

// Request locks the attached collateral and records a new requested loan.
func (u *Usecase) Request(ctx context.Context, in RequestLoanInput) (*LoanDTO, error) {
	release, err := u.enter()
	if err != nil {
		return nil, err
	}
	defer release()

	if in.Principal <= 0 || in.Principal > domain.MaxPrincipal || in.AttachedCollateral <= 0 {
		return nil, domain.ErrInvalidParameters
	}
	if in.DurationDays <= 0 || in.DurationDays > domain.MaxDurationDays {
		return nil, domain.ErrInvalidParameters
	}
	if in.InterestRateBps < 0 || in.InterestRateBps > domain.MaxRateBps {
		return nil, domain.ErrInvalidParameters
	}

	now := u.clock.Now()
	l := &domain.Loan{
		LoanID:          id.NewID32(),
		BorrowerID:      in.CallerID,
		Principal:       in.Principal,
		Collateral:      in.AttachedCollateral,
		InterestRateBps: in.InterestRateBps,
		DueTime:         now.Add(time.Duration(in.DurationDays) * 24 * time.Hour),
		Status:          domain.StatusRequested,
		StatusUpdatedAt: now,
	}

	err = u.uow.WithinTx(ctx, func(tx *gorm.DB, r uow.Repos) error {
		if err := r.Loans.Create(ctx, l); err != nil {
			return err
		}
		// Collateral moves into custody atomically with record creation.
		if err := u.treasury.Transfer(ctx, tx, in.CallerID, u.custody, in.AttachedCollateral, transfer.RefCollateralLock); err != nil {
			return wrapTransfer(err)
		}
		return r.Events.Append(ctx, &event.LoanEvent{
			EventID:         id.NewID32(),
			LoanID:          l.LoanID,
			Type:            event.TypeLoanRequested,
			ActorID:         in.CallerID,
			Amount:          in.Principal,
			Collateral:      l.Collateral,
			InterestRateBps: l.InterestRateBps,
			DueTime:         &l.DueTime,
		})
	})
	if err != nil {
		return nil, err
	}
	return toDTO(l), nil
}

// Fund sets the lender and forwards the attached principal to the borrower.
// The status flips to funded before the payout is issued; a failed payout
// rolls the whole operation back.
func (u *Usecase) Fund(ctx context.Context, in FundLoanInput) (*LoanDTO, error) {
	release, err := u.enter()
	if err != nil {
		return nil, err
	}
	defer release()

	var out *LoanDTO
	err = u.uow.WithinLoanTx(ctx, in.LoanID, func(tx *gorm.DB, r uow.Repos, l *domain.Loan) error {
		if l.Status != domain.StatusRequested {
			return domain.ErrInvalidState
		}
		if in.AttachedPrincipal != l.Principal {
			return domain.ErrAmountMismatch
		}

		l.LenderID = in.CallerID
		l.Status = domain.StatusFunded
		l.StatusUpdatedAt = u.clock.Now()
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}

		if err := u.treasury.Transfer(ctx, tx, in.CallerID, u.custody, in.AttachedPrincipal, transfer.RefPrincipalEscrow); err != nil {
			return wrapTransfer(err)
		}
		if err := u.treasury.Transfer(ctx, tx, u.custody, l.BorrowerID, l.Principal, transfer.RefPrincipalPayout); err != nil {
			return wrapTransfer(err)
		}

		if err := r.Events.Append(ctx, &event.LoanEvent{
			EventID: id.NewID32(),
			LoanID:  l.LoanID,
			Type:    event.TypeLoanFunded,
			ActorID: in.CallerID,
			Amount:  l.Principal,
		}); err != nil {
			return err
		}
		out = toDTO(l)
		return nil
	})
	if err != nil {
		return nil, mapLookupErr(err)
	}
	return out, nil
}

// Repay settles a funded loan: the exact owed amount goes to the lender and
// the original collateral returns to the borrower, all-or-nothing.
func (u *Usecase) Repay(ctx context.Context, in RepayLoanInput) (*LoanDTO, error) {
	release, err := u.enter()
	if err != nil {
		return nil, err
	}
	defer release()

	var out *LoanDTO
	err = u.uow.WithinLoanTx(ctx, in.LoanID, func(tx *gorm.DB, r uow.Repos, l *domain.Loan) error {
		if l.Status != domain.StatusFunded {
			return domain.ErrInvalidState
		}
		if in.CallerID != l.BorrowerID {
			return domain.ErrUnauthorized
		}
		if in.AttachedPayment != l.TotalOwed() {
			return domain.ErrAmountMismatch
		}

		l.Status = domain.StatusRepaid
		l.StatusUpdatedAt = u.clock.Now()
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}

		if err := u.treasury.Transfer(ctx, tx, in.CallerID, u.custody, in.AttachedPayment, transfer.RefRepayment); err != nil {
			return wrapTransfer(err)
		}
		if err := u.treasury.Transfer(ctx, tx, u.custody, l.LenderID, l.TotalOwed(), transfer.RefRepayment); err != nil {
			return wrapTransfer(err)
		}
		if err := u.treasury.Transfer(ctx, tx, u.custody, l.BorrowerID, l.Collateral, transfer.RefCollateralReturn); err != nil {
			return wrapTransfer(err)
		}

		if err := r.Events.Append(ctx, &event.LoanEvent{
			EventID: id.NewID32(),
			LoanID:  l.LoanID,
			Type:    event.TypeLoanRepaid,
			ActorID: in.CallerID,
			Amount:  in.AttachedPayment,
		}); err != nil {
			return err
		}
		out = toDTO(l)
		return nil
	})
	if err != nil {
		return nil, mapLookupErr(err)
	}
	return out, nil
}

// Liquidate lets the lender seize the collateral of a funded loan once the
// due time has strictly passed.
func (u *Usecase) Liquidate(ctx context.Context, in LiquidateLoanInput) (*LoanDTO, error) {
	release, err := u.enter()
	if err != nil {
		return nil, err
	}
	defer release()

	var out *LoanDTO
	err = u.uow.WithinLoanTx(ctx, in.LoanID, func(tx *gorm.DB, r uow.Repos, l *domain.Loan) error {
		if l.Status != domain.StatusFunded {
			return domain.ErrInvalidState
		}
		if in.CallerID != l.LenderID {
			return domain.ErrUnauthorized
		}
		now := u.clock.Now()
		if !l.Liquidatable(now) {
			return domain.ErrNotYetDue
		}

		l.Status = domain.StatusLiquidated
		l.StatusUpdatedAt = now
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}

		if err := u.treasury.Transfer(ctx, tx, u.custody, l.LenderID, l.Collateral, transfer.RefCollateralSeizure); err != nil {
			return wrapTransfer(err)
		}

		if err := r.Events.Append(ctx, &event.LoanEvent{
			EventID: id.NewID32(),
			LoanID:  l.LoanID,
			Type:    event.TypeLoanLiquidated,
			ActorID: in.CallerID,
			Amount:  l.Collateral,
		}); err != nil {
			return err
		}
		out = toDTO(l)
		return nil
	})
	if err != nil {
		return nil, mapLookupErr(err)
	}
	return out, nil
}

// Get returns the loan's full projection. An unknown id yields a zero-valued
// record rather than an error, matching never-initialized semantics.
func (u *Usecase) Get(ctx context.Context, loanID string) (*LoanDTO, error) {
	l, err := u.loanByID(ctx, loanID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &LoanDTO{}, nil
	case err != nil:
		return nil, err
	}
	return toDTO(l), nil
}

// ListByBorrower returns every loan the borrower ever requested, oldest
// first, closed loans included.
func (u *Usecase) ListByBorrower(ctx context.Context, borrowerID string) ([]LoanDTO, error) {
	var out []LoanDTO
	err := u.uow.WithinTx(ctx, func(tx *gorm.DB, r uow.Repos) error {
		ls, err := r.Loans.ListByBorrowerID(ctx, borrowerID)
		if err != nil {
			return err
		}
		out = make([]LoanDTO, 0, len(ls))
		for i := range ls {
			out = append(out, *toDTO(&ls[i]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Events lists the loan's append-only notification log, oldest first.
func (u *Usecase) Events(ctx context.Context, loanID string) ([]EventDTO, error) {
	if _, err := u.loanByID(ctx, loanID); err != nil {
		return nil, mapLookupErr(err)
	}
	var out []EventDTO
	err := u.uow.WithinTx(ctx, func(tx *gorm.DB, r uow.Repos) error {
		evs, err := r.Events.ListByLoanID(ctx, loanID)
		if err != nil {
			return err
		}
		out = make([]EventDTO, 0, len(evs))
		for _, e := range evs {
			out = append(out, EventDTO{
				EventID:         e.EventID,
				LoanID:          e.LoanID,
				Type:            string(e.Type),
				ActorID:         e.ActorID,
				Amount:          e.Amount,
				Collateral:      e.Collateral,
				InterestRateBps: e.InterestRateBps,
				DueTime:         e.DueTime,
				CreatedAt:       e.CreatedAt,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (u *Usecase) loanByID(ctx context.Context, loanID string) (*domain.Loan, error) {
	var l *domain.Loan
	err := u.uow.WithinTx(ctx, func(tx *gorm.DB, r uow.Repos) error {
		var err error
		l, err = r.Loans.GetByLoanID(ctx, loanID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return l, nil
}

func mapLookupErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}

func toDTO(l *domain.Loan) *LoanDTO {
	return &LoanDTO{
		LoanID:          l.LoanID,
		BorrowerID:      l.BorrowerID,
		LenderID:        l.LenderID,
		Principal:       l.Principal,
		Collateral:      l.Collateral,
		InterestRateBps: l.InterestRateBps,
		TotalOwed:       l.TotalOwed(),
		DueTime:         l.DueTime,
		Status:          string(l.Status),
		CreatedAt:       l.CreatedAt,
	}
}
