package savings

import (
	"context"
	"errors"
	"time"

	domain "p2p-lending-backend/internal/domain/savings"

	"p2p-lending-backend/internal/domain/transfer"
	"p2p-lending-backend/internal/domain/uow"
	"p2p-lending-backend/pkg/id"

	"gorm.io/gorm"
)

// Usecase is the scheduled-withdrawal savings ledger. It is a deliberately
// simple collaborator of the loan ledger: one owner, one recipient, and a
// periodic transfer of a fixed fraction of the held balance over the same
// treasury. The treasury is the only place the balance lives; the account
// row holds configuration. Every operation is owner-only.
type Usecase struct {
	uow      uow.UnitOfWork
	treasury transfer.Service
	clock    transfer.Clock
}

func NewUsecase(u uow.UnitOfWork, t transfer.Service, c transfer.Clock) *Usecase {
	return &Usecase{uow: u, treasury: t, clock: c}
}

type OpenInput struct {
	OwnerID     string `json:"owner_id"`
	FractionBps int64  `json:"fraction_bps"`
	IntervalSec int64  `json:"interval_seconds"`
}

type AmountInput struct {
	CallerID  string
	AccountID string
	Amount    int64
}

type RecipientInput struct {
	CallerID    string
	AccountID   string
	RecipientID string
}

type AccountDTO struct {
	AccountID      string    `json:"account_id"`
	OwnerID        string    `json:"owner_id"`
	RecipientID    string    `json:"recipient_id"`
	Balance        int64     `json:"balance"`
	FractionBps    int64     `json:"fraction_bps"`
	LastTransferAt time.Time `json:"last_transfer_at"`
}

func (u *Usecase) Open(ctx context.Context, in OpenInput) (*AccountDTO, error) {
	if in.FractionBps <= 0 || in.FractionBps > 10000 || in.IntervalSec <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	a := &domain.Account{
		AccountID:      id.NewID32(),
		OwnerID:        in.OwnerID,
		FractionBps:    in.FractionBps,
		Interval:       time.Duration(in.IntervalSec) * time.Second,
		LastTransferAt: u.clock.Now(),
	}
	err := u.uow.WithinTx(ctx, func(tx *gorm.DB, r uow.Repos) error {
		return r.Savings.Create(ctx, a)
	})
	if err != nil {
		return nil, err
	}
	return toDTO(a, 0), nil
}

func (u *Usecase) Deposit(ctx context.Context, in AmountInput) (*AccountDTO, error) {
	if in.Amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	return u.mutate(ctx, in.AccountID, in.CallerID, func(tx *gorm.DB, a *domain.Account) error {
		err := u.treasury.Transfer(ctx, tx, in.CallerID, a.AccountID, in.Amount, transfer.RefSavingsDeposit)
		if errors.Is(err, transfer.ErrInsufficientFunds) || errors.Is(err, transfer.ErrUnknownAccount) {
			return domain.ErrInsufficient
		}
		return err
	})
}

func (u *Usecase) Withdraw(ctx context.Context, in AmountInput) (*AccountDTO, error) {
	if in.Amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	return u.mutate(ctx, in.AccountID, in.CallerID, func(tx *gorm.DB, a *domain.Account) error {
		held, err := u.held(ctx, tx, a.AccountID)
		if err != nil {
			return err
		}
		if in.Amount > held {
			return domain.ErrInsufficient
		}
		return u.treasury.Transfer(ctx, tx, a.AccountID, a.OwnerID, in.Amount, transfer.RefSavingsWithdrawal)
	})
}

func (u *Usecase) SetRecipient(ctx context.Context, in RecipientInput) (*AccountDTO, error) {
	if in.RecipientID == "" {
		return nil, domain.ErrNoRecipient
	}
	return u.mutate(ctx, in.AccountID, in.CallerID, func(tx *gorm.DB, a *domain.Account) error {
		a.RecipientID = in.RecipientID
		return nil
	})
}

// ExecuteAutomaticTransfer moves the configured fraction of the held balance
// to the recipient, gated by the elapsed-interval check.
func (u *Usecase) ExecuteAutomaticTransfer(ctx context.Context, callerID, accountID string) (*AccountDTO, error) {
	now := u.clock.Now()
	return u.mutate(ctx, accountID, callerID, func(tx *gorm.DB, a *domain.Account) error {
		if a.RecipientID == "" {
			return domain.ErrNoRecipient
		}
		if !a.TransferDue(now) {
			return domain.ErrIntervalNotOver
		}
		held, err := u.held(ctx, tx, a.AccountID)
		if err != nil {
			return err
		}
		amount := a.AutoAmount(held)
		if amount <= 0 {
			return domain.ErrInvalidAmount
		}
		if err := u.treasury.Transfer(ctx, tx, a.AccountID, a.RecipientID, amount, transfer.RefSavingsAuto); err != nil {
			return err
		}
		a.LastTransferAt = now
		return nil
	})
}

func (u *Usecase) GetBalance(ctx context.Context, accountID string) (*AccountDTO, error) {
	var out *AccountDTO
	err := u.uow.WithinTx(ctx, func(tx *gorm.DB, r uow.Repos) error {
		a, err := r.Savings.GetByAccountID(ctx, accountID)
		if err != nil {
			return err
		}
		held, err := u.held(ctx, tx, a.AccountID)
		if err != nil {
			return err
		}
		out = toDTO(a, held)
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// held reads the authoritative treasury balance; an account the treasury has
// never seen holds nothing.
func (u *Usecase) held(ctx context.Context, tx *gorm.DB, accountID string) (int64, error) {
	bal, err := u.treasury.Balance(ctx, tx, accountID)
	if errors.Is(err, transfer.ErrUnknownAccount) {
		return 0, nil
	}
	return bal, err
}

// mutate loads the account under a row lock, enforces ownership and saves
// the mutated record, all in one transaction. The returned projection reads
// the balance back from the treasury inside the same transaction.
func (u *Usecase) mutate(ctx context.Context, accountID, callerID string, fn func(tx *gorm.DB, a *domain.Account) error) (*AccountDTO, error) {
	var out *AccountDTO
	err := u.uow.WithinTx(ctx, func(tx *gorm.DB, r uow.Repos) error {
		a, err := r.Savings.GetByAccountIDForUpdate(ctx, accountID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		if a.OwnerID != callerID {
			return domain.ErrNotOwner
		}
		if err := fn(tx, a); err != nil {
			return err
		}
		if err := r.Savings.Save(ctx, a); err != nil {
			return err
		}
		held, err := u.held(ctx, tx, a.AccountID)
		if err != nil {
			return err
		}
		out = toDTO(a, held)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func toDTO(a *domain.Account, balance int64) *AccountDTO {
	return &AccountDTO{
		AccountID:      a.AccountID,
		OwnerID:        a.OwnerID,
		RecipientID:    a.RecipientID,
		Balance:        balance,
		FractionBps:    a.FractionBps,
		LastTransferAt: a.LastTransferAt,
	}
}
