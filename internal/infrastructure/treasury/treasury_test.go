package treasury

import (
	"context"
	"errors"
	"testing"

	"p2p-lending-backend/internal/domain/transfer"
	"p2p-lending-backend/pkg/id"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const custody = "ledger:custody"

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&Account{}); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return NewLedger(db, custody)
}

func TestTransfer_MovesBalance(t *testing.T) {
	led := openTestLedger(t)
	ctx := context.Background()
	alice, bob := id.NewID32(), id.NewID32()

	if err := led.Credit(ctx, alice, 1000); err != nil {
		t.Fatalf("Credit: %v", err)
	}
	if err := led.Transfer(ctx, nil, alice, bob, 300, transfer.RefSavingsDeposit); err != nil {
		t.Fatalf("Transfer: %v", err)
	}

	if got, _ := led.Balance(ctx, nil, alice); got != 700 {
		t.Fatalf("alice = %d, want 700", got)
	}
	if got, _ := led.Balance(ctx, nil, bob); got != 300 {
		t.Fatalf("bob = %d, want 300", got)
	}
}

func TestTransfer_InsufficientAndUnknown(t *testing.T) {
	led := openTestLedger(t)
	ctx := context.Background()
	alice, bob := id.NewID32(), id.NewID32()

	if err := led.Transfer(ctx, nil, alice, bob, 1, transfer.RefSavingsDeposit); !errors.Is(err, transfer.ErrUnknownAccount) {
		t.Fatalf("err=%v, want ErrUnknownAccount", err)
	}

	if err := led.Credit(ctx, alice, 10); err != nil {
		t.Fatalf("Credit: %v", err)
	}
	if err := led.Transfer(ctx, nil, alice, bob, 11, transfer.RefSavingsDeposit); !errors.Is(err, transfer.ErrInsufficientFunds) {
		t.Fatalf("err=%v, want ErrInsufficientFunds", err)
	}
	if err := led.Transfer(ctx, nil, alice, bob, 0, transfer.RefSavingsDeposit); !errors.Is(err, transfer.ErrInvalidAmount) {
		t.Fatalf("err=%v, want ErrInvalidAmount", err)
	}
	if got, _ := led.Balance(ctx, nil, alice); got != 10 {
		t.Fatalf("failed transfers must not move value, alice = %d", got)
	}
}

func TestCustody_RejectsUnsolicitedCredit(t *testing.T) {
	led := openTestLedger(t)
	ctx := context.Background()
	alice := id.NewID32()
	if err := led.Credit(ctx, alice, 1000); err != nil {
		t.Fatalf("Credit: %v", err)
	}

	// only recognized ledger operations may credit custody
	if err := led.Transfer(ctx, nil, alice, custody, 100, transfer.RefSavingsDeposit); !errors.Is(err, transfer.ErrUnsolicited) {
		t.Fatalf("err=%v, want ErrUnsolicited", err)
	}
	if err := led.Credit(ctx, custody, 100); !errors.Is(err, transfer.ErrUnsolicited) {
		t.Fatalf("direct credit: err=%v, want ErrUnsolicited", err)
	}

	if err := led.Transfer(ctx, nil, alice, custody, 100, transfer.RefCollateralLock); err != nil {
		t.Fatalf("recognized op: %v", err)
	}
	if got, _ := led.Balance(ctx, nil, custody); got != 100 {
		t.Fatalf("custody = %d, want 100", got)
	}
}

func TestTransfer_RollsBackWithEnclosingTx(t *testing.T) {
	led := openTestLedger(t)
	ctx := context.Background()
	alice, bob := id.NewID32(), id.NewID32()
	if err := led.Credit(ctx, alice, 1000); err != nil {
		t.Fatalf("Credit: %v", err)
	}

	sentinel := errors.New("abort")
	err := led.db.Transaction(func(tx *gorm.DB) error {
		if err := led.Transfer(ctx, tx, alice, bob, 400, transfer.RefSavingsDeposit); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("err=%v", err)
	}
	if got, _ := led.Balance(ctx, nil, alice); got != 1000 {
		t.Fatalf("rollback must restore alice, got %d", got)
	}
}
