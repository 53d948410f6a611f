package mysql

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "p2p-lending-backend/internal/domain/loan"
	"p2p-lending-backend/internal/testutil/testdb"
	"p2p-lending-backend/pkg/id"

	"gorm.io/gorm"
)

func makeLoan(loanID, borrowerID string) *domain.Loan {
	return &domain.Loan{
		LoanID:          loanID,
		BorrowerID:      borrowerID,
		Principal:       1000,
		Collateral:      200,
		InterestRateBps: 500,
		DueTime:         time.Now().UTC().Add(30 * 24 * time.Hour),
		Status:          domain.StatusRequested,
		StatusUpdatedAt: time.Now().UTC(),
	}
}

func TestCreateAndGetByLoanID(t *testing.T) {
	db := testdb.Open(t)
	repo := NewLoanRepository(db)
	ctx := context.Background()

	loanID := id.NewID32()
	borrower := id.NewID32()

	l := makeLoan(loanID, borrower)
	if err := repo.Create(ctx, l); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if l.ID == 0 {
		t.Fatalf("Create did not set auto-increment ID")
	}

	got, err := repo.GetByLoanID(ctx, loanID)
	if err != nil {
		t.Fatalf("GetByLoanID: %v", err)
	}
	if got.BorrowerID != borrower || got.Status != domain.StatusRequested {
		t.Fatalf("got %+v", got)
	}
	if got.TotalOwed() != 1050 {
		t.Fatalf("TotalOwed = %d", got.TotalOwed())
	}
}

func TestGetByLoanID_NotFound(t *testing.T) {
	db := testdb.Open(t)
	repo := NewLoanRepository(db)

	_, err := repo.GetByLoanID(context.Background(), id.NewID32())
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("err=%v, want gorm.ErrRecordNotFound", err)
	}
}

func TestSave_AdvancesStatus(t *testing.T) {
	db := testdb.Open(t)
	repo := NewLoanRepository(db)
	ctx := context.Background()

	l := makeLoan(id.NewID32(), id.NewID32())
	if err := repo.Create(ctx, l); err != nil {
		t.Fatalf("Create: %v", err)
	}

	l.LenderID = id.NewID32()
	l.Status = domain.StatusFunded
	if err := repo.Save(ctx, l); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := repo.GetByLoanIDForUpdate(ctx, l.LoanID)
	if err != nil {
		t.Fatalf("GetByLoanIDForUpdate: %v", err)
	}
	if got.Status != domain.StatusFunded || got.LenderID != l.LenderID {
		t.Fatalf("got %+v", got)
	}
}

func TestListByBorrowerID(t *testing.T) {
	db := testdb.Open(t)
	repo := NewLoanRepository(db)
	ctx := context.Background()

	borrower := id.NewID32()
	for i := 0; i < 3; i++ {
		if err := repo.Create(ctx, makeLoan(id.NewID32(), borrower)); err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}
	}
	if err := repo.Create(ctx, makeLoan(id.NewID32(), id.NewID32())); err != nil {
		t.Fatalf("Create other: %v", err)
	}

	got, err := repo.ListByBorrowerID(ctx, borrower)
	if err != nil {
		t.Fatalf("ListByBorrowerID: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].ID < got[i-1].ID {
			t.Fatalf("not ordered by id: %v", got)
		}
	}
}
