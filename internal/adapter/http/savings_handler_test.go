package http

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"testing"
	"time"

	"p2p-lending-backend/internal/adapter/repository/mysql"
	"p2p-lending-backend/internal/infrastructure/treasury"
	"p2p-lending-backend/internal/testutil/testdb"
	"p2p-lending-backend/internal/testutil/transfermock"
	savingsUC "p2p-lending-backend/internal/usecase/savings"
	"p2p-lending-backend/pkg/id"

	"github.com/labstack/echo/v4"
)

func newSavingsServer(t *testing.T) (*echo.Echo, *treasury.Ledger, *transfermock.FixedClock) {
	t.Helper()
	db := testdb.Open(t)
	led := treasury.NewLedger(db, "ledger:custody")
	clock := &transfermock.FixedClock{T: t0}
	uc := savingsUC.NewUsecase(mysql.NewGormUoW(db), led, clock)

	e := echo.New()
	e.HideBanner = true
	e.Validator = NewValidator()
	h := NewSavingsHandler(uc)
	e.POST("/savings", h.Open)
	e.GET("/savings/:account_id", h.GetBalance)
	e.POST("/savings/:account_id/deposit", h.Deposit)
	e.POST("/savings/:account_id/withdraw", h.Withdraw)
	e.POST("/savings/:account_id/recipient", h.SetRecipient)
	e.POST("/savings/:account_id/auto-transfer", h.AutoTransfer)
	return e, led, clock
}

func TestSavingsFlow_OverHTTP(t *testing.T) {
	e, led, clock := newSavingsServer(t)
	owner, recipient := id.NewID32(), id.NewID32()
	if err := led.Credit(context.Background(), owner, 1000); err != nil {
		t.Fatalf("Credit: %v", err)
	}

	rec := do(t, e, stdhttp.MethodPost, "/savings", owner, map[string]any{
		"fraction_bps": 1000, "interval_seconds": 86400,
	})
	if rec.Code != stdhttp.StatusCreated {
		t.Fatalf("open: code=%d body=%s", rec.Code, rec.Body.String())
	}
	accountID := decode(t, rec)["account_id"].(string)

	rec = do(t, e, stdhttp.MethodPost, "/savings/"+accountID+"/deposit", owner, map[string]any{"amount": 1000})
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("deposit: code=%d body=%s", rec.Code, rec.Body.String())
	}

	// stranger may not withdraw
	rec = do(t, e, stdhttp.MethodPost, "/savings/"+accountID+"/withdraw", id.NewID32(), map[string]any{"amount": 100})
	if rec.Code != stdhttp.StatusForbidden {
		t.Fatalf("stranger withdraw: code=%d", rec.Code)
	}

	rec = do(t, e, stdhttp.MethodPost, "/savings/"+accountID+"/recipient", owner, map[string]any{"recipient_id": recipient})
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("recipient: code=%d body=%s", rec.Code, rec.Body.String())
	}

	clock.Advance(25 * time.Hour)
	rec = do(t, e, stdhttp.MethodPost, "/savings/"+accountID+"/auto-transfer", owner, nil)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("auto-transfer: code=%d body=%s", rec.Code, rec.Body.String())
	}
	if got := decode(t, rec)["balance"].(float64); got != 900 {
		t.Fatalf("balance after auto transfer = %v, want 900", got)
	}

	// immediate retry hits the interval gate
	rec = do(t, e, stdhttp.MethodPost, "/savings/"+accountID+"/auto-transfer", owner, nil)
	if rec.Code != stdhttp.StatusConflict {
		t.Fatalf("retry auto-transfer: code=%d", rec.Code)
	}

	rec = do(t, e, stdhttp.MethodGet, "/savings/"+accountID, "", nil)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("balance: code=%d", rec.Code)
	}
	var dto map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &dto); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dto["balance"].(float64) != 900 || dto["recipient_id"] != recipient {
		t.Fatalf("dto: %v", dto)
	}
}
