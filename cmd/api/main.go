package main

import (
	"log"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	httpadp "p2p-lending-backend/internal/adapter/http"
	"p2p-lending-backend/internal/adapter/middleware"
	"p2p-lending-backend/internal/adapter/repository/mysql"
	"p2p-lending-backend/internal/config"
	"p2p-lending-backend/internal/domain/event"
	loanDomain "p2p-lending-backend/internal/domain/loan"
	savingsDomain "p2p-lending-backend/internal/domain/savings"
	"p2p-lending-backend/internal/domain/transfer"
	"p2p-lending-backend/internal/infrastructure/cache"
	"p2p-lending-backend/internal/infrastructure/db"
	"p2p-lending-backend/internal/infrastructure/treasury"
	loanUC "p2p-lending-backend/internal/usecase/loan"
	savingsUC "p2p-lending-backend/internal/usecase/savings"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	gdb, err := db.OpenGorm(cfg.MySQLDSN())
	if err != nil {
		log.Fatal(err)
	}
	if err := gdb.AutoMigrate(
		&loanDomain.Loan{},
		&event.LoanEvent{},
		&savingsDomain.Account{},
		&treasury.Account{},
	); err != nil {
		log.Fatal(err)
	}

	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		log.Fatal(err)
	}

	uow := mysql.NewGormUoW(gdb)
	tre := treasury.NewLedger(gdb, cfg.CustodyAccount)
	clock := transfer.SystemClock()

	loans := loanUC.NewUsecase(uow, tre, clock, cfg.CustodyAccount)
	sav := savingsUC.NewUsecase(uow, tre, clock)

	h := httpadp.NewHandler()
	lh := httpadp.NewLoanHandler(loans)
	sh := httpadp.NewSavingsHandler(sav)

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(echomw.Logger(), echomw.Recover())
	e.Use(middleware.IdempotencyMiddleware(rdb, time.Duration(cfg.IdempTTLSecs)*time.Second))

	e.GET("/health", h.Health)

	e.POST("/loans", lh.RequestLoan)
	e.GET("/loans/:loan_id", lh.GetLoan)
	e.GET("/loans/:loan_id/events", lh.GetLoanEvents)
	e.POST("/loans/:loan_id/fund", lh.FundLoan)
	e.POST("/loans/:loan_id/repay", lh.RepayLoan)
	e.POST("/loans/:loan_id/liquidate", lh.LiquidateLoan)
	e.GET("/borrowers/:borrower_id/loans", lh.ListBorrowerLoans)

	e.POST("/savings", sh.Open)
	e.GET("/savings/:account_id", sh.GetBalance)
	e.POST("/savings/:account_id/deposit", sh.Deposit)
	e.POST("/savings/:account_id/withdraw", sh.Withdraw)
	e.POST("/savings/:account_id/recipient", sh.SetRecipient)
	e.POST("/savings/:account_id/auto-transfer", sh.AutoTransfer)

	addr := ":" + cfg.AppPort
	log.Printf("listening on %s", addr)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
