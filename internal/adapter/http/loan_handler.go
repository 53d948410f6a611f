package http

import (
	"net/http"

	"p2p-lending-backend/internal/usecase/loan"

	"github.com/labstack/echo/v4"
)

type LoanHandler struct{ uc *loan.Usecase }

func NewLoanHandler(uc *loan.Usecase) *LoanHandler { return &LoanHandler{uc: uc} }

type requestLoanReq struct {
	Principal          int64 `json:"principal" validate:"gt=0"`
	DurationDays       int64 `json:"duration_days" validate:"gt=0"`
	InterestRateBps    int64 `json:"interest_rate_bps" validate:"bps"`
	AttachedCollateral int64 `json:"attached_collateral" validate:"gt=0"`
}

type attachedValueReq struct {
	AttachedValue int64 `json:"attached_value" validate:"gt=0"`
}

func (h *LoanHandler) RequestLoan(c echo.Context) error {
	caller, ok := actorID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing or invalid " + HeaderActorID})
	}
	var req requestLoanReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}
	dto, err := h.uc.Request(c.Request().Context(), loan.RequestLoanInput{
		CallerID:           caller,
		Principal:          req.Principal,
		DurationDays:       req.DurationDays,
		InterestRateBps:    req.InterestRateBps,
		AttachedCollateral: req.AttachedCollateral,
	})
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *LoanHandler) FundLoan(c echo.Context) error {
	caller, ok := actorID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing or invalid " + HeaderActorID})
	}
	var req attachedValueReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}
	dto, err := h.uc.Fund(c.Request().Context(), loan.FundLoanInput{
		CallerID:          caller,
		LoanID:            c.Param("loan_id"),
		AttachedPrincipal: req.AttachedValue,
	})
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) RepayLoan(c echo.Context) error {
	caller, ok := actorID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing or invalid " + HeaderActorID})
	}
	var req attachedValueReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}
	dto, err := h.uc.Repay(c.Request().Context(), loan.RepayLoanInput{
		CallerID:        caller,
		LoanID:          c.Param("loan_id"),
		AttachedPayment: req.AttachedValue,
	})
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) LiquidateLoan(c echo.Context) error {
	caller, ok := actorID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing or invalid " + HeaderActorID})
	}
	dto, err := h.uc.Liquidate(c.Request().Context(), loan.LiquidateLoanInput{
		CallerID: caller,
		LoanID:   c.Param("loan_id"),
	})
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) GetLoan(c echo.Context) error {
	dto, err := h.uc.Get(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) ListBorrowerLoans(c echo.Context) error {
	dtos, err := h.uc.ListByBorrower(c.Request().Context(), c.Param("borrower_id"))
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, dtos)
}

func (h *LoanHandler) GetLoanEvents(c echo.Context) error {
	evs, err := h.uc.Events(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, evs)
}
