package http

import (
	"context"
	"net/http"

	"p2p-lending-backend/internal/usecase/savings"

	"github.com/labstack/echo/v4"
)

type SavingsHandler struct{ uc *savings.Usecase }

func NewSavingsHandler(uc *savings.Usecase) *SavingsHandler { return &SavingsHandler{uc: uc} }

type openSavingsReq struct {
	FractionBps int64 `json:"fraction_bps" validate:"bps,gt=0"`
	IntervalSec int64 `json:"interval_seconds" validate:"gt=0"`
}

type savingsAmountReq struct {
	Amount int64 `json:"amount" validate:"gt=0"`
}

type savingsRecipientReq struct {
	RecipientID string `json:"recipient_id" validate:"hex32"`
}

func (h *SavingsHandler) Open(c echo.Context) error {
	caller, ok := actorID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing or invalid " + HeaderActorID})
	}
	var req openSavingsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}
	dto, err := h.uc.Open(c.Request().Context(), savings.OpenInput{
		OwnerID:     caller,
		FractionBps: req.FractionBps,
		IntervalSec: req.IntervalSec,
	})
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *SavingsHandler) Deposit(c echo.Context) error {
	return h.amountOp(c, h.uc.Deposit)
}

func (h *SavingsHandler) Withdraw(c echo.Context) error {
	return h.amountOp(c, h.uc.Withdraw)
}

func (h *SavingsHandler) SetRecipient(c echo.Context) error {
	caller, ok := actorID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing or invalid " + HeaderActorID})
	}
	var req savingsRecipientReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}
	dto, err := h.uc.SetRecipient(c.Request().Context(), savings.RecipientInput{
		CallerID:    caller,
		AccountID:   c.Param("account_id"),
		RecipientID: req.RecipientID,
	})
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *SavingsHandler) AutoTransfer(c echo.Context) error {
	caller, ok := actorID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing or invalid " + HeaderActorID})
	}
	dto, err := h.uc.ExecuteAutomaticTransfer(c.Request().Context(), caller, c.Param("account_id"))
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *SavingsHandler) GetBalance(c echo.Context) error {
	dto, err := h.uc.GetBalance(c.Request().Context(), c.Param("account_id"))
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *SavingsHandler) amountOp(c echo.Context, op func(ctx context.Context, in savings.AmountInput) (*savings.AccountDTO, error)) error {
	caller, ok := actorID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing or invalid " + HeaderActorID})
	}
	var req savingsAmountReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}
	dto, err := op(c.Request().Context(), savings.AmountInput{
		CallerID:  caller,
		AccountID: c.Param("account_id"),
		Amount:    req.Amount,
	})
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
