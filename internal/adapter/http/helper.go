package http

import (
	"errors"
	"net/http"
	"strings"

	loanDomain "p2p-lending-backend/internal/domain/loan"
	savingsDomain "p2p-lending-backend/internal/domain/savings"

	"github.com/labstack/echo/v4"
)

// Caller identity travels as an explicit header rather than ambient context.
const HeaderActorID = "Ax-Actor-Id"

func actorID(c echo.Context) (string, bool) {
	v := strings.TrimSpace(c.Request().Header.Get(HeaderActorID))
	return v, reHex32.MatchString(v)
}

// statusFor maps domain errors onto HTTP statuses. Everything unmapped is a
// 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, loanDomain.ErrInvalidParameters):
		return http.StatusBadRequest
	case errors.Is(err, loanDomain.ErrNotFound),
		errors.Is(err, savingsDomain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, loanDomain.ErrInvalidState),
		errors.Is(err, loanDomain.ErrNotYetDue),
		errors.Is(err, loanDomain.ErrReentrantCall),
		errors.Is(err, savingsDomain.ErrIntervalNotOver):
		return http.StatusConflict
	case errors.Is(err, loanDomain.ErrUnauthorized),
		errors.Is(err, savingsDomain.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, loanDomain.ErrAmountMismatch),
		errors.Is(err, savingsDomain.ErrInvalidAmount),
		errors.Is(err, savingsDomain.ErrInsufficient),
		errors.Is(err, savingsDomain.ErrNoRecipient):
		return http.StatusUnprocessableEntity
	case errors.Is(err, loanDomain.ErrTransferFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func jsonError(c echo.Context, err error) error {
	return c.JSON(statusFor(err), ErrorResponse{Error: err.Error()})
}

func containsFieldMsg(list []FieldError, field, substr string) bool {
	for _, e := range list {
		if e.Field == field && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}
