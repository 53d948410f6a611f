package loan

import "errors"

// Every failure mode of a ledger operation maps to exactly one of these.
// They are precondition violations: the caller sees them synchronously and
// no partial effect survives.
var (
	ErrInvalidParameters = errors.New("loan: invalid parameters")
	ErrNotFound          = errors.New("loan: not found")
	ErrInvalidState      = errors.New("loan: operation not allowed in current status")
	ErrUnauthorized      = errors.New("loan: caller is not the required party")
	ErrAmountMismatch    = errors.New("loan: attached value does not match required amount")
	ErrNotYetDue         = errors.New("loan: due time has not strictly passed")
	ErrReentrantCall     = errors.New("loan: reentrant call rejected")
	ErrTransferFailed    = errors.New("loan: value transfer failed")
)
