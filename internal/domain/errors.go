package domain

import "errors"

// Domain errors
var (
	ErrNotFound         = errors.New("resource not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInternalError    = errors.New("internal error")
	ErrAccountNotFound  = errors.New("account not found")
	ErrAPITokenNotFound = errors.New("api token not found or revoked")
	ErrTooManyAPITokens = errors.New("maximum number of api tokens reached")

	// ErrLedgerWrite marks an operation that completed its record writes but
	// failed a ledger transaction write. The operation is left partially
	// applied and is safe to retry.
	ErrLedgerWrite = errors.New("ledger write failed")
)
