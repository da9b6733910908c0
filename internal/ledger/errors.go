package ledger

import (
	"cosmossdk.io/errors"
)

const codespace = "amm"

// Ledger sentinel errors. Every failed operation returns exactly one of these
// kinds; the first failing check aborts with no state mutation.
var (
	ErrInsufficientFunds = errors.Register(codespace, 2, "insufficient funds")
	ErrInvalidAmount     = errors.Register(codespace, 3, "invalid amount")
	ErrPoolNotFound      = errors.Register(codespace, 4, "pool not found")
	ErrPoolAlreadyExists = errors.Register(codespace, 5, "pool already exists")
	ErrUnauthorized      = errors.Register(codespace, 6, "unauthorized")
	ErrTransferFailed    = errors.Register(codespace, 7, "transfer failed")
	ErrInvalidToken      = errors.Register(codespace, 8, "invalid token")
	ErrInvalidPair       = errors.Register(codespace, 9, "invalid token pair")
	ErrZeroAmount        = errors.Register(codespace, 10, "amount cannot be zero")
	ErrMaxAmountExceeded = errors.Register(codespace, 11, "amount exceeds maximum")
	ErrSameToken         = errors.Register(codespace, 12, "cannot swap same token")
)
