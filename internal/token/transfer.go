package token

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Transferer is the custody-movement capability the ledger depends on. The
// ledger calls it for every asset movement and treats any error as an abort of
// the enclosing operation; it never implements the movement itself.
type Transferer interface {
	Transfer(ctx context.Context, asset common.Address, amount *uint256.Int, from, to common.Address, memo string) error
}
