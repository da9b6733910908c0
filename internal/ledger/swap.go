package ledger

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/agnes-pro/Automated-Market-Maker/internal/model"
)

// Swap trades amountIn of assetIn for assetOut against the pool stored under
// the exact ordered key (assetIn, assetOut). A pool created as (B,A) never
// serves a swap requested as (A,B).
//
// The output is priced on the constant product taken before the deposit:
//
//	newReserveOut = floor(k / (reserveIn + in))
//	amountOut     = reserveOut - newReserveOut
//
// where in is the full amountIn by default. The fee-adjusted input
// (amountIn*997/1000) is always computed; only when Config.ApplyFee is set
// does it replace the full input on the curve. The recorded ledger behavior is
// the default, where the adjusted value goes unused and the floor rounding is
// the pool's only take.
func (l *Ledger) Swap(ctx context.Context, caller, assetIn, assetOut common.Address, amountIn *uint256.Int) (*uint256.Int, error) {
	if !model.ValidatePair(assetIn, assetOut) {
		return nil, ErrSameToken.Wrap("cannot swap an asset for itself")
	}
	if err := checkAmount(amountIn); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	key := model.PoolKey{AssetIn: assetIn, AssetOut: assetOut}
	pool, ok := l.pools[key]
	if !ok {
		return nil, ErrPoolNotFound.Wrapf("no pool for %s/%s", assetIn.Hex(), assetOut.Hex())
	}

	// Constant product before the deposit. Both reserves fit 128 bits, so the
	// product fits a uint256 exactly.
	k := new(uint256.Int).Mul(pool.ReserveIn, pool.ReserveOut)

	feeAdjusted := new(uint256.Int).Mul(amountIn, uint256.NewInt(FeeNumerator))
	feeAdjusted.Div(feeAdjusted, uint256.NewInt(FeeDenominator))

	curveIn := amountIn
	if l.cfg.ApplyFee {
		curveIn = feeAdjusted
	}

	newReserveIn := new(uint256.Int).Add(pool.ReserveIn, amountIn)
	if newReserveIn.BitLen() > model.MaxAmountBits {
		return nil, ErrMaxAmountExceeded.Wrap("deposit would overflow pool reserves")
	}

	curveReserveIn := new(uint256.Int).Add(pool.ReserveIn, curveIn)
	if curveReserveIn.IsZero() {
		return nil, ErrInsufficientFunds.Wrap("pool reserves are exhausted")
	}
	newReserveOut := new(uint256.Int).Div(k, curveReserveIn)

	amountOut := new(uint256.Int).Sub(pool.ReserveOut, newReserveOut)
	if !model.ValidateAmount(amountOut) {
		return nil, ErrZeroAmount.Wrap("swap yields no output")
	}

	if err := l.transferer.Transfer(ctx, assetIn, amountIn, caller, CustodyAddress, "swap in"); err != nil {
		return nil, ErrTransferFailed.Wrap(err.Error())
	}
	if err := l.transferer.Transfer(ctx, assetOut, amountOut, CustodyAddress, caller, "swap out"); err != nil {
		return nil, ErrTransferFailed.Wrap(err.Error())
	}

	pool.ReserveIn = newReserveIn
	pool.ReserveOut = newReserveOut

	l.logger.Info("swap executed",
		zap.String("asset_in", assetIn.Hex()),
		zap.String("asset_out", assetOut.Hex()),
		zap.String("amount_in", model.FormatAmount(amountIn)),
		zap.String("amount_out", model.FormatAmount(amountOut)),
		zap.Bool("fee_applied", l.cfg.ApplyFee),
		zap.String("trader", caller.Hex()),
	)

	return amountOut, nil
}
