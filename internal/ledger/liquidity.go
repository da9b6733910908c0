package ledger

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/agnes-pro/Automated-Market-Maker/internal/model"
)

// CreatePool opens a new pool for the exact ordered pair (assetIn, assetOut),
// seeding it with the caller's deposit. Initial shares are minted equal to
// amountIn alone; this ledger has never used the geometric-mean convention and
// changing it would reprice every existing position.
func (l *Ledger) CreatePool(ctx context.Context, caller, assetIn, assetOut common.Address, amountIn, amountOut *uint256.Int) (bool, error) {
	if !model.ValidatePair(assetIn, assetOut) {
		return false, ErrInvalidPair.Wrap("asset pair must contain two distinct assets")
	}
	if err := checkAmount(amountIn); err != nil {
		return false, err
	}
	if err := checkAmount(amountOut); err != nil {
		return false, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	key := model.PoolKey{AssetIn: assetIn, AssetOut: assetOut}
	if _, exists := l.pools[key]; exists {
		return false, ErrPoolAlreadyExists.Wrapf("pool exists for %s/%s", assetIn.Hex(), assetOut.Hex())
	}

	if err := l.transferer.Transfer(ctx, assetIn, amountIn, caller, CustodyAddress, "create pool deposit"); err != nil {
		return false, ErrTransferFailed.Wrap(err.Error())
	}
	if err := l.transferer.Transfer(ctx, assetOut, amountOut, caller, CustodyAddress, "create pool deposit"); err != nil {
		return false, ErrTransferFailed.Wrap(err.Error())
	}

	l.pools[key] = &model.Pool{
		Key:         key,
		ReserveIn:   new(uint256.Int).Set(amountIn),
		ReserveOut:  new(uint256.Int).Set(amountOut),
		TotalShares: new(uint256.Int).Set(amountIn),
	}
	l.creditPosition(model.PositionKey{User: caller, Pool: key}, amountIn)

	l.logger.Info("pool created",
		zap.String("asset_in", assetIn.Hex()),
		zap.String("asset_out", assetOut.Hex()),
		zap.String("reserve_in", model.FormatAmount(amountIn)),
		zap.String("reserve_out", model.FormatAmount(amountOut)),
		zap.String("creator", caller.Hex()),
	)

	return true, nil
}

// AddLiquidity deposits both assets into an existing pool. The second-asset
// deposit is capped at the ratio-preserving optimum but may fall below it; a
// short amountOut skews the pool ratio and is accepted.
func (l *Ledger) AddLiquidity(ctx context.Context, caller, assetIn, assetOut common.Address, amountIn, amountOut *uint256.Int) (bool, error) {
	if !model.ValidatePair(assetIn, assetOut) {
		return false, ErrInvalidPair.Wrap("asset pair must contain two distinct assets")
	}
	if err := checkAmount(amountIn); err != nil {
		return false, err
	}
	if err := checkAmount(amountOut); err != nil {
		return false, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	key := model.PoolKey{AssetIn: assetIn, AssetOut: assetOut}
	pool, ok := l.pools[key]
	if !ok {
		return false, ErrPoolNotFound.Wrapf("no pool for %s/%s", assetIn.Hex(), assetOut.Hex())
	}
	if pool.ReserveIn.IsZero() {
		return false, ErrInsufficientFunds.Wrap("pool reserves are exhausted")
	}

	// optimal = floor(amountIn * reserveOut / reserveIn)
	optimal := new(uint256.Int).Mul(amountIn, pool.ReserveOut)
	optimal.Div(optimal, pool.ReserveIn)
	if amountOut.Gt(optimal) {
		return false, ErrInvalidAmount.Wrapf("amount out %s exceeds optimal deposit %s",
			model.FormatAmount(amountOut), model.FormatAmount(optimal))
	}

	newReserveIn := new(uint256.Int).Add(pool.ReserveIn, amountIn)
	newReserveOut := new(uint256.Int).Add(pool.ReserveOut, amountOut)
	newShares := new(uint256.Int).Add(pool.TotalShares, amountIn)
	if newReserveIn.BitLen() > model.MaxAmountBits ||
		newReserveOut.BitLen() > model.MaxAmountBits ||
		newShares.BitLen() > model.MaxAmountBits {
		return false, ErrMaxAmountExceeded.Wrap("deposit would overflow pool reserves")
	}

	if err := l.transferer.Transfer(ctx, assetIn, amountIn, caller, CustodyAddress, "add liquidity"); err != nil {
		return false, ErrTransferFailed.Wrap(err.Error())
	}
	if err := l.transferer.Transfer(ctx, assetOut, amountOut, caller, CustodyAddress, "add liquidity"); err != nil {
		return false, ErrTransferFailed.Wrap(err.Error())
	}

	pool.ReserveIn = newReserveIn
	pool.ReserveOut = newReserveOut
	pool.TotalShares = newShares
	l.creditPosition(model.PositionKey{User: caller, Pool: key}, amountIn)

	l.logger.Info("liquidity added",
		zap.String("asset_in", assetIn.Hex()),
		zap.String("asset_out", assetOut.Hex()),
		zap.String("amount_in", model.FormatAmount(amountIn)),
		zap.String("amount_out", model.FormatAmount(amountOut)),
		zap.String("provider", caller.Hex()),
	)

	return true, nil
}

// RemoveLiquidity burns the caller's shares and pays out the proportional cut
// of both reserves. A share count too small to yield at least one unit of each
// asset is rejected rather than silently burned for nothing.
func (l *Ledger) RemoveLiquidity(ctx context.Context, caller, assetIn, assetOut common.Address, shares *uint256.Int) (bool, error) {
	if !model.ValidatePair(assetIn, assetOut) {
		return false, ErrInvalidPair.Wrap("asset pair must contain two distinct assets")
	}
	if err := checkAmount(shares); err != nil {
		return false, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	key := model.PoolKey{AssetIn: assetIn, AssetOut: assetOut}
	pool, ok := l.pools[key]
	if !ok {
		return false, ErrPoolNotFound.Wrapf("no pool for %s/%s", assetIn.Hex(), assetOut.Hex())
	}

	posKey := model.PositionKey{User: caller, Pool: key}
	held, ok := l.positions[posKey]
	if !ok || held.Lt(shares) {
		return false, ErrInsufficientFunds.Wrapf("position holds %s shares, need %s",
			model.FormatAmount(held), model.FormatAmount(shares))
	}

	// amount = floor(shares * reserve / totalShares), per asset.
	amountIn := new(uint256.Int).Mul(shares, pool.ReserveIn)
	amountIn.Div(amountIn, pool.TotalShares)
	amountOut := new(uint256.Int).Mul(shares, pool.ReserveOut)
	amountOut.Div(amountOut, pool.TotalShares)

	if !model.ValidateAmount(amountIn) || !model.ValidateAmount(amountOut) {
		return false, ErrZeroAmount.Wrap("share count yields no payout")
	}

	if err := l.transferer.Transfer(ctx, assetIn, amountIn, CustodyAddress, caller, "remove liquidity"); err != nil {
		return false, ErrTransferFailed.Wrap(err.Error())
	}
	if err := l.transferer.Transfer(ctx, assetOut, amountOut, CustodyAddress, caller, "remove liquidity"); err != nil {
		return false, ErrTransferFailed.Wrap(err.Error())
	}

	pool.TotalShares = new(uint256.Int).Sub(pool.TotalShares, shares)
	pool.ReserveIn = new(uint256.Int).Sub(pool.ReserveIn, amountIn)
	pool.ReserveOut = new(uint256.Int).Sub(pool.ReserveOut, amountOut)
	l.debitPosition(posKey, shares)

	l.logger.Info("liquidity removed",
		zap.String("asset_in", assetIn.Hex()),
		zap.String("asset_out", assetOut.Hex()),
		zap.String("shares", model.FormatAmount(shares)),
		zap.String("amount_in", model.FormatAmount(amountIn)),
		zap.String("amount_out", model.FormatAmount(amountOut)),
		zap.String("provider", caller.Hex()),
	)

	return true, nil
}
