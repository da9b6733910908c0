package model

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// PoolKey identifies a pool by its ordered asset pair. (A,B) and (B,A) are
// distinct pools; the ledger never mirrors one onto the other.
type PoolKey struct {
	AssetIn  common.Address `json:"asset_in"`
	AssetOut common.Address `json:"asset_out"`
}

// Reversed returns the key with the pair order flipped. It identifies a
// different pool, if one exists at all.
func (k PoolKey) Reversed() PoolKey {
	return PoolKey{AssetIn: k.AssetOut, AssetOut: k.AssetIn}
}

// Pool holds the live reserves and total issued shares for one ordered pair.
type Pool struct {
	Key         PoolKey
	ReserveIn   *uint256.Int
	ReserveOut  *uint256.Int
	TotalShares *uint256.Int
}

// Clone returns a deep copy safe to mutate without touching the original.
func (p *Pool) Clone() *Pool {
	return &Pool{
		Key:         p.Key,
		ReserveIn:   new(uint256.Int).Set(p.ReserveIn),
		ReserveOut:  new(uint256.Int).Set(p.ReserveOut),
		TotalShares: new(uint256.Int).Set(p.TotalShares),
	}
}

// PositionKey identifies a user's claim on one specific pool.
type PositionKey struct {
	User common.Address `json:"user"`
	Pool PoolKey        `json:"pool"`
}

// Position is a user's share count in a pool. A zero share count means the
// position does not exist; callers must treat zero and absent the same way.
type Position struct {
	Key    PositionKey
	Shares *uint256.Int
}
