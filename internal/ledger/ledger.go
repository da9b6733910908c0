package ledger

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/agnes-pro/Automated-Market-Maker/internal/model"
	"github.com/agnes-pro/Automated-Market-Maker/internal/token"
)

// Fee parameters for swaps: 997/1000 is the classic 0.3% taker fee.
const (
	FeeNumerator   = 997
	FeeDenominator = 1000
)

// MaxRewardRate bounds the governance reward rate (basis points).
const MaxRewardRate = 10000

// CustodyAddress is the ledger-controlled account holding pooled reserves.
// Every deposit transfers into it and every payout transfers out of it.
var CustodyAddress = common.BytesToAddress([]byte("amm/custody"))

// Config selects ledger behavior knobs.
type Config struct {
	// ApplyFee substitutes the fee-adjusted input (amountIn*997/1000) into the
	// constant-product update. The default (false) reproduces the ledger's
	// recorded transition, where the fee-adjusted value is computed but the
	// full input drives the curve.
	ApplyFee bool
}

// Ledger is the pool/position state machine. All governance singletons live on
// the struct, never in package globals, and every operation takes the single
// mutex: one logical transaction at a time, committed all-or-nothing.
type Ledger struct {
	mu sync.Mutex

	owner      common.Address
	rewardRate uint64
	allowed    map[common.Address]bool
	pools      map[model.PoolKey]*model.Pool
	positions  map[model.PositionKey]*uint256.Int

	transferer token.Transferer
	cfg        Config
	logger     *zap.Logger
}

// New builds an empty ledger owned by owner. The transferer performs every
// custody movement; a nil logger is replaced with a no-op one.
func New(owner common.Address, transferer token.Transferer, cfg Config, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		owner:      owner,
		allowed:    make(map[common.Address]bool),
		pools:      make(map[model.PoolKey]*model.Pool),
		positions:  make(map[model.PositionKey]*uint256.Int),
		transferer: transferer,
		cfg:        cfg,
		logger:     logger,
	}
}

// NewFromState rebuilds a ledger from a snapshot.
func NewFromState(state model.State, transferer token.Transferer, cfg Config, logger *zap.Logger) (*Ledger, error) {
	if !common.IsHexAddress(state.Owner) {
		return nil, fmt.Errorf("snapshot: invalid owner %q", state.Owner)
	}
	if state.RewardRate > MaxRewardRate {
		return nil, fmt.Errorf("snapshot: reward rate %d exceeds maximum %d", state.RewardRate, MaxRewardRate)
	}

	l := New(common.HexToAddress(state.Owner), transferer, cfg, logger)
	l.rewardRate = state.RewardRate

	for _, tok := range state.AllowedTokens {
		if !common.IsHexAddress(tok) {
			return nil, fmt.Errorf("snapshot: invalid allowed token %q", tok)
		}
		l.allowed[common.HexToAddress(tok)] = true
	}

	for _, rec := range state.Pools {
		key, err := parsePoolKey(rec.AssetIn, rec.AssetOut)
		if err != nil {
			return nil, fmt.Errorf("snapshot pool: %w", err)
		}
		reserveIn, err := model.ParseAmount(rec.ReserveIn)
		if err != nil {
			return nil, fmt.Errorf("snapshot pool: %w", err)
		}
		reserveOut, err := model.ParseAmount(rec.ReserveOut)
		if err != nil {
			return nil, fmt.Errorf("snapshot pool: %w", err)
		}
		shares, err := model.ParseAmount(rec.TotalShares)
		if err != nil {
			return nil, fmt.Errorf("snapshot pool: %w", err)
		}
		if _, exists := l.pools[key]; exists {
			return nil, fmt.Errorf("snapshot: duplicate pool %s/%s", rec.AssetIn, rec.AssetOut)
		}
		l.pools[key] = &model.Pool{Key: key, ReserveIn: reserveIn, ReserveOut: reserveOut, TotalShares: shares}
	}

	for _, rec := range state.Positions {
		key, err := parsePoolKey(rec.AssetIn, rec.AssetOut)
		if err != nil {
			return nil, fmt.Errorf("snapshot position: %w", err)
		}
		if !common.IsHexAddress(rec.User) {
			return nil, fmt.Errorf("snapshot position: invalid user %q", rec.User)
		}
		shares, err := model.ParseAmount(rec.Shares)
		if err != nil {
			return nil, fmt.Errorf("snapshot position: %w", err)
		}
		if shares.IsZero() {
			continue
		}
		posKey := model.PositionKey{User: common.HexToAddress(rec.User), Pool: key}
		if _, exists := l.positions[posKey]; exists {
			return nil, fmt.Errorf("snapshot: duplicate position for %s on %s/%s", rec.User, rec.AssetIn, rec.AssetOut)
		}
		l.positions[posKey] = shares
	}

	return l, nil
}

func parsePoolKey(assetIn, assetOut string) (model.PoolKey, error) {
	if !common.IsHexAddress(assetIn) {
		return model.PoolKey{}, fmt.Errorf("invalid asset %q", assetIn)
	}
	if !common.IsHexAddress(assetOut) {
		return model.PoolKey{}, fmt.Errorf("invalid asset %q", assetOut)
	}
	return model.PoolKey{
		AssetIn:  common.HexToAddress(assetIn),
		AssetOut: common.HexToAddress(assetOut),
	}, nil
}

// Owner returns the governance owner.
func (l *Ledger) Owner() common.Address {
	return l.owner
}

// RewardRate returns the current governance reward rate.
func (l *Ledger) RewardRate() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rewardRate
}

// IsAllowed reports whether a token is on the governance allowlist. No ledger
// transition consults this; it is a pure governance bookkeeping read.
func (l *Ledger) IsAllowed(tok common.Address) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.allowed[tok]
}

// Pool returns a copy of the pool for the exact ordered key, or false.
func (l *Ledger) Pool(key model.PoolKey) (*model.Pool, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	pool, ok := l.pools[key]
	if !ok {
		return nil, false
	}
	return pool.Clone(), true
}

// Position returns the user's share count on a pool. Zero means no position.
func (l *Ledger) Position(user common.Address, key model.PoolKey) *uint256.Int {
	l.mu.Lock()
	defer l.mu.Unlock()

	shares, ok := l.positions[model.PositionKey{User: user, Pool: key}]
	if !ok {
		return new(uint256.Int)
	}
	return new(uint256.Int).Set(shares)
}

// Export produces a deterministic snapshot of the full ledger state. Bank
// balances are appended by the caller that owns the bank.
func (l *Ledger) Export() model.State {
	l.mu.Lock()
	defer l.mu.Unlock()

	state := model.State{
		Owner:      l.owner.Hex(),
		RewardRate: l.rewardRate,
	}

	for tok, ok := range l.allowed {
		if ok {
			state.AllowedTokens = append(state.AllowedTokens, tok.Hex())
		}
	}
	sort.Strings(state.AllowedTokens)

	for _, pool := range l.pools {
		state.Pools = append(state.Pools, model.PoolRecord{
			AssetIn:     pool.Key.AssetIn.Hex(),
			AssetOut:    pool.Key.AssetOut.Hex(),
			ReserveIn:   model.FormatAmount(pool.ReserveIn),
			ReserveOut:  model.FormatAmount(pool.ReserveOut),
			TotalShares: model.FormatAmount(pool.TotalShares),
		})
	}
	sort.Slice(state.Pools, func(i, j int) bool {
		if state.Pools[i].AssetIn != state.Pools[j].AssetIn {
			return state.Pools[i].AssetIn < state.Pools[j].AssetIn
		}
		return state.Pools[i].AssetOut < state.Pools[j].AssetOut
	})

	for key, shares := range l.positions {
		if shares.IsZero() {
			continue
		}
		state.Positions = append(state.Positions, model.PositionRecord{
			User:     key.User.Hex(),
			AssetIn:  key.Pool.AssetIn.Hex(),
			AssetOut: key.Pool.AssetOut.Hex(),
			Shares:   model.FormatAmount(shares),
		})
	}
	sort.Slice(state.Positions, func(i, j int) bool {
		a, b := state.Positions[i], state.Positions[j]
		if a.User != b.User {
			return a.User < b.User
		}
		if a.AssetIn != b.AssetIn {
			return a.AssetIn < b.AssetIn
		}
		return a.AssetOut < b.AssetOut
	})

	return state
}

// checkAmount maps amount well-formedness onto the ledger error kinds.
func checkAmount(x *uint256.Int) error {
	if x == nil || x.IsZero() {
		return ErrZeroAmount
	}
	if x.BitLen() > model.MaxAmountBits {
		return ErrMaxAmountExceeded
	}
	return nil
}

// creditPosition adds shares to a position, creating it at zero first.
func (l *Ledger) creditPosition(key model.PositionKey, shares *uint256.Int) {
	cur, ok := l.positions[key]
	if !ok {
		cur = new(uint256.Int)
		l.positions[key] = cur
	}
	cur.Add(cur, shares)
}

// debitPosition removes shares from a position, deleting it at zero. The
// caller has already verified the balance.
func (l *Ledger) debitPosition(key model.PositionKey, shares *uint256.Int) {
	cur := l.positions[key]
	cur.Sub(cur, shares)
	if cur.IsZero() {
		delete(l.positions, key)
	}
}
