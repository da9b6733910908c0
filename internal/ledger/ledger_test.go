package ledger

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/agnes-pro/Automated-Market-Maker/internal/model"
	"github.com/agnes-pro/Automated-Market-Maker/internal/token"
)

var (
	owner  = common.HexToAddress("0x00000000000000000000000000000000000000ee")
	alice  = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	bob    = common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	tokenA = common.HexToAddress("0x1111111111111111111111111111111111111111")
	tokenB = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

func amt(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}

// newTestLedger builds a ledger backed by an in-memory bank with both users
// funded generously in both assets.
func newTestLedger(t *testing.T, cfg Config) (*Ledger, *token.Bank) {
	t.Helper()
	bank := token.NewBank()
	for _, user := range []common.Address{alice, bob} {
		bank.Mint(user, tokenA, amt(1_000_000_000))
		bank.Mint(user, tokenB, amt(1_000_000_000))
	}
	return New(owner, bank, cfg, nil), bank
}

// failingTransferer succeeds for the first succeedFor calls, then rejects.
type failingTransferer struct {
	succeedFor int
	calls      int
}

func (f *failingTransferer) Transfer(ctx context.Context, asset common.Address, amount *uint256.Int, from, to common.Address, memo string) error {
	f.calls++
	if f.calls > f.succeedFor {
		return fmt.Errorf("custody rejected transfer %d", f.calls)
	}
	return nil
}

// sharesSum adds up every position's shares for one pool key.
func sharesSum(l *Ledger, key model.PoolKey) *uint256.Int {
	l.mu.Lock()
	defer l.mu.Unlock()

	sum := new(uint256.Int)
	for posKey, shares := range l.positions {
		if posKey.Pool == key {
			sum.Add(sum, shares)
		}
	}
	return sum
}

func TestExportRoundTrip(t *testing.T) {
	ctx := context.Background()
	l, bank := newTestLedger(t, Config{})

	if _, err := l.CreatePool(ctx, alice, tokenA, tokenB, amt(1000), amt(2000)); err != nil {
		t.Fatalf("create pool: %v", err)
	}
	if _, err := l.AddLiquidity(ctx, bob, tokenA, tokenB, amt(100), amt(200)); err != nil {
		t.Fatalf("add liquidity: %v", err)
	}
	if _, err := l.AddAllowedToken(owner, tokenA); err != nil {
		t.Fatalf("allow token: %v", err)
	}
	if err := l.SetRewardRate(owner, 250); err != nil {
		t.Fatalf("set reward rate: %v", err)
	}

	state := l.Export()
	state.Balances = bank.Export()

	restored, err := NewFromState(state, bank, Config{}, nil)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}

	again := restored.Export()
	again.Balances = state.Balances
	if !reflect.DeepEqual(state, again) {
		t.Fatalf("snapshot not stable across restore:\n%+v\n%+v", state, again)
	}

	if restored.Owner() != owner {
		t.Fatalf("owner lost in round trip")
	}
	if restored.RewardRate() != 250 {
		t.Fatalf("reward rate lost in round trip")
	}
	if !restored.IsAllowed(tokenA) {
		t.Fatalf("allowlist lost in round trip")
	}
}

func TestNewFromStateRejectsBadSnapshots(t *testing.T) {
	bank := token.NewBank()

	cases := []model.State{
		{Owner: "not-an-address"},
		{Owner: owner.Hex(), RewardRate: MaxRewardRate + 1},
		{Owner: owner.Hex(), AllowedTokens: []string{"bogus"}},
		{Owner: owner.Hex(), Pools: []model.PoolRecord{
			{AssetIn: tokenA.Hex(), AssetOut: tokenB.Hex(), ReserveIn: "x", ReserveOut: "1", TotalShares: "1"},
		}},
		{Owner: owner.Hex(), Positions: []model.PositionRecord{
			{User: alice.Hex(), AssetIn: tokenA.Hex(), AssetOut: tokenA.Hex(), Shares: "-1"},
		}},
	}

	for i, state := range cases {
		if _, err := NewFromState(state, bank, Config{}, nil); err == nil {
			t.Fatalf("case %d: expected error for malformed snapshot", i)
		}
	}
}

func TestNewFromStateDropsZeroSharePositions(t *testing.T) {
	bank := token.NewBank()
	_, err := NewFromState(model.State{
		Owner: owner.Hex(),
		Positions: []model.PositionRecord{
			{User: alice.Hex(), AssetIn: tokenA.Hex(), AssetOut: tokenB.Hex(), Shares: "0"},
		},
	}, bank, Config{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPositionZeroMeansAbsent(t *testing.T) {
	l, _ := newTestLedger(t, Config{})

	key := model.PoolKey{AssetIn: tokenA, AssetOut: tokenB}
	if got := l.Position(alice, key); !got.IsZero() {
		t.Fatalf("missing position should read as zero, got %s", got.Dec())
	}
	if _, ok := l.Pool(key); ok {
		t.Fatalf("missing pool should not be found")
	}
}
